package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/campusfind/campusfind-backend/pkg/db/models"
	"github.com/campusfind/campusfind-backend/pkg/enums"
	"github.com/campusfind/campusfind-backend/pkg/logger"
	"github.com/campusfind/campusfind-backend/pkg/outbox"
	"github.com/campusfind/campusfind-backend/pkg/outbox/idempotency"
	"github.com/campusfind/campusfind-backend/pkg/outbox/payloads"
)

const notificationsConsumer = "notifications-worker"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches domain events and turns match and reputation activity into
// in-app notifications.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the notifications consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

var handledEvents = map[enums.OutboxEventType]struct{}{
	enums.EventMatchSuggested:    {},
	enums.EventMatchApproved:     {},
	enums.EventMatchRejected:     {},
	enums.EventMatchClaimed:      {},
	enums.EventReputationAwarded: {},
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if _, ok := handledEvents[eventType]; !ok {
		c.logg.Info(logCtx, "skipping unhandled event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, notificationsConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handleEvent(ctx, eventType, envelope.Data); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, notificationsConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "notifications created")
	return processResult{ack: true}
}

func (c *Consumer) handleEvent(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage) error {
	switch eventType {
	case enums.EventMatchSuggested:
		return c.handleMatchSuggested(ctx, data)
	case enums.EventMatchApproved:
		return c.handleMatchApproved(ctx, data)
	case enums.EventMatchRejected:
		return c.handleMatchRejected(ctx, data)
	case enums.EventMatchClaimed:
		return c.handleMatchClaimed(ctx, data)
	case enums.EventReputationAwarded:
		return c.handleReputationAwarded(ctx, data)
	default:
		return nil
	}
}

func (c *Consumer) handleMatchSuggested(ctx context.Context, data json.RawMessage) error {
	var payload payloads.MatchSuggestedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parsing match suggested payload: %w", err)
	}
	if payload.MatchID == uuid.Nil {
		return fmt.Errorf("match id missing")
	}
	link := fmt.Sprintf("/matches/%s", payload.MatchID)

	if err := c.repo.Create(ctx, &models.Notification{
		UserID:  payload.LostOwnerID,
		Type:    enums.NotificationTypeMatchSuggested,
		Title:   "Possible match for your lost item",
		Message: fmt.Sprintf("A found item report looks like a match (%.0f%% similarity).", payload.SimilarityScore*100),
		Link:    stringPtr(link),
	}); err != nil {
		return err
	}
	return c.repo.Create(ctx, &models.Notification{
		UserID:  payload.FoundOwnerID,
		Type:    enums.NotificationTypeMatchSuggested,
		Title:   "Your found item may belong to someone",
		Message: "A lost item report matches the item you turned in. Review the match to approve or reject it.",
		Link:    stringPtr(link),
	})
}

func (c *Consumer) handleMatchApproved(ctx context.Context, data json.RawMessage) error {
	var payload payloads.MatchApprovedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parsing match approved payload: %w", err)
	}
	recipient := recipientFor(payload.LostOwnerID, payload.ClaimerID)
	if recipient == uuid.Nil {
		return nil
	}
	return c.repo.Create(ctx, &models.Notification{
		UserID:  recipient,
		Type:    enums.NotificationTypeMatchApproved,
		Title:   "Match approved",
		Message: "The finder approved your match. Arrange a pickup to get your item back.",
		Link:    stringPtr(fmt.Sprintf("/matches/%s", payload.MatchID)),
	})
}

func (c *Consumer) handleMatchRejected(ctx context.Context, data json.RawMessage) error {
	var payload payloads.MatchRejectedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parsing match rejected payload: %w", err)
	}
	recipient := recipientFor(payload.LostOwnerID, payload.ClaimerID)
	if recipient == uuid.Nil {
		return nil
	}
	return c.repo.Create(ctx, &models.Notification{
		UserID:  recipient,
		Type:    enums.NotificationTypeMatchRejected,
		Title:   "Match rejected",
		Message: "The finder decided this item is not yours. Your report stays active for new matches.",
		Link:    stringPtr(fmt.Sprintf("/matches/%s", payload.MatchID)),
	})
}

func (c *Consumer) handleMatchClaimed(ctx context.Context, data json.RawMessage) error {
	var payload payloads.MatchClaimedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parsing match claimed payload: %w", err)
	}
	if payload.FoundOwnerID == uuid.Nil {
		return fmt.Errorf("found owner id missing")
	}
	return c.repo.Create(ctx, &models.Notification{
		UserID:  payload.FoundOwnerID,
		Type:    enums.NotificationTypeItemClaimed,
		Title:   "Someone claimed your found item",
		Message: "A student says the item you turned in is theirs. Review their answers and decide.",
		Link:    stringPtr(fmt.Sprintf("/matches/%s", payload.MatchID)),
	})
}

func (c *Consumer) handleReputationAwarded(ctx context.Context, data json.RawMessage) error {
	var payload payloads.ReputationAwardedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parsing reputation payload: %w", err)
	}
	if payload.UserID == uuid.Nil {
		return fmt.Errorf("user id missing")
	}
	return c.repo.Create(ctx, &models.Notification{
		UserID:  payload.UserID,
		Type:    enums.NotificationTypeItemReturned,
		Title:   "Reputation earned",
		Message: fmt.Sprintf("You earned %d reputation points for returning an item. Your total is now %d.", payload.Delta, payload.NewReputation),
	})
}

func stringPtr(value string) *string {
	return &value
}

// recipientFor picks whoever reported the loss: the lost item owner for
// suggested matches, the claimer for direct claims.
func recipientFor(lostOwnerID, claimerID *uuid.UUID) uuid.UUID {
	if lostOwnerID != nil && *lostOwnerID != uuid.Nil {
		return *lostOwnerID
	}
	if claimerID != nil && *claimerID != uuid.Nil {
		return *claimerID
	}
	return uuid.Nil
}
