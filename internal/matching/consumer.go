package matching

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/campusfind/campusfind-backend/pkg/enums"
	"github.com/campusfind/campusfind-backend/pkg/logger"
	"github.com/campusfind/campusfind-backend/pkg/outbox"
	"github.com/campusfind/campusfind-backend/pkg/outbox/idempotency"
	"github.com/campusfind/campusfind-backend/pkg/outbox/payloads"
	"github.com/campusfind/campusfind-backend/pkg/outbox/registry"
)

const matcherConsumer = "matcher-worker"

// Consumer watches item report events and runs a match scan for each one.
type Consumer struct {
	finder       Service
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	decoders     *registry.DecoderRegistry
	logg         *logger.Logger
}

// NewConsumer builds the matcher worker consumer.
func NewConsumer(finder Service, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if finder == nil {
		return nil, fmt.Errorf("matching service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("matching subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		finder:       finder,
		subscription: subscription,
		idempotency:  manager,
		decoders:     newReportDecoders(),
		logg:         logg,
	}, nil
}

func newReportDecoders() *registry.DecoderRegistry {
	decoders := registry.NewDecoderRegistry()
	decoders.Register(enums.EventLostItemReported, 1, func(data json.RawMessage) (interface{}, error) {
		var payload payloads.LostItemReportedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("parsing lost item payload: %w", err)
		}
		return &payload, nil
	})
	decoders.Register(enums.EventFoundItemReported, 1, func(data json.RawMessage) (interface{}, error) {
		var payload payloads.FoundItemReportedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("parsing found item payload: %w", err)
		}
		return &payload, nil
	})
	return decoders
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

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	isLost := eventType == string(enums.EventLostItemReported)
	isFound := eventType == string(enums.EventFoundItemReported)
	if !isLost && !isFound {
		c.logg.Info(logCtx, "skipping non-report event")
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

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, matcherConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var result *ScanResult
	if isLost {
		result, err = c.scanLost(ctx, envelope, logCtx)
	} else {
		result, err = c.scanFound(ctx, envelope, logCtx)
	}
	if err != nil {
		c.logg.Error(logCtx, "match scan failed", err)
		_ = c.idempotency.Delete(ctx, matcherConsumer, eventID)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"candidates_considered": result.CandidatesConsidered,
		"matches_created":       result.MatchesCreated,
	})
	c.logg.Info(logCtx, "match scan completed")
	return processResult{ack: true}
}

func (c *Consumer) scanLost(ctx context.Context, envelope outbox.PayloadEnvelope, logCtx context.Context) (*ScanResult, error) {
	decoded, err := c.decoders.Decode(enums.EventLostItemReported, envelope.Version, envelope.Data)
	if err != nil {
		return nil, err
	}
	payload := decoded.(*payloads.LostItemReportedEvent)
	if payload.LostItemID == uuid.Nil {
		return nil, fmt.Errorf("lost item id missing")
	}
	c.logg.Info(c.logg.WithField(logCtx, "lost_item_id", payload.LostItemID.String()), "scanning for lost item")
	return c.finder.FindForLostItem(ctx, payload.LostItemID)
}

func (c *Consumer) scanFound(ctx context.Context, envelope outbox.PayloadEnvelope, logCtx context.Context) (*ScanResult, error) {
	decoded, err := c.decoders.Decode(enums.EventFoundItemReported, envelope.Version, envelope.Data)
	if err != nil {
		return nil, err
	}
	payload := decoded.(*payloads.FoundItemReportedEvent)
	if payload.FoundItemID == uuid.Nil {
		return nil, fmt.Errorf("found item id missing")
	}
	c.logg.Info(c.logg.WithField(logCtx, "found_item_id", payload.FoundItemID.String()), "scanning for found item")
	return c.finder.FindForFoundItem(ctx, payload.FoundItemID)
}
