package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/campusfind/campusfind-backend/pkg/enums"
	"github.com/campusfind/campusfind-backend/pkg/logger"
	"github.com/campusfind/campusfind-backend/pkg/outbox"
)

const analyticsConsumerName = "analytics"

// Handler defines how to process analytics envelopes.
type Handler interface {
	Handle(ctx context.Context, envelope Envelope) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Worker consumes analytics events from Pub/Sub while honoring Redis idempotency.
type Worker struct {
	subscription *gcppubsub.Subscriber
	handler      Handler
	manager      idempotencyChecker
	logg         *logger.Logger
}

// NewWorker creates the analytics worker.
func NewWorker(subscription *gcppubsub.Subscriber, handler Handler, manager idempotencyChecker, logg *logger.Logger) (*Worker, error) {
	if subscription == nil {
		return nil, errors.New("analytics subscription is required")
	}
	if handler == nil {
		return nil, errors.New("analytics handler is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Worker{
		subscription: subscription,
		handler:      handler,
		manager:      manager,
		logg:         logg,
	}, nil
}

type processResult struct {
	nack bool
}

// Run starts consuming analytics messages until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	return w.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if w.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (w *Worker) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": msg.Attributes["event_type"],
	}
	logCtx := w.logg.WithFields(ctx, fields)

	eventType, ok := translateEventType(msg.Attributes["event_type"])
	if !ok {
		w.logg.Info(logCtx, "skipping event without analytics mapping")
		return processResult{}
	}

	envelope, err := buildEnvelope(msg, eventType)
	if err != nil {
		fields["error"] = err.Error()
		w.logg.Warn(w.logg.WithFields(ctx, fields), "invalid analytics envelope")
		return processResult{}
	}
	logCtx = w.logg.WithFields(ctx, map[string]any{
		"message_id":   msg.ID,
		"event_id":     envelope.EventID,
		"event_type":   string(envelope.EventType),
		"aggregate_id": envelope.AggregateID,
	})

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		w.logg.Warn(logCtx, "invalid event id")
		return processResult{}
	}

	already, err := w.manager.CheckAndMarkProcessed(logCtx, analyticsConsumerName, eventID)
	if err != nil {
		w.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		w.logg.Info(logCtx, "event already processed")
		return processResult{}
	}

	if err := w.handler.Handle(logCtx, *envelope); err != nil {
		w.logg.Error(logCtx, "handler error", err)
		_ = w.manager.Delete(logCtx, analyticsConsumerName, eventID)
		return processResult{nack: true}
	}

	w.logg.Info(logCtx, "analytics event handled")
	return processResult{}
}

// translateEventType maps outbox event names onto the analytics taxonomy.
// found_item_returned feeds the item_returned funnel stage; events with no
// analytics mapping are skipped.
func translateEventType(raw string) (enums.AnalyticsEventType, bool) {
	value := strings.TrimSpace(raw)
	if value == string(enums.EventFoundItemReturned) {
		return enums.AnalyticsEventItemReturned, true
	}
	eventType, err := enums.ParseAnalyticsEventType(value)
	if err != nil {
		return "", false
	}
	return eventType, true
}

func buildEnvelope(msg *gcppubsub.Message, eventType enums.AnalyticsEventType) (*Envelope, error) {
	var stored outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &stored); err != nil {
		return nil, fmt.Errorf("decode payload envelope: %w", err)
	}

	aggregateType, err := enums.ParseOutboxAggregateType(strings.TrimSpace(msg.Attributes["aggregate_type"]))
	if err != nil {
		return nil, fmt.Errorf("aggregate_type: %w", err)
	}

	aggregateID := strings.TrimSpace(msg.Attributes["aggregate_id"])
	if aggregateID == "" {
		return nil, errors.New("aggregate_id missing")
	}

	eventID := strings.TrimSpace(stored.EventID)
	if eventID == "" {
		eventID = strings.TrimSpace(msg.Attributes["event_id"])
	}
	if eventID == "" {
		return nil, errors.New("event_id missing")
	}

	occurredAt := stored.OccurredAt
	if occurredAt.IsZero() {
		if created := strings.TrimSpace(msg.Attributes["created_at"]); created != "" {
			if parsed, err := time.Parse(time.RFC3339Nano, created); err == nil {
				occurredAt = parsed
			}
		}
	}

	return &Envelope{
		EventID:       eventID,
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		OccurredAt:    occurredAt.UTC(),
		Payload:       stored.Data,
	}, nil
}
