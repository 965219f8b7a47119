package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/campusfind/campusfind-backend/pkg/config"
	"github.com/campusfind/campusfind-backend/pkg/db/models"
	"github.com/campusfind/campusfind-backend/pkg/enums"
	"github.com/campusfind/campusfind-backend/pkg/outbox"
	"github.com/campusfind/campusfind-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.MatchingTopic == "" {
		return nil, fmt.Errorf("matching topic is required")
	}
	if cfg.NotificationTopic == "" {
		return nil, fmt.Errorf("notification topic is required")
	}
	if cfg.AnalyticsTopic == "" {
		return nil, fmt.Errorf("analytics topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	matchingTopic := cfg.MatchingTopic
	notificationTopic := cfg.NotificationTopic
	analyticsTopic := cfg.AnalyticsTopic

	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventLostItemReported,
			AggregateType:  enums.AggregateLostItem,
			Topic:          matchingTopic,
			PayloadFactory: func() interface{} { return &payloads.LostItemReportedEvent{} },
		},
		{
			EventType:      enums.EventFoundItemReported,
			AggregateType:  enums.AggregateFoundItem,
			Topic:          matchingTopic,
			PayloadFactory: func() interface{} { return &payloads.FoundItemReportedEvent{} },
		},
	} {
		reg.register(desc)
	}
	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventMatchSuggested,
			AggregateType:  enums.AggregateMatch,
			Topic:          notificationTopic,
			PayloadFactory: func() interface{} { return &payloads.MatchSuggestedEvent{} },
		},
		{
			EventType:      enums.EventMatchApproved,
			AggregateType:  enums.AggregateMatch,
			Topic:          notificationTopic,
			PayloadFactory: func() interface{} { return &payloads.MatchApprovedEvent{} },
		},
		{
			EventType:      enums.EventMatchRejected,
			AggregateType:  enums.AggregateMatch,
			Topic:          notificationTopic,
			PayloadFactory: func() interface{} { return &payloads.MatchRejectedEvent{} },
		},
		{
			EventType:      enums.EventMatchClaimed,
			AggregateType:  enums.AggregateMatch,
			Topic:          notificationTopic,
			PayloadFactory: func() interface{} { return &payloads.MatchClaimedEvent{} },
		},
		{
			EventType:      enums.EventFoundItemReturned,
			AggregateType:  enums.AggregateFoundItem,
			Topic:          notificationTopic,
			PayloadFactory: func() interface{} { return &payloads.FoundItemReturnedEvent{} },
		},
		{
			EventType:      enums.EventReputationAwarded,
			AggregateType:  enums.AggregateUser,
			Topic:          notificationTopic,
			PayloadFactory: func() interface{} { return &payloads.ReputationAwardedEvent{} },
		},
	} {
		reg.register(desc)
	}
	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventLostItemFound,
			AggregateType:  enums.AggregateLostItem,
			Topic:          analyticsTopic,
			PayloadFactory: func() interface{} { return &payloads.LostItemFoundEvent{} },
		},
		{
			EventType:      enums.EventLostItemClosed,
			AggregateType:  enums.AggregateLostItem,
			Topic:          analyticsTopic,
			PayloadFactory: func() interface{} { return &payloads.LostItemClosedEvent{} },
		},
		{
			EventType:      enums.EventLostItemDeleted,
			AggregateType:  enums.AggregateLostItem,
			Topic:          analyticsTopic,
			PayloadFactory: func() interface{} { return &payloads.ItemDeletedEvent{} },
		},
		{
			EventType:      enums.EventFoundItemClosed,
			AggregateType:  enums.AggregateFoundItem,
			Topic:          analyticsTopic,
			PayloadFactory: func() interface{} { return &payloads.FoundItemClosedEvent{} },
		},
		{
			EventType:      enums.EventFoundItemDeleted,
			AggregateType:  enums.AggregateFoundItem,
			Topic:          analyticsTopic,
			PayloadFactory: func() interface{} { return &payloads.ItemDeletedEvent{} },
		},
		{
			EventType:      enums.EventMatchCancelled,
			AggregateType:  enums.AggregateMatch,
			Topic:          analyticsTopic,
			PayloadFactory: func() interface{} { return &payloads.MatchCancelledEvent{} },
		},
	} {
		reg.register(desc)
	}

	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if payload == nil {
		return nil, NewNonRetryableError(fmt.Errorf("payload factory not configured for %s", event.EventType))
	}
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}
