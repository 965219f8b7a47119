package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/campusfind/campusfind-backend/pkg/enums"
	"github.com/campusfind/campusfind-backend/pkg/logger"
	"github.com/campusfind/campusfind-backend/pkg/outbox/payloads"
)

var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// RowWriter delivers BigQuery rows produced by analytics handlers.
type RowWriter interface {
	InsertItemEvent(ctx context.Context, row ItemEventRow) error
	InsertMatchEvent(ctx context.Context, row MatchEventRow) error
}

type handlerEntry struct {
	factory func() any
	handle  func(ctx context.Context, envelope Envelope, payload any) error
}

// Router dispatches analytics envelopes to the handler for each event type.
type Router struct {
	handlers map[enums.AnalyticsEventType]handlerEntry
	logg     *logger.Logger
}

// NewRouter wires the match-funnel handlers.
func NewRouter(writer RowWriter, logg *logger.Logger) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	r := &Router{logg: logg}
	r.handlers = map[enums.AnalyticsEventType]handlerEntry{
		enums.AnalyticsEventLostItemReported: {
			factory: func() any { return &payloads.LostItemReportedEvent{} },
			handle: func(ctx context.Context, envelope Envelope, payload any) error {
				event := payload.(*payloads.LostItemReportedEvent)
				itemType := string(event.ItemType)
				return writer.InsertItemEvent(ctx, ItemEventRow{
					EventID:    envelope.EventID,
					EventType:  string(envelope.EventType),
					OccurredAt: envelope.OccurredAt,
					ItemID:     event.LostItemID.String(),
					ItemKind:   "lost",
					ItemType:   &itemType,
					OwnerID:    event.OwnerID.String(),
					Payload:    encodeJSON(envelope.Payload),
				})
			},
		},
		enums.AnalyticsEventFoundItemReported: {
			factory: func() any { return &payloads.FoundItemReportedEvent{} },
			handle: func(ctx context.Context, envelope Envelope, payload any) error {
				event := payload.(*payloads.FoundItemReportedEvent)
				itemType := string(event.ItemType)
				return writer.InsertItemEvent(ctx, ItemEventRow{
					EventID:    envelope.EventID,
					EventType:  string(envelope.EventType),
					OccurredAt: envelope.OccurredAt,
					ItemID:     event.FoundItemID.String(),
					ItemKind:   "found",
					ItemType:   &itemType,
					OwnerID:    event.OwnerID.String(),
					Payload:    encodeJSON(envelope.Payload),
				})
			},
		},
		enums.AnalyticsEventItemReturned: {
			factory: func() any { return &payloads.FoundItemReturnedEvent{} },
			handle: func(ctx context.Context, envelope Envelope, payload any) error {
				event := payload.(*payloads.FoundItemReturnedEvent)
				return writer.InsertItemEvent(ctx, ItemEventRow{
					EventID:    envelope.EventID,
					EventType:  string(envelope.EventType),
					OccurredAt: envelope.OccurredAt,
					ItemID:     event.FoundItemID.String(),
					ItemKind:   "found",
					OwnerID:    event.OwnerID.String(),
					Payload:    encodeJSON(envelope.Payload),
				})
			},
		},
		enums.AnalyticsEventMatchSuggested: {
			factory: func() any { return &payloads.MatchSuggestedEvent{} },
			handle: func(ctx context.Context, envelope Envelope, payload any) error {
				event := payload.(*payloads.MatchSuggestedEvent)
				lostID := event.LostItemID.String()
				score := event.SimilarityScore
				return writer.InsertMatchEvent(ctx, MatchEventRow{
					EventID:         envelope.EventID,
					EventType:       string(envelope.EventType),
					OccurredAt:      envelope.OccurredAt,
					MatchID:         event.MatchID.String(),
					LostItemID:      &lostID,
					FoundItemID:     event.FoundItemID.String(),
					SimilarityScore: &score,
					Payload:         encodeJSON(envelope.Payload),
				})
			},
		},
		enums.AnalyticsEventMatchApproved: {
			factory: func() any { return &payloads.MatchApprovedEvent{} },
			handle: func(ctx context.Context, envelope Envelope, payload any) error {
				event := payload.(*payloads.MatchApprovedEvent)
				return writer.InsertMatchEvent(ctx, MatchEventRow{
					EventID:     envelope.EventID,
					EventType:   string(envelope.EventType),
					OccurredAt:  envelope.OccurredAt,
					MatchID:     event.MatchID.String(),
					LostItemID:  uuidPtrString(event.LostItemID),
					FoundItemID: event.FoundItemID.String(),
					ClaimerID:   uuidPtrString(event.ClaimerID),
					Payload:     encodeJSON(envelope.Payload),
				})
			},
		},
		enums.AnalyticsEventMatchRejected: {
			factory: func() any { return &payloads.MatchRejectedEvent{} },
			handle: func(ctx context.Context, envelope Envelope, payload any) error {
				event := payload.(*payloads.MatchRejectedEvent)
				return writer.InsertMatchEvent(ctx, MatchEventRow{
					EventID:     envelope.EventID,
					EventType:   string(envelope.EventType),
					OccurredAt:  envelope.OccurredAt,
					MatchID:     event.MatchID.String(),
					LostItemID:  uuidPtrString(event.LostItemID),
					FoundItemID: event.FoundItemID.String(),
					ClaimerID:   uuidPtrString(event.ClaimerID),
					Payload:     encodeJSON(envelope.Payload),
				})
			},
		},
		enums.AnalyticsEventMatchClaimed: {
			factory: func() any { return &payloads.MatchClaimedEvent{} },
			handle: func(ctx context.Context, envelope Envelope, payload any) error {
				event := payload.(*payloads.MatchClaimedEvent)
				claimerID := event.ClaimerID.String()
				return writer.InsertMatchEvent(ctx, MatchEventRow{
					EventID:     envelope.EventID,
					EventType:   string(envelope.EventType),
					OccurredAt:  envelope.OccurredAt,
					MatchID:     event.MatchID.String(),
					FoundItemID: event.FoundItemID.String(),
					ClaimerID:   &claimerID,
					Payload:     encodeJSON(envelope.Payload),
				})
			},
		},
	}
	return r, nil
}

// Handle decodes the payload and dispatches to the configured handler.
func (r *Router) Handle(ctx context.Context, envelope Envelope) error {
	entry, ok := r.handlers[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	if len(envelope.Payload) == 0 {
		return fmt.Errorf("empty payload for %s", envelope.EventType)
	}
	payload := entry.factory()
	if err := json.Unmarshal(envelope.Payload, payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", envelope.EventType, err)
	}
	return entry.handle(ctx, envelope, payload)
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	value := id.String()
	return &value
}
