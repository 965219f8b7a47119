package analytics

import (
	"encoding/json"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/campusfind/campusfind-backend/pkg/enums"
	"github.com/campusfind/campusfind-backend/pkg/outbox"
)

func TestTranslateEventType(t *testing.T) {
	cases := []struct {
		raw  string
		want enums.AnalyticsEventType
		ok   bool
	}{
		{"lost_item_reported", enums.AnalyticsEventLostItemReported, true},
		{"match_approved", enums.AnalyticsEventMatchApproved, true},
		{"found_item_returned", enums.AnalyticsEventItemReturned, true},
		{"lost_item_closed", "", false},
		{"reputation_awarded", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := translateEventType(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("translate %q: got (%s, %v), want (%s, %v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestBuildEnvelope(t *testing.T) {
	eventID := uuid.NewString()
	occurredAt := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	stored := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: occurredAt,
		Data:       json.RawMessage(`{"match_id":"x"}`),
	}
	data, err := json.Marshal(stored)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	msg := &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type":     "match_suggested",
			"aggregate_type": "match",
			"aggregate_id":   uuid.NewString(),
		},
	}

	envelope, err := buildEnvelope(msg, enums.AnalyticsEventMatchSuggested)
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	if envelope.EventID != eventID {
		t.Fatalf("expected event id %s, got %s", eventID, envelope.EventID)
	}
	if envelope.AggregateType != enums.AggregateMatch {
		t.Fatalf("expected match aggregate, got %s", envelope.AggregateType)
	}
	if !envelope.OccurredAt.Equal(occurredAt) {
		t.Fatalf("expected occurred at %s, got %s", occurredAt, envelope.OccurredAt)
	}
	if string(envelope.Payload) != `{"match_id":"x"}` {
		t.Fatalf("unexpected payload %s", envelope.Payload)
	}
}

func TestBuildEnvelopeMissingAggregate(t *testing.T) {
	stored := outbox.PayloadEnvelope{EventID: uuid.NewString()}
	data, _ := json.Marshal(stored)

	msg := &gcppubsub.Message{
		Data:       data,
		Attributes: map[string]string{"aggregate_type": "match"},
	}
	if _, err := buildEnvelope(msg, enums.AnalyticsEventMatchSuggested); err == nil {
		t.Fatal("expected error for missing aggregate id")
	}
}
