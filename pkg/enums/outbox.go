package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateLostItem     OutboxAggregateType = "lost_item"
	AggregateFoundItem    OutboxAggregateType = "found_item"
	AggregateMatch        OutboxAggregateType = "match"
	AggregateUser         OutboxAggregateType = "user"
	AggregateNotification OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateLostItem,
	AggregateFoundItem,
	AggregateMatch,
	AggregateUser,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventLostItemReported  OutboxEventType = "lost_item_reported"
	EventLostItemFound     OutboxEventType = "lost_item_found"
	EventLostItemClosed    OutboxEventType = "lost_item_closed"
	EventLostItemDeleted   OutboxEventType = "lost_item_deleted"
	EventFoundItemReported OutboxEventType = "found_item_reported"
	EventFoundItemReturned OutboxEventType = "found_item_returned"
	EventFoundItemClosed   OutboxEventType = "found_item_closed"
	EventFoundItemDeleted  OutboxEventType = "found_item_deleted"
	EventMatchSuggested    OutboxEventType = "match_suggested"
	EventMatchApproved     OutboxEventType = "match_approved"
	EventMatchRejected     OutboxEventType = "match_rejected"
	EventMatchClaimed      OutboxEventType = "match_claimed"
	EventMatchCancelled    OutboxEventType = "match_cancelled"
	EventReputationAwarded OutboxEventType = "reputation_awarded"
)

var validOutboxEventTypes = []OutboxEventType{
	EventLostItemReported,
	EventLostItemFound,
	EventLostItemClosed,
	EventLostItemDeleted,
	EventFoundItemReported,
	EventFoundItemReturned,
	EventFoundItemClosed,
	EventFoundItemDeleted,
	EventMatchSuggested,
	EventMatchApproved,
	EventMatchRejected,
	EventMatchClaimed,
	EventMatchCancelled,
	EventReputationAwarded,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
