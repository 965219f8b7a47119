package enums

import "fmt"

// AnalyticsEventType is the canonical event_type for analytics routing.
type AnalyticsEventType string

const (
	AnalyticsEventLostItemReported  AnalyticsEventType = "lost_item_reported"
	AnalyticsEventFoundItemReported AnalyticsEventType = "found_item_reported"
	AnalyticsEventMatchSuggested    AnalyticsEventType = "match_suggested"
	AnalyticsEventMatchApproved     AnalyticsEventType = "match_approved"
	AnalyticsEventMatchRejected     AnalyticsEventType = "match_rejected"
	AnalyticsEventMatchClaimed      AnalyticsEventType = "match_claimed"
	AnalyticsEventItemReturned      AnalyticsEventType = "item_returned"
)

var validAnalyticsEventTypes = []AnalyticsEventType{
	AnalyticsEventLostItemReported,
	AnalyticsEventFoundItemReported,
	AnalyticsEventMatchSuggested,
	AnalyticsEventMatchApproved,
	AnalyticsEventMatchRejected,
	AnalyticsEventMatchClaimed,
	AnalyticsEventItemReturned,
}

// IsValid reports whether the value matches the canonical analytics event_type enum.
func (a AnalyticsEventType) IsValid() bool {
	for _, candidate := range validAnalyticsEventTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAnalyticsEventType converts the raw string to AnalyticsEventType.
func ParseAnalyticsEventType(value string) (AnalyticsEventType, error) {
	for _, candidate := range validAnalyticsEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid analytics event type %q", value)
}
