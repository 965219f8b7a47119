package enums

import "fmt"

// FoundItemStatus maps to the found_item_status enum in Postgres.
type FoundItemStatus string

const (
	FoundItemStatusActive   FoundItemStatus = "active"
	FoundItemStatusReturned FoundItemStatus = "returned"
	FoundItemStatusClosed   FoundItemStatus = "closed"
)

var validFoundItemStatuses = []FoundItemStatus{
	FoundItemStatusActive,
	FoundItemStatusReturned,
	FoundItemStatusClosed,
}

// IsValid reports whether the value matches the canonical found_item_status enum.
func (s FoundItemStatus) IsValid() bool {
	for _, candidate := range validFoundItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseFoundItemStatus converts raw input into FoundItemStatus.
func ParseFoundItemStatus(value string) (FoundItemStatus, error) {
	for _, candidate := range validFoundItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid found item status %q", value)
}
