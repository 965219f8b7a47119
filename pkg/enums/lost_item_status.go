package enums

import "fmt"

// LostItemStatus maps to the lost_item_status enum in Postgres.
type LostItemStatus string

const (
	LostItemStatusActive LostItemStatus = "active"
	LostItemStatusFound  LostItemStatus = "found"
	LostItemStatusClosed LostItemStatus = "closed"
)

var validLostItemStatuses = []LostItemStatus{
	LostItemStatusActive,
	LostItemStatusFound,
	LostItemStatusClosed,
}

// IsValid reports whether the value matches the canonical lost_item_status enum.
func (s LostItemStatus) IsValid() bool {
	for _, candidate := range validLostItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseLostItemStatus converts raw input into LostItemStatus.
func ParseLostItemStatus(value string) (LostItemStatus, error) {
	for _, candidate := range validLostItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lost item status %q", value)
}
