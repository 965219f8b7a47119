package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeSystemAnnouncement NotificationType = "system_announcement"
	NotificationTypeMatchSuggested     NotificationType = "match_suggested"
	NotificationTypeMatchApproved      NotificationType = "match_approved"
	NotificationTypeMatchRejected      NotificationType = "match_rejected"
	NotificationTypeItemClaimed        NotificationType = "item_claimed"
	NotificationTypeItemReturned       NotificationType = "item_returned"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeSystemAnnouncement,
	NotificationTypeMatchSuggested,
	NotificationTypeMatchApproved,
	NotificationTypeMatchRejected,
	NotificationTypeItemClaimed,
	NotificationTypeItemReturned,
}

// IsValid reports whether the value matches the canonical notification_type enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
