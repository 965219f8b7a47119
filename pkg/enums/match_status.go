package enums

import "fmt"

// MatchStatus maps to the match_status enum in Postgres.
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusMatched   MatchStatus = "matched"
	MatchStatusClaimed   MatchStatus = "claimed"
	MatchStatusApproved  MatchStatus = "approved"
	MatchStatusRejected  MatchStatus = "rejected"
	MatchStatusCancelled MatchStatus = "cancelled"
)

var validMatchStatuses = []MatchStatus{
	MatchStatusPending,
	MatchStatusMatched,
	MatchStatusClaimed,
	MatchStatusApproved,
	MatchStatusRejected,
	MatchStatusCancelled,
}

// IsValid reports whether the value matches the canonical match_status enum.
func (s MatchStatus) IsValid() bool {
	for _, candidate := range validMatchStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseMatchStatus converts raw input into MatchStatus.
func ParseMatchStatus(value string) (MatchStatus, error) {
	for _, candidate := range validMatchStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid match status %q", value)
}

// IsTerminal reports whether no further lifecycle transition is allowed.
func (s MatchStatus) IsTerminal() bool {
	switch s {
	case MatchStatusApproved, MatchStatusRejected, MatchStatusCancelled:
		return true
	}
	return false
}
