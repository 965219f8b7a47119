package db

import "strings"

// IsUniqueViolation reports whether err looks like a unique constraint
// violation. A non-empty constraintName narrows the check to that
// constraint; sqlite's phrasing is accepted so tests behave like
// production.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}
