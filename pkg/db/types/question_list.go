package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// VerificationQuestion is a single owner-supplied challenge attached to a
// lost item report. Order matters: answers reference questions by index.
type VerificationQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuestionList stores verification questions as a JSONB column.
type QuestionList []VerificationQuestion

func (q *QuestionList) Scan(src any) error {
	if src == nil {
		*q = QuestionList{}
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return q.parseFromBytes(v)
	case string:
		return q.parseFromBytes([]byte(v))
	default:
		return fmt.Errorf("QuestionList: unsupported Scan type %T", src)
	}
}

func (q QuestionList) Value() (driver.Value, error) {
	if len(q) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("QuestionList: marshal: %w", err)
	}
	return string(raw), nil
}

func (q *QuestionList) parseFromBytes(raw []byte) error {
	if len(raw) == 0 {
		*q = QuestionList{}
		return nil
	}
	var out []VerificationQuestion
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("QuestionList: unmarshal: %w", err)
	}
	*q = QuestionList(out)
	return nil
}
