package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// AnswerMap stores submitted verification answers keyed by question index,
// persisted as a JSONB column.
type AnswerMap map[string]string

func (m *AnswerMap) Scan(src any) error {
	if src == nil {
		*m = AnswerMap{}
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return m.parseFromBytes(v)
	case string:
		return m.parseFromBytes([]byte(v))
	default:
		return fmt.Errorf("AnswerMap: unsupported Scan type %T", src)
	}
}

func (m AnswerMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("AnswerMap: marshal: %w", err)
	}
	return string(raw), nil
}

func (m *AnswerMap) parseFromBytes(raw []byte) error {
	if len(raw) == 0 {
		*m = AnswerMap{}
		return nil
	}
	var out map[string]string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("AnswerMap: unmarshal: %w", err)
	}
	if out == nil {
		out = map[string]string{}
	}
	*m = AnswerMap(out)
	return nil
}
