package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ConversationSummary is produced out of band by the summariser, the chat path only reads the latest row.
type ConversationSummary struct {
	ID                 int64      `db:"id" json:"-"`
	SessionID          string     `db:"session_id" json:"session_id"`
	UserID             string     `db:"user_id" json:"user_id"`
	KeyThemes          StringList `db:"key_themes" json:"key_themes"`
	ProgressIndicators StringList `db:"progress_indicators" json:"progress_indicators"`
	ImportantInsights  StringList `db:"important_insights" json:"important_insights"`
	CreatedAt          int64      `db:"created_at" json:"created_at"`
}

// StringList is stored as a jsonb array.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

func (s *StringList) Scan(src interface{}) error {
	switch src := src.(type) {
	case []byte:
		return s.scanBytes(src)
	case string:
		return s.scanBytes([]byte(src))
	case nil:
		*s = StringList{}
		return nil
	}

	return fmt.Errorf("pq: cannot convert %T to StringList", src)
}

func (s *StringList) scanBytes(src []byte) error {
	if len(src) == 0 {
		*s = StringList{}
		return nil
	}
	return json.Unmarshal(src, s)
}

func (s StringList) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}
