package storage

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONContent is a JSON document stored as text. Message bodies are kept in
// the serialized form the aisdk package produces.
type JSONContent json.RawMessage

// Scan implements the sql.Scanner interface for JSONContent
func (j *JSONContent) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case string:
		*j = append((*j)[:0], v...)
		return nil
	case []byte:
		*j = append((*j)[:0], v...)
		return nil
	default:
		return fmt.Errorf("cannot scan type %T into JSONContent", value)
	}
}

// Value implements the driver.Valuer interface for JSONContent
func (j JSONContent) Value() (driver.Value, error) {
	if len(j) == 0 {
		return `""`, nil
	}
	if !json.Valid(j) {
		return nil, fmt.Errorf("content is not valid JSON")
	}
	return string(j), nil
}

// MarshalJSON keeps the stored document as is.
func (j JSONContent) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte(`""`), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (j *JSONContent) UnmarshalJSON(b []byte) error {
	*j = append((*j)[:0], b...)
	return nil
}
