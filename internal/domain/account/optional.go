package account

import (
	"encoding/json"
	"fmt"
	"time"
)

// OptionalString tells an absent JSON field apart from an explicit null.
// Absent leaves Set false; null sets Set with a nil Value.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// Cleared reports an explicit null or empty string.
func (o OptionalString) Cleared() bool {
	return o.Set && (o.Value == nil || *o.Value == "")
}

// ParseDate accepts a calendar date (2006-01-02) or a full RFC3339 timestamp.
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, Invalid(fmt.Sprintf("fecha inválida: %q", raw))
	}
	return t.UTC(), nil
}

// ActiveOrDefault treats a missing flag as active; documents written before
// the flag existed never carried it.
func ActiveOrDefault(activo *bool) bool {
	return activo == nil || *activo
}

func BoolPtr(v bool) *bool {
	return &v
}

func StringPtr(v string) *string {
	return &v
}
