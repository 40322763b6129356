package httputil

import (
	"bytes"
	"encoding/json"
)

// OptionalString tracks presence and value for JSON PATCH semantics (RFC 7396).
// This enables proper tri-state handling that Go's *string cannot express:
//   - Present=false: field absent from JSON (don't change)
//   - Present=true, Value=nil: field is JSON null (clear)
//   - Present=true, Value=&"text": field has value
//
// Tag fields with `json:",omitzero"` so an absent value is also omitted when
// encoding.
type OptionalString struct {
	Present bool
	Value   *string
}

// Set returns a present OptionalString holding s.
func Set(s string) OptionalString {
	return OptionalString{Present: true, Value: &s}
}

// Null returns a present OptionalString that clears the field.
func Null() OptionalString {
	return OptionalString{Present: true}
}

// UnmarshalJSON implements json.Unmarshaler.
// When this method is called, the field was present in the JSON.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true

	// Check for JSON null
	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// MarshalJSON implements json.Marshaler.
func (o OptionalString) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// IsZero lets omitzero drop absent fields.
func (o OptionalString) IsZero() bool {
	return !o.Present
}

// Or returns the value, or fallback when absent or null.
func (o OptionalString) Or(fallback string) string {
	if !o.Present || o.Value == nil {
		return fallback
	}
	return *o.Value
}
