package model

import (
	"bytes"
	"encoding/json"
)

// Optional is a patch field that distinguishes "absent" from "null".
// Set is false when the JSON key was missing; Value is nil when it was null.
type Optional struct {
	Set   bool
	Value *string
}

// Some returns an Optional set to v.
func Some(v string) Optional {
	return Optional{Set: true, Value: &v}
}

// Null returns an Optional that clears the field.
func Null() Optional {
	return Optional{Set: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
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
func (o Optional) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// Or returns the patched value when set, otherwise current.
func (o Optional) Or(current *string) *string {
	if !o.Set {
		return current
	}
	return o.Value
}
