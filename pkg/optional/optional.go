// Package optional provides a JSON field that distinguishes "absent" from
// "explicitly null" from "set to a value".
//
//	{}              -> Set=false
//	{"brand":null}  -> Set=true, Value=nil
//	{"brand":"X"}   -> Set=true, Value=&"X"
//
// Tag fields with `json:",omitzero"` so absent values are not marshaled.
package optional

import (
	"bytes"
	"encoding/json"
)

type Value[T any] struct {
	Set   bool
	Value *T
}

// Of returns a set, non-null value.
func Of[T any](v T) Value[T] {
	return Value[T]{Set: true, Value: &v}
}

// Null returns a value that is set to JSON null.
func Null[T any]() Value[T] {
	return Value[T]{Set: true}
}

// FromPtr returns Of(*p) for non-nil p and Null otherwise.
func FromPtr[T any](p *T) Value[T] {
	if p == nil {
		return Null[T]()
	}
	return Of(*p)
}

func (v Value[T]) IsNull() bool { return v.Set && v.Value == nil }

// IsZero reports whether the field was absent. encoding/json's omitzero uses it.
func (v Value[T]) IsZero() bool { return !v.Set }

// Get returns the value and whether it is present and non-null.
func (v Value[T]) Get() (T, bool) {
	if v.Value == nil {
		var zero T
		return zero, false
	}
	return *v.Value, true
}

func (v *Value[T]) UnmarshalJSON(data []byte) error {
	v.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		v.Value = nil
		return nil
	}
	var t T
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	v.Value = &t
	return nil
}

func (v Value[T]) MarshalJSON() ([]byte, error) {
	if v.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*v.Value)
}
