// Package optional holds patch-payload field types that can tell a field that
// was never sent apart from one sent as JSON null.
package optional

import (
	"bytes"
	"encoding/json"
)

// Field is a three-state value: absent (Present == false), explicit null
// (Present == true, Value == nil) or set (Present == true, Value != nil).
type Field[T any] struct {
	Present bool
	Value   *T
}

// Of returns a Field set to v.
func Of[T any](v T) Field[T] {
	return Field[T]{Present: true, Value: &v}
}

// Null returns a Field explicitly set to null.
func Null[T any]() Field[T] {
	return Field[T]{Present: true}
}

func (f Field[T]) IsNull() bool {
	return f.Present && f.Value == nil
}

// UnmarshalJSON only runs when the key exists in the payload, which is what
// makes absence observable.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Present = true

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Value = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	f.Value = &v
	return nil
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.Value)
}
