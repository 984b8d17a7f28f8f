package preference

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Setting reads a preference as T, falling back to a default when the key is
// missing or holds a value that cannot be read as T.
type Setting[T any] struct {
	store        Store
	key          string
	defaultValue T
}

// NewSetting binds key in store to a typed accessor.
func NewSetting[T any](store Store, key string, defaultValue T) *Setting[T] {
	return &Setting[T]{store: store, key: key, defaultValue: defaultValue}
}

// Get returns the stored value or the default.
func (s *Setting[T]) Get() T {
	raw, ok := s.store.Get(s.key)
	if !ok {
		return s.defaultValue
	}
	v, ok := coerce[T](raw)
	if !ok {
		return s.defaultValue
	}
	return v
}

func (s *Setting[T]) Set(value T) error {
	return s.store.Set(s.key, value)
}

// Reset removes the stored value so Get returns the default again.
func (s *Setting[T]) Reset() error {
	return s.store.Remove(s.key)
}

// OptionalSetting reads a preference that may be absent.
type OptionalSetting[T any] struct {
	store Store
	key   string
}

// NewOptionalSetting binds key in store to an optional typed accessor.
func NewOptionalSetting[T any](store Store, key string) *OptionalSetting[T] {
	return &OptionalSetting[T]{store: store, key: key}
}

// Get returns the stored value. ok is false when the key is missing or its
// value cannot be read as T.
func (s *OptionalSetting[T]) Get() (value T, ok bool) {
	raw, found := s.store.Get(s.key)
	if !found {
		return value, false
	}
	return coerce[T](raw)
}

func (s *OptionalSetting[T]) Set(value T) error {
	return s.store.Set(s.key, value)
}

func (s *OptionalSetting[T]) Clear() error {
	return s.store.Remove(s.key)
}

// ComplexSetting stores an arbitrary value as a JSON string preference.
type ComplexSetting[T any] struct {
	store Store
	key   string
}

// NewComplexSetting binds key in store to a JSON-encoded accessor.
func NewComplexSetting[T any](store Store, key string) *ComplexSetting[T] {
	return &ComplexSetting[T]{store: store, key: key}
}

// Get decodes the stored value. A stored value that does not decode is an
// error rather than a missing value.
func (s *ComplexSetting[T]) Get() (value T, ok bool, err error) {
	raw, found := s.store.Get(s.key)
	if !found {
		return value, false, nil
	}
	encoded, isString := raw.(string)
	if !isString {
		return value, false, fmt.Errorf("preference %q: expected JSON string, got %T", s.key, raw)
	}
	if err := json.Unmarshal([]byte(encoded), &value); err != nil {
		var zero T
		return zero, false, fmt.Errorf("decoding preference %q: %w", s.key, err)
	}
	return value, true, nil
}

func (s *ComplexSetting[T]) Set(value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding preference %q: %w", s.key, err)
	}
	return s.store.Set(s.key, string(data))
}

func (s *ComplexSetting[T]) Clear() error {
	return s.store.Remove(s.key)
}

// coerce reads raw as T. Values that went through a YAML file come back as
// int, float64, string or bool, so anything that is not already a T is
// re-decoded through YAML.
func coerce[T any](raw any) (T, bool) {
	var out T
	if raw == nil {
		return out, false
	}
	if v, ok := raw.(T); ok {
		return v, true
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return out, false
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}
