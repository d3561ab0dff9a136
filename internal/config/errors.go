package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig matches every configuration error via errors.Is.
var ErrInvalidConfig = errors.New("invalid configuration")

// Error reports one invalid configuration value.
type Error struct {
	Field  string
	Value  string
	Reason string
}

func (e *Error) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s=%q: %s", e.Field, e.Value, e.Reason)
}

func (e *Error) Unwrap() error { return ErrInvalidConfig }

func invalid(field, value, reason string) *Error {
	return &Error{Field: field, Value: value, Reason: reason}
}
