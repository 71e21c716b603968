package model

import (
	"errors"
	"fmt"
)

// ErrNotConfigured signals that a user has no semester configuration yet.
// It is an expected state, not a failure.
var ErrNotConfigured = errors.New("semester not configured")

// ValidationError is a structural or business-rule violation found before any I/O.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// StoreError reports that the external data collaborator failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStore reports whether err carries a StoreError.
func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
