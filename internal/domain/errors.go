package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrValidation      = errors.New("validation failed")
	ErrStorage         = errors.New("storage failure")
	ErrGeneration      = errors.New("acknowledgement generation failed")
	ErrDelivery        = errors.New("delivery failed")
	ErrPaymentCapture  = errors.New("payment capture failed")
	ErrProviderFailure = errors.New("provider failure")
)

// ValidationError reports a client supplied field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// StorageError wraps a persistence failure. It matches both ErrStorage and
// the underlying cause with errors.Is.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }
