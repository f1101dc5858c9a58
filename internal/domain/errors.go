package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrUpstream    = errors.New("place provider failure")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failure")
	// ErrConflict is returned by stores when a unique key already exists.
	ErrConflict = errors.New("conflict")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// UpstreamError wraps a place-lookup failure. Status is the HTTP status seen
// from the provider, or 0 for transport errors and malformed payloads.
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("place provider: status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("place provider: %v", e.Err)
}

func (e *UpstreamError) Unwrap() []error { return []error{ErrUpstream, e.Err} }

// Persistence tags a raw storage error; not-found and conflict pass through untouched.
func Persistence(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
