package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a request rejected before any store write.
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyFavorited = errors.New("item already in favorites")
)

// ValidationError names the offending field. It matches ErrInvalidInput
// with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
