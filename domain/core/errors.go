package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrRunNotFound     = fmt.Errorf("%w: run", ErrNotFound)
	ErrResultsNotFound = fmt.Errorf("%w: results", ErrNotFound)

	// Configuration errors (fatal on first use, never retried)
	ErrNotImplemented = errors.New("validation step not implemented")
	ErrNilScorer      = errors.New("adapter requires a scorer")

	// Data-shape errors (propagate uncaught, fatal to the run)
	ErrMissingField   = errors.New("batch output field missing")
	ErrShapeMismatch  = errors.New("tensor shape mismatch")
	ErrLengthMismatch = errors.New("per-sample length mismatch")
	ErrEmptyEpoch     = errors.New("epoch produced no outputs")

	// Threshold errors
	ErrNoObservations = errors.New("no observations accumulated")

	// Iteration sentinel, not a failure
	ErrEndOfData = errors.New("end of data")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

func NewMissingFieldError(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}

func NewShapeError(want, got []int) error {
	return fmt.Errorf("%w: want %v, got %v", ErrShapeMismatch, want, got)
}

func NewLengthMismatchError(field string, want, got int) error {
	return fmt.Errorf("%w: %s has %d entries, expected %d", ErrLengthMismatch, field, got, want)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrNotImplemented) ||
		errors.Is(err, ErrNilScorer)
}

func IsShapeError(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrShapeMismatch) ||
		errors.Is(err, ErrLengthMismatch)
}
