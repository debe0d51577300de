package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the error taxonomy shared by every layer
var (
	ErrNotFound     = errors.New("not found")
	ErrCorrupt      = errors.New("corrupt data")
	ErrValidation   = errors.New("validation failed")
	ErrIOFailure    = errors.New("I/O failure")
	ErrInvalidState = errors.New("invalid state")
)

// Project-level variants, matchable with errors.Is against both the
// specific and the general sentinel.
var (
	ErrProjectNotFound = fmt.Errorf("project %w", ErrNotFound)
	ErrProjectCorrupt  = fmt.Errorf("project file: %w", ErrCorrupt)
	ErrNoProject       = fmt.Errorf("no project loaded: %w", ErrInvalidState)
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// IOError wraps a failed disk operation on a specific path
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIOFailure
}
