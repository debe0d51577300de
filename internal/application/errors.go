package application

import (
	"errors"

	"yololabel/internal/domain"
)

// Sentinel errors re-exported for adapters
var (
	ErrNotFound        = domain.ErrNotFound
	ErrCorrupt         = domain.ErrCorrupt
	ErrValidation      = domain.ErrValidation
	ErrIOFailure       = domain.ErrIOFailure
	ErrInvalidState    = domain.ErrInvalidState
	ErrProjectNotFound = domain.ErrProjectNotFound
	ErrNoProject       = domain.ErrNoProject
	ErrClosed          = errors.New("project manager closed")
)

// ValidationError represents a validation failure with details
type ValidationError = domain.ValidationError

// IOError wraps a failed disk operation
type IOError = domain.IOError
