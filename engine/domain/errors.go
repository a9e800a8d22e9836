package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation and lookup failures. These are recoverable
// and are translated into plain-language replies before reaching a user.
var (
	ErrInvalidPartNumber    = errors.New("invalid part number")
	ErrMissingPartNumber    = errors.New("missing part number")
	ErrPartNotFound         = errors.New("part not found")
	ErrInvalidProduct       = errors.New("invalid product")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrUnsupportedAppliance = errors.New("unsupported appliance")
	ErrNotRepairRelated     = errors.New("not repair related")
)

// Internal invariant errors. These indicate a defect in the engine itself
// and are logged as errors, never shown to a user.
var (
	ErrIndexCorruption = errors.New("exact index and embedding index diverged")
	ErrCartCorruption  = errors.New("duplicate part number in cart")
)

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
