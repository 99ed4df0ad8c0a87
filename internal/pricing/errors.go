package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or out-of-range input.
	ErrValidation = errors.New("validation error")
	// ErrProductNotFound marks a product reference that does not resolve in the catalog.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidAdjustment marks a negative order-level adjustment.
	ErrInvalidAdjustment = errors.New("invalid adjustment")
)

// ValidationError reports a single offending field.
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

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InvalidAdjustmentError is a ValidationError raised by the totals aggregator.
type InvalidAdjustmentError struct {
	Field string
}

func (e *InvalidAdjustmentError) Error() string {
	return fmt.Sprintf("%s: must not be negative", e.Field)
}

func (e *InvalidAdjustmentError) Is(target error) bool {
	return target == ErrInvalidAdjustment || target == ErrValidation
}
