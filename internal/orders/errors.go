package orders

import (
	"errors"
	"fmt"

	"habitta/internal/pricing"
)

// ValidationError reports the offending field of a rejected request.
type ValidationError = pricing.ValidationError

var (
	// ErrValidation signals malformed or out-of-range input.
	ErrValidation = pricing.ErrValidation
	// ErrProductNotFound signals an item referencing an unknown product.
	ErrProductNotFound = pricing.ErrProductNotFound
	// ErrInvalidStatus signals a status outside the persisted enumeration.
	ErrInvalidStatus = fmt.Errorf("%w: invalid status", ErrValidation)
	// ErrNotCancellable signals a cancel attempted outside the cancellable statuses.
	ErrNotCancellable = errors.New("order: not cancellable")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrUnauthorized indicates the operation needs an authenticated actor.
	ErrUnauthorized = errors.New("order: unauthorized")
	// ErrForbidden indicates the actor lacks permission for the operation.
	ErrForbidden = errors.New("order: forbidden")
	// ErrPersistence wraps failures of the underlying store.
	ErrPersistence = errors.New("order: persistence error")
	// ErrSequenceGeneration indicates the order number counter could not be advanced.
	ErrSequenceGeneration = errors.New("order: sequence generation failed")

	// ErrDuplicateOrderNumber is returned by stores when the unique order number index rejects an insert.
	ErrDuplicateOrderNumber = errors.New("order: duplicate order number")
	// ErrStatusConflict is returned by stores when a conditional status update matched no document.
	ErrStatusConflict = errors.New("order: status changed concurrently")
)

func invalidField(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func persistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
