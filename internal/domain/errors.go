package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrAssistanceLimit    = errors.New("Maximum assistance limit reached (3 bills per year)")
	ErrInsufficientFunds  = errors.New("Insufficient funds in pool")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrPaymentsDisabled   = errors.New("payments are not configured")
	ErrDuplicateOperation = errors.New("duplicate operation")
	ErrSlugExhausted      = errors.New("could not generate a unique campaign slug")
)

// ValidationError carries a human readable reason while still matching ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid is shorthand for constructing a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
