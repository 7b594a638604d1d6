package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrRunNotFound      = fmt.Errorf("%w: run", ErrNotFound)
	ErrVariableNotFound = fmt.Errorf("%w: variable", ErrNotFound)

	// Validation errors
	ErrInvalidParameter = errors.New("invalid discovery parameter")
	ErrInvalidKnowledge = errors.New("invalid background knowledge")
	ErrShapeMismatch    = errors.New("matrix shape mismatch")
	ErrMissingValue     = errors.New("missing value in data matrix")
	ErrInsufficientData = errors.New("insufficient data for analysis")
)

// NewNotFoundError wraps ErrNotFound with the resource and id
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// NewParameterError reports a rejected discovery parameter
func NewParameterError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidParameter, field, reason)
}

// NewKnowledgeError reports malformed background knowledge
func NewKnowledgeError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidKnowledge, reason)
}

// IsNotFoundError reports whether err is any not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError reports whether err rejects the caller's input
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidParameter) ||
		errors.Is(err, ErrInvalidKnowledge) ||
		errors.Is(err, ErrShapeMismatch) ||
		errors.Is(err, ErrMissingValue) ||
		errors.Is(err, ErrInsufficientData)
}
