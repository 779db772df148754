package entities

import "fmt"

// ValidationError signals malformed planning input. It is the only error kind the
// engine surfaces to callers; every recoverable planning condition is reported
// through analytics instead.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for a named input field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
