package errors

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports a malformed attempt record: the offending field and
// the index of the record within the batch being validated. A single
// ValidationError aborts the whole batch; partial batches are never accepted.
type ValidationError struct {
	Field   string      `json:"field"`
	Index   int         `json:"index"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("attempt at index %d: field '%s' %s", e.Index, e.Field, e.Message)
}

// NewValidationError creates a validation error for one record in a batch.
func NewValidationError(field string, index int, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Index:   index,
		Message: message,
		Value:   value,
	}
}

// ParseError reports a transfer document that is not valid structured data or
// whose top-level shape is wrong. The original input is left untouched.
type ParseError struct {
	Reason string `json:"reason"`
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid transfer file: %s", e.Reason)
}

// NewParseError creates a parse error with a human-readable reason.
func NewParseError(reason string) *ParseError {
	return &ParseError{Reason: reason}
}

// FromFieldError converts the first go-playground field error into our
// validation error type, keyed to the record index that produced it.
func FromFieldError(err error, index int) *ValidationError {
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return NewValidationError(first.Field(), index, fieldErrorMessage(first), first.Value())
	}
	return NewValidationError("", index, err.Error(), nil)
}

func fieldErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "gte":
		return fmt.Sprintf("must be %s or greater", err.Param())
	default:
		return fmt.Sprintf("failed validation rule '%s'", err.Tag())
	}
}
