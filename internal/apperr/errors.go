// Package apperr holds the error kinds shared by the service layer and the
// HTTP handlers.
package apperr

import (
	"errors"
	"strings"
)

var (
	// repository errors
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already exists")

	// service errors
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrResetTokenMismatch = errors.New("temporary password does not match")
	ErrSessionNotFound    = errors.New("session not found")
)

// FieldError is one failed rule for one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ValidationError carries field-keyed messages. It is returned before any
// mutation is attempted.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field builds a ValidationError for a single field.
func Field(field, tag, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message, Type: tag}}}
}

// OperationError is a generic failure of an authorised, validated operation.
// Message is safe to show; the cause is kept for logs only.
type OperationError struct {
	Message string
	Err     error
}

func (e *OperationError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *OperationError) Unwrap() error { return e.Err }

// Operation wraps err in an OperationError with a caller-facing message.
func Operation(message string, err error) *OperationError {
	return &OperationError{Message: message, Err: err}
}

// Has reports whether field already failed a rule. A nil receiver has no
// failures.
func (e *ValidationError) Has(field string) bool {
	if e == nil {
		return false
	}
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Append adds a failure for field, allocating the error when e is nil.
func Append(e *ValidationError, field, tag, message string) *ValidationError {
	if e == nil {
		return Field(field, tag, message)
	}
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message, Type: tag})
	return e
}
