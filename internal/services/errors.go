package services

import "fmt"

// ValidationError is a client error tied to one request field
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Code: "VALIDATION_ERROR", Field: field, Message: message}
}

// ConflictError reports a request that clashes with the current state
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func newConflictError(code, format string, args ...interface{}) *ConflictError {
	return &ConflictError{Code: code, Message: fmt.Sprintf(format, args...)}
}
