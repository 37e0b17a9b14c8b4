package apperror

import (
	"errors"
	"net/http"
)

// AppError is a custom error type that includes an HTTP status code and an optional field name.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 422, 404)
	Message string // User-facing error message
	Field   string // Input field the error refers to, set for validation errors
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation reports a rejected input value.
func Validation(field, message string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Message: message,
		Field:   field,
	}
}

// Contention reports that a shared resource stayed busy. Callers may retry.
func Contention(message string, err error) *AppError {
	return Wrap(err, http.StatusServiceUnavailable, message)
}

// NotFound reports a missing resource addressed directly by the caller.
func NotFound(message string) *AppError {
	return New(http.StatusNotFound, message)
}

// Forbidden reports a caller lacking the scope or ownership for an operation.
func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, message)
}

// IsValidation reports whether err is a field-scoped validation error.
func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == http.StatusUnprocessableEntity
}

// IsContention reports whether err is a retryable contention error.
func IsContention(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == http.StatusServiceUnavailable
}

// FieldOf returns the field a validation error refers to.
func FieldOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
