// Package apperror defines the error kinds surfaced to callers of the
// invitation service. Errors carry an HTTP status and a stable code; the code
// is what errors.Is compares, so copies made with WithMessage or WithInternal
// still match the sentinel they came from.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents an application error with HTTP status and error code
type Error struct {
	HTTPStatus int
	Code       string
	Message    string
	Internal   error
	Details    map[string]any
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the internal error
func (e *Error) Unwrap() error {
	return e.Internal
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithInternal returns a copy of the error with an internal error attached
func (e *Error) WithInternal(err error) *Error {
	c := *e
	c.Internal = err
	return &c
}

// WithMessage returns a copy of the error with a custom message
func (e *Error) WithMessage(message string) *Error {
	c := *e
	c.Message = message
	return &c
}

// WithDetails returns a copy of the error with details attached
func (e *Error) WithDetails(details map[string]any) *Error {
	c := *e
	c.Details = details
	return &c
}

// New creates a new application error
func New(status int, code, message string) *Error {
	return &Error{
		HTTPStatus: status,
		Code:       code,
		Message:    message,
	}
}

var (
	ErrValidation   = New(http.StatusUnprocessableEntity, "validation_error", "Validation failed")
	ErrBadRequest   = New(http.StatusBadRequest, "bad_request", "Invalid request")
	ErrUnauthorized = New(http.StatusUnauthorized, "unauthorized", "Authentication required")
	ErrForbidden    = New(http.StatusForbidden, "forbidden", "Access denied")
	ErrNotFound     = New(http.StatusNotFound, "not_found", "Resource not found")
	ErrConflict     = New(http.StatusConflict, "conflict", "Resource already exists")
	ErrUpload       = New(http.StatusBadGateway, "upload_error", "Upload failed")
	ErrTransport    = New(http.StatusServiceUnavailable, "transport_error", "Upstream service unavailable")
	ErrInternal     = New(http.StatusInternalServerError, "internal_error", "An internal error occurred")
)

// NewValidation creates a validation error listing the offending fields.
func NewValidation(message string, fields map[string]string) *Error {
	e := ErrValidation.WithMessage(message)
	if len(fields) == 0 {
		return e
	}
	details := make(map[string]any, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	return e.WithDetails(details)
}

// NewNotFound creates a not found error for a resource type
func NewNotFound(resourceType string) *Error {
	return ErrNotFound.WithMessage(resourceType + " not found")
}

// NewInternal creates an internal error with a message and wrapped error
func NewInternal(message string, err error) *Error {
	return ErrInternal.WithMessage(message).WithInternal(err)
}

// As returns the *Error in err's chain, or nil.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
