// Package apperr defines the service-wide error taxonomy. Every error that
// crosses a component boundary is either one of these or gets wrapped into one
// at the boundary; the HTTP layer writes the code straight into the response.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an error with an HTTP status code and optional structured details.
type Error struct {
	Code    int            `json:"code"`
	Message string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// WithDetails returns a copy of the error carrying the given details.
func (e *Error) WithDetails(details map[string]any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details}
}

// BadRequest reports malformed input.
func BadRequest(message string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: message}
}

// Unauthorized reports a missing or invalid principal.
func Unauthorized(message string) *Error {
	return &Error{Code: http.StatusUnauthorized, Message: message}
}

// Forbidden reports a known principal that is denied access.
func Forbidden(message string) *Error {
	return &Error{Code: http.StatusForbidden, Message: message}
}

// NotFound reports a missing or not-visible entity.
func NotFound(message string) *Error {
	return &Error{Code: http.StatusNotFound, Message: message}
}

// Conflict reports a uniqueness violation.
func Conflict(message string) *Error {
	return &Error{Code: http.StatusConflict, Message: message}
}

// Validation reports a semantic field constraint failure.
func Validation(message string) *Error {
	return &Error{Code: http.StatusUnprocessableEntity, Message: message}
}

// TooManyRequests reports rate limiting.
func TooManyRequests(message string) *Error {
	return &Error{Code: http.StatusTooManyRequests, Message: message}
}

// Internal reports an unexpected failure.
func Internal(message string) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: message}
}

// ServiceUnavailable reports an unreachable downstream dependency.
func ServiceUnavailable(message string) *Error {
	return &Error{Code: http.StatusServiceUnavailable, Message: message}
}

// From extracts the taxonomy error wrapped in err. Unclassified errors become
// Internal so that raw driver messages never leak to clients.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal server error")
}

// CodeOf returns the HTTP status code for err.
func CodeOf(err error) int {
	return From(err).Code
}
