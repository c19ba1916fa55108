// Package service holds the business rules of the marketplace. Handlers
// call into it with an explicit principal and get back either a result or
// an error that maps to an HTTP status.
package service

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failure the caller can act on. Message is shown to clients
// as-is.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func badRequest(format string, args ...any) *Error {
	return &Error{Code: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func unauthorized(format string, args ...any) *Error {
	return &Error{Code: http.StatusUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) *Error {
	return &Error{Code: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

func forbidden(format string, args ...any) *Error {
	return &Error{Code: http.StatusForbidden, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) *Error {
	return &Error{Code: http.StatusConflict, Message: fmt.Sprintf(format, args...)}
}

// Code returns the status carried by err, or 0 when err is not a service
// error
func Code(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return 0
}
