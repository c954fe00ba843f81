package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the shared error type for command failures. Status carries the
// HTTP status the handlers respond with, Code a stable machine-readable
// identifier.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

const (
	CodeAuthentication = "authentication_error"
	CodeAuthorization  = "authorization_error"
	CodeNotFound       = "not_found"
	CodeInvalidState   = "invalid_state"
	CodeValidation     = "validation_error"
)

// Bad or missing credential. Connections are refused before any
// subscription is created.
func Authentication(format string, args ...any) *Error {
	return New(http.StatusUnauthorized, CodeAuthentication, fmt.Errorf(format, args...))
}

// Actor is not a participant or owner of the aggregate.
func Authorization(format string, args ...any) *Error {
	return New(http.StatusForbidden, CodeAuthorization, fmt.Errorf(format, args...))
}

func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf(format, args...))
}

// Operation is not valid in the aggregate's current state, e.g. responding
// to a non-pending offer or an undefined status transition.
func InvalidState(format string, args ...any) *Error {
	return New(http.StatusConflict, CodeInvalidState, fmt.Errorf(format, args...))
}

func Validation(format string, args ...any) *Error {
	return New(http.StatusBadRequest, CodeValidation, fmt.Errorf(format, args...))
}

func IsCode(err error, code string) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}
