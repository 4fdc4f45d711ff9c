package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error pins an HTTP status and a stable code onto a cause. Handlers use it for
// failures that originate at the transport layer (bad forms, bad query values).
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

func BadRequest(code string, format string, args ...any) *Error {
	return New(http.StatusBadRequest, code, fmt.Errorf(format, args...))
}

func Unavailable(code string, msg string) *Error {
	return New(http.StatusServiceUnavailable, code, errors.New(msg))
}

// Internal hides err behind a generic code; the cause stays reachable for logs.
func Internal(err error) *Error {
	return New(http.StatusInternalServerError, "internal", err)
}

// StatusOf reports the status carried by err, or 0 when err carries none.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}
