package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the one error shape services return across the operation boundary.
// Handlers map it to the transport envelope; nothing else inspects provider or
// store error bodies.
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

func Unauthenticated(err error) *Error {
	return New(http.StatusUnauthorized, "unauthenticated", err)
}

func Forbidden(err error) *Error {
	return New(http.StatusForbidden, "forbidden", err)
}

func NotFound(err error) *Error {
	return New(http.StatusNotFound, "not_found", err)
}

func InvalidInput(err error) *Error {
	return New(http.StatusBadRequest, "invalid_input", err)
}

func ProviderUnavailable(err error) *Error {
	return New(http.StatusBadGateway, "provider_unavailable", err)
}

func RateLimited(err error) *Error {
	return New(http.StatusBadGateway, "rate_limited", err)
}

func StoreUnavailable(err error) *Error {
	return New(http.StatusServiceUnavailable, "store_unavailable", err)
}

// StatusOf resolves any error to a transport status and code. Errors that are
// not *Error collapse to a generic 500 so raw internals never leak.
func StatusOf(err error) (int, string) {
	var ae *Error
	if errors.As(err, &ae) {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return status, ae.Code
	}
	return http.StatusInternalServerError, "internal_error"
}
