package api

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned for any HTTP 401. Callers send the user back
// to the login flow and never retry.
var ErrUnauthenticated = errors.New("not authenticated")

// StatusError is a non-2xx response other than 401.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// Error is a `{success: false}` envelope.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return "request failed"
	}
	return e.Message
}

// DecodeError means the body matched neither a bare payload nor the
// `{success, data, message}` envelope.
type DecodeError struct {
	Route string
	Body  string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Route, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
