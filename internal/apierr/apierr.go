// Package apierr defines the error taxonomy for remote calls.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Type string

const (
	TypeTransport    Type = "TRANSPORT_ERROR"
	TypeUnauthorized Type = "UNAUTHORIZED"
	TypeNotFound     Type = "NOT_FOUND"
	TypeDecode       Type = "DECODE_ERROR"
)

// Error is a typed remote-call error. Status is zero when the request never
// produced an HTTP response.
type Error struct {
	Type    Type   `json:"type"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// NewTransport wraps a failure to reach the backend at all.
func NewTransport(err error) *Error {
	return &Error{
		Type:    TypeTransport,
		Message: fmt.Sprintf("request failed: %v", err),
		cause:   err,
	}
}

// NewStatus maps a non-2xx response to a typed error.
func NewStatus(status int, body string) *Error {
	t := TypeTransport
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		t = TypeUnauthorized
	case http.StatusNotFound:
		t = TypeNotFound
	}
	msg := fmt.Sprintf("unexpected status %d", status)
	if body != "" {
		msg = fmt.Sprintf("unexpected status %d: %s", status, body)
	}
	return &Error{Type: t, Status: status, Message: msg}
}

// NewDecode wraps a response-body parse failure.
func NewDecode(err error) *Error {
	return &Error{
		Type:    TypeDecode,
		Message: fmt.Sprintf("decode response: %v", err),
		cause:   err,
	}
}

// IsType reports whether err is an *Error of the given type.
func IsType(err error, t Type) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Type == t
	}
	return false
}
