// Package apperr is the error taxonomy shared by the store, the consignment
// core and the HTTP layer. Every handler-facing error carries a stable Kind and
// a message that is safe to show to the caller.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-readable error category
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindConsistency  Kind = "consistency"
	KindUnavailable  Kind = "unavailable"
	KindForbidden    Kind = "forbidden"
	KindUnauthorized Kind = "unauthorized"
)

// Error is an application error with a kind, a caller-safe message and an optional cause
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed or missing input
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing parcel, warehouse, item type or ledger
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a duplicate unique key
func Conflict(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...), Err: err}
}

// Consistency reports an already-inconsistent state found mid-operation
func Consistency(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindConsistency, Message: fmt.Sprintf(format, args...), Err: err}
}

// Unavailable wraps a transient store failure
func Unavailable(err error) *Error {
	return &Error{Kind: KindUnavailable, Message: "service temporarily unavailable", Err: err}
}

// Forbidden reports an actor without access to the target
func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized reports missing or invalid credentials
func Unauthorized(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err; errors outside the taxonomy count as unavailable
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnavailable
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the caller-safe message of err
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "service temporarily unavailable"
}

// HTTPStatus maps a kind to its response status code
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConsistency:
		return http.StatusInternalServerError
	default:
		return http.StatusServiceUnavailable
	}
}
