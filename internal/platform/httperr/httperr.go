// Package httperr defines the error taxonomy shared by all domain
// services and the echo error handler that maps it onto HTTP status
// codes. Services return these errors; handlers never build status
// codes by hand.
package httperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the failure classes the API
// exposes to clients.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindStorage
)

// Error carries a client-safe message plus an optional wrapped cause.
// The cause is logged server-side and never serialized to the client.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the client-safe message for the error.
func (e *Error) Message() string { return e.Msg }

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Validation reports malformed or missing input. Raised before any
// write, so it never leaves partial state behind.
func Validation(format string, args ...interface{}) *Error {
	return newf(KindValidation, format, args...)
}

// Auth reports a missing, malformed, expired or unverifiable token, or
// wrong credentials at login.
func Auth(format string, args ...interface{}) *Error {
	return newf(KindAuth, format, args...)
}

// Forbidden reports an authenticated identity that lacks the role or
// ownership required for the operation.
func Forbidden(format string, args ...interface{}) *Error {
	return newf(KindForbidden, format, args...)
}

// NotFound reports a referenced entity that does not exist.
func NotFound(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

// Conflict reports a uniqueness violation or a delete blocked by a
// still-referencing row.
func Conflict(format string, args ...interface{}) *Error {
	return newf(KindConflict, format, args...)
}

// Storage wraps any other storage or transaction failure. The wrapped
// error is for logs only; clients see a generic message.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Msg: "internal storage error", Err: err}
}

// KindOf extracts the Kind from an error chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
