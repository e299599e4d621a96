// Package apperr is the error taxonomy shared by every engine. Each failure is
// a single *Error carrying its kind, a caller-facing message, optional field
// violations and the HTTP status it maps to.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindValidation    Kind = "validation"
	KindConflict      Kind = "conflict"
	KindAuth          Kind = "auth"
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	KindInternal      Kind = "internal"
)

type Violation struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type Error struct {
	Kind       Kind        `json:"-"`
	Message    string      `json:"message"`
	Status     int         `json:"status"`
	Violations []Violation `json:"violations,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches another *Error of the same kind. A target with a message only
// matches errors carrying that exact message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

func Validation(message string, violations ...Violation) *Error {
	return &Error{Kind: KindValidation, Message: message, Status: http.StatusUnprocessableEntity, Violations: violations}
}

func Conflict(message string, violations ...Violation) *Error {
	return &Error{Kind: KindConflict, Message: message, Status: http.StatusUnprocessableEntity, Violations: violations}
}

func Unauthenticated(message string) *Error {
	return &Error{Kind: KindAuth, Message: message, Status: http.StatusUnauthorized}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message, Status: http.StatusUnauthorized}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message, Status: http.StatusNotFound}
}

// Internal wraps an unexpected failure. The cause stays reachable through
// errors.Unwrap for logging but is never rendered to callers.
func Internal(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Kind: KindInternal, Message: "An error occurred", Status: http.StatusInternalServerError, cause: err}
}

// KindOf reports the kind of err, KindInternal for anything foreign.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
