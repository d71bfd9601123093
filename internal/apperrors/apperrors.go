// Package apperrors classifies failures so that entry points can map them to
// callable error codes and HTTP statuses in a single place.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups errors by how the caller should react to them.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not-found"
	KindPermission      Kind = "permission"
	KindUnauthenticated Kind = "unauthenticated"
	KindConflict        Kind = "conflict"
	KindTransient       Kind = "transient"
)

// Error carries a Kind together with the operation that produced it.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by Kind, so errors.Is(err, ErrNotFound) works for any
// *Error of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrPermission      = &Error{Kind: KindPermission}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrTransient       = &Error{Kind: KindTransient}
)

func newf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Validation reports malformed or missing input. It is raised before any
// network call is made.
func Validation(op, format string, args ...any) error {
	return newf(KindValidation, op, format, args...)
}

func NotFound(op, format string, args ...any) error {
	return newf(KindNotFound, op, format, args...)
}

func Permission(op, format string, args ...any) error {
	return newf(KindPermission, op, format, args...)
}

func Unauthenticated(op, format string, args ...any) error {
	return newf(KindUnauthenticated, op, format, args...)
}

func Conflict(op, format string, args ...any) error {
	return newf(KindConflict, op, format, args...)
}

// Transient wraps a collaborator failure that has no more specific kind.
func Transient(op string, err error, message string) error {
	return &Error{Kind: KindTransient, Op: op, Message: message, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain. Plain errors
// are treated as transient.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransient
}

// MessageOf returns the human readable part of err without the op prefix.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

func IsPermission(err error) bool { return KindOf(err) == KindPermission }

// Code returns the callable error code of err's kind.
func Code(err error) string {
	switch KindOf(err) {
	case KindValidation:
		return "invalid-argument"
	case KindNotFound:
		return "not-found"
	case KindPermission:
		return "permission-denied"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindConflict:
		return "already-exists"
	default:
		return "internal"
	}
}

// HTTPStatus returns the HTTP status that goes with err's kind.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindPermission:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
