// Package errors provides structured error types used across the application.
// We prefer these over raw fmt.Errorf strings to enable reliable checks with
// errors.Is / errors.As and to carry minimal context about the failure.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind classifies an error for callers that branch on the failure category
// (HTTP status mapping, sub-batch rollback logging).
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInputParse
	KindUnauthenticated
	KindUnauthorized
	KindNotFound
	KindAuthentication
	KindDatabase
)

func (k Kind) String() string {
	switch k {
	case KindInputParse:
		return "input_parse"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindAuthentication:
		return "authentication"
	case KindDatabase:
		return "database"
	default:
		return "unknown"
	}
}

// Error is the single structured error type. Keep fields minimal.
type Error struct {
	Kind Kind
	Op   string // where it happened (package.Function)
	Msg  string // human friendly message (no PII)
	Err  error  // underlying cause (optional)
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Op == "" && e.Msg == "":
		return e.Kind.String()
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Op, e.Msg, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Msg)
	}
}

func (e *Error) Unwrap() error     { return e.Err }
func (e *Error) Operation() string { return e.Op }
func (e *Error) Message() string   { return e.Msg }
func (e *Error) Context() map[string]any {
	return map[string]any{"op": e.Op, "msg": e.Msg, "kind": e.Kind.String()}
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of Op/Msg.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Kind != KindUnknown && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
// Example: if errors.Is(err, errs.ErrNotFound) { ... }
var (
	ErrInputParse      = &Error{Kind: KindInputParse}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrUnauthorized    = &Error{Kind: KindUnauthorized}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrAuthentication  = &Error{Kind: KindAuthentication}
	ErrDB              = &Error{Kind: KindDatabase}
)

func newKind(kind Kind, op, msg string, err error) error {
	return errors.WithStackDepth(&Error{Kind: kind, Op: op, Msg: msg, Err: err}, 2)
}

func NewInputParse(op, msg string, err error) error {
	return newKind(KindInputParse, op, msg, err)
}

func NewUnauthenticated(op, msg string) error {
	return newKind(KindUnauthenticated, op, msg, nil)
}

func NewUnauthorized(op, msg string) error {
	return newKind(KindUnauthorized, op, msg, nil)
}

func NewNotFound(op, msg string) error {
	return newKind(KindNotFound, op, msg, nil)
}

func NewAuthentication(op, msg string) error {
	return newKind(KindAuthentication, op, msg, nil)
}

// NewDB wraps a storage failure. A nil err still produces an error so callers
// can report "affected 0 rows" style conditions.
func NewDB(op, msg string, err error) error {
	return newKind(KindDatabase, op, msg, err)
}

// KindOf returns the Kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err matches target. Kept so callers importing this
// package as errs do not need a second errors import for simple checks.
func Is(err, target error) bool { return errors.Is(err, target) }

// As is errors.As from cockroachdb/errors.
func As(err error, target any) bool { return errors.As(err, target) }
