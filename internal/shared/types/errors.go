package types

import (
	"errors"
	"fmt"
)

// Kind classifies failures so the orchestrator can decide how to surface them
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindNotFound          Kind = "not_found"
	KindParse             Kind = "parse_error"
	KindIO                Kind = "io_error"
	KindPortalUnavailable Kind = "portal_unavailable"
	KindPortal            Kind = "portal_error"
	KindIcon              Kind = "icon_error"
	KindEngineInit        Kind = "engine_init_failed"
	KindUnknown           Kind = "unknown"
)

// Error is a typed failure carrying the operation and, for input errors,
// the offending field.
type Error struct {
	Kind  Kind
	Op    string
	Field string
	Err   error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, ErrNotFound) works
// for any not-found error regardless of operation.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Field == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons
var (
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrParse             = &Error{Kind: KindParse}
	ErrIO                = &Error{Kind: KindIO}
	ErrPortalUnavailable = &Error{Kind: KindPortalUnavailable}
	ErrPortal            = &Error{Kind: KindPortal}
	ErrIcon              = &Error{Kind: KindIcon}
	ErrEngineInit        = &Error{Kind: KindEngineInit}
)

// Wrap attaches a kind and operation to err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a typed error from a format string
func Errorf(kind Kind, op string, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// FieldError builds an invalid-input error for a named form field
func FieldError(op, field, message string) error {
	return &Error{Kind: KindInvalidInput, Op: op, Field: field, Err: errors.New(message)}
}

// KindOf returns the kind of the outermost typed error in the chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if err == nil {
		return ""
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind anywhere in its chain
func IsKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}

// FieldOf returns the offending field of an invalid-input error, if any
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

// Message returns the innermost human-readable message of a typed error
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
