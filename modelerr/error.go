// Package modelerr defines the typed error kinds raised by the model,
// registry, factory, track and replicate packages.
//
// Errors carry a closed set of Kind values so callers can dispatch on
// failure category with errors.Is/errors.As rather than string matching.
package modelerr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error for programmatic handling via errors.Is
// against the per-kind sentinel below.
type Kind uint8

const (
	// TypeMismatch indicates a field value failed its declared type check.
	TypeMismatch Kind = iota
	// InvariantViolation indicates a structural invariant was violated
	// (e.g. a Model adopted by two parents, a required field left unset).
	InvariantViolation
	// StaleUpdate indicates an incoming commit's baseVersion predates the
	// tracker's trimmed history and cannot be reconciled.
	StaleUpdate
	// UnknownType indicates a Factory was asked to construct a type it has
	// no ClassDef registered for.
	UnknownType
	// UseAfterDestroy indicates an operation was attempted on a Model or
	// Tracker past its destroy() call.
	UseAfterDestroy
	// ReferenceUnresolved indicates a {gid} reference could not be resolved
	// against the owning Registry.
	ReferenceUnresolved
	// NotFoundPath indicates a dotted path did not resolve to a Field.
	NotFoundPath
)

// String returns a human-readable name for the error kind.
func (k Kind) String() string {
	switch k {
	case TypeMismatch:
		return "type mismatch"
	case InvariantViolation:
		return "invariant violation"
	case StaleUpdate:
		return "stale update"
	case UnknownType:
		return "unknown type"
	case UseAfterDestroy:
		return "use after destroy"
	case ReferenceUnresolved:
		return "reference unresolved"
	case NotFoundPath:
		return "not found path"
	default:
		return "unknown"
	}
}

// Per-kind sentinels. errors.Is(err, modelerr.ErrStaleUpdate) works for any
// *Error carrying that kind, including ones built with a wrapped cause.
var (
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrInvariantViolation  = errors.New("invariant violation")
	ErrStaleUpdate         = errors.New("stale update")
	ErrUnknownType         = errors.New("unknown type")
	ErrUseAfterDestroy     = errors.New("use after destroy")
	ErrReferenceUnresolved = errors.New("reference unresolved")
	ErrNotFoundPath        = errors.New("not found path")
)

func sentinelFor(k Kind) error {
	switch k {
	case TypeMismatch:
		return ErrTypeMismatch
	case InvariantViolation:
		return ErrInvariantViolation
	case StaleUpdate:
		return ErrStaleUpdate
	case UnknownType:
		return ErrUnknownType
	case UseAfterDestroy:
		return ErrUseAfterDestroy
	case ReferenceUnresolved:
		return ErrReferenceUnresolved
	case NotFoundPath:
		return ErrNotFoundPath
	default:
		return nil
	}
}

// Error is the typed domain error returned by this module's components.
// Path and Field are populated when the failure can be localized; either
// may be empty.
type Error struct {
	Kind  Kind
	Path  string
	Field string
	Cause error
}

// New builds an *Error with the given kind and a formatted message as its
// cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Cause: fmt.Errorf(format, args...)}
}

// Wrap builds an *Error with the given kind, wrapping an existing cause.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

func (e *Error) Error() string {
	loc := e.Path
	if loc == "" {
		loc = e.Field
	}
	if loc != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s at %q: %s", e.Kind, loc, e.Cause)
		}
		return fmt.Sprintf("%s at %q", e.Kind, loc)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Cause)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether err matches one of this package's per-kind sentinels.
// It lets callers write errors.Is(err, modelerr.ErrStaleUpdate) regardless
// of the wrapped cause or localization fields.
func (e *Error) Is(target error) bool {
	return sentinelFor(e.Kind) == target
}

// WithPath returns a copy of e with Path set, useful for adding location
// context as an error propagates up through nested Models.
func (e *Error) WithPath(path string) *Error {
	cp := *e
	cp.Path = path
	return &cp
}

// WithField returns a copy of e with Field set.
func (e *Error) WithField(field string) *Error {
	cp := *e
	cp.Field = field
	return &cp
}
