// Package fault defines the typed error variants used across the service.
//
// Services produce faults at the point of failure; the web layer is the
// single place where fault kinds are translated into HTTP status codes.
// Wrapping preserves the original message for logs while keeping the kind
// recoverable with errors.As.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a fault for the translation boundary.
type Kind int

const (
	// KindInternal is an unexpected failure; surfaced as an internal error.
	KindInternal Kind = iota
	// KindValidation is a missing or malformed caller input.
	KindValidation
	// KindNotFound means a referenced entity does not exist.
	KindNotFound
	// KindUnsupported means the requested operation is not implemented.
	KindUnsupported
	// KindStorage is an underlying persistence failure.
	KindStorage
)

// String returns the kind name for logs.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnsupported:
		return "unsupported"
	case KindStorage:
		return "storage"
	default:
		return "internal"
	}
}

// Error is a classified error. The zero Kind is internal.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}

	return e.Msg
}

// Unwrap exposes the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validationf creates a validation fault.
func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf creates a not-found fault.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Unsupportedf creates an unsupported-operation fault.
func Unsupportedf(format string, args ...any) error {
	return &Error{Kind: KindUnsupported, Msg: fmt.Sprintf(format, args...)}
}

// Storage wraps an underlying persistence error.
func Storage(msg string, err error) error {
	return &Error{Kind: KindStorage, Msg: msg, Err: err}
}

// Internal wraps an unexpected error, preserving its message for logs.
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf extracts the kind of err; unclassified errors are internal.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}

	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
