// Package errs defines the error taxonomy shared by the price index and
// the symbol registry. Kinds are stable strings so transport adapters
// can map them onto status codes without depending on the packages
// that raise them.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies the category of a core error. It is deliberately a
// flat set of string codes, not a type per error, so new adapters can
// switch on it without importing every producer package.
type Kind string

const (
	InvalidValue     Kind = "invalid_value"
	EmptyBatch       Kind = "empty_batch"
	CapacityExceeded Kind = "capacity_exceeded"
	InsufficientData Kind = "insufficient_data"
	UnknownSymbol    Kind = "unknown_symbol"
	InvalidExponent  Kind = "invalid_exponent"
)

// Error wraps a Kind with a human-readable message. It supports
// errors.Is against any *Error of the same Kind (see Is) and errors.As
// for callers that want the Kind directly.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is reports whether target is an *Error with the same Kind, so
// errors.Is(err, errs.New(errs.UnknownSymbol, "")) works regardless of
// message text.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// New constructs an *Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err, if it (or something it wraps) is
// an *Error. The second return is false for errors outside this
// taxonomy, which the caller should treat as an internal bug.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// HTTPStatus maps a Kind to the HTTP status code the transport layer
// responds with. CapacityExceeded maps to 507 (Insufficient Storage);
// everything else the core can raise is a 400, except UnknownSymbol
// which is a 404.
func HTTPStatus(kind Kind) int {
	switch kind {
	case InvalidValue, EmptyBatch, InsufficientData, InvalidExponent:
		return http.StatusBadRequest
	case CapacityExceeded:
		return http.StatusInsufficientStorage
	case UnknownSymbol:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
