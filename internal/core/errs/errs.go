// Package errs defines the error kinds shared across the runtime.
//
// Every failure a caller can act on is either NotImplemented (a declared
// capability that is not built) or InvalidInput (caller-supplied data breaks a
// precondition). Match kinds with errors.Is against ErrNotImplemented and
// ErrInvalidInput.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	KindNotImplemented Kind = iota + 1
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindNotImplemented:
		return "not implemented"
	case KindInvalidInput:
		return "invalid input"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a classified runtime error.
type Error struct {
	Kind   Kind
	Detail string
}

var (
	// ErrNotImplemented matches every NotImplemented error.
	ErrNotImplemented = &Error{Kind: KindNotImplemented}
	// ErrInvalidInput matches every InvalidInput error.
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
)

// NotImplemented reports that feature was invoked but is not built.
func NotImplemented(feature string) *Error {
	return &Error{Kind: KindNotImplemented, Detail: feature}
}

// InvalidInput reports caller-supplied data that violates a precondition.
func InvalidInput(reason string) *Error {
	return &Error{Kind: KindInvalidInput, Detail: reason}
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Detail
}

// Is matches the detail-less kind sentinels only, so two InvalidInput errors
// with different reasons are not considered equal to each other.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Detail == "" && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error found by errors.As, which
// also walks joined and multierr-combined errors, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
