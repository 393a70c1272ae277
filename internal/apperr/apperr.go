// Package apperr classifies errors that are safe to show to the user
// who issued a command.
package apperr

import (
	"errors"
	"fmt"
)

// Kind groups user-facing errors by cause.
type Kind string

const (
	// Validation means the request was malformed. Nothing was changed.
	Validation Kind = "validation"

	// NotFound means a referenced record does not exist.
	NotFound Kind = "not_found"

	// Conflict means the request is invalid in the current state.
	Conflict Kind = "conflict"
)

// Error is a classified, user-facing error. Any error that is not an
// *Error (for example a store failure) is treated as internal.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New returns an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validationf returns a validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: Validation, Message: fmt.Sprintf(format, args...)}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err (or any error in its chain) is an *Error
// of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
