package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an operation failure for callers and for HTTP mapping.
type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindInvalidTransition Kind = "invalid_transition"
	KindConflict          Kind = "conflict"
	KindStoreClosed       Kind = "store_closed"
	KindInternal          Kind = "internal"
)

// Error is the error type crossing the service boundary. Every user-visible
// failure is one of these; anything else is wrapped as KindInternal at the
// API edge.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func WrapError(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the failure kind, defaulting to KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

func Validationf(format string, args ...any) *Error {
	return NewError(KindValidation, format, args...)
}

func Conflictf(format string, args ...any) *Error {
	return NewError(KindConflict, format, args...)
}

var ErrOrderNotFound = NewError(KindNotFound, "order not found")

// InvalidTransitionError names both ends of the rejected edge.
func InvalidTransitionError(from, to Status) *Error {
	return NewError(KindInvalidTransition, "cannot transition order from %q to %q", from, to)
}

// InvalidPaymentTransitionError is the payment machine's counterpart.
func InvalidPaymentTransitionError(from, to PaymentStatus) *Error {
	return NewError(KindInvalidTransition, "cannot move payment from %q to %q", from, to)
}
