// Package apperr defines the typed error kinds the business layer returns
// for expected, caller-recoverable conditions. Anything that is not an
// *apperr.Error is treated as an internal failure by the transport layer.
package apperr

import "errors"

// Kind classifies an expected failure.
type Kind int

const (
	// KindInternal marks errors that do not carry a business meaning.
	KindInternal Kind = iota
	// KindAccessDenied — actor lacks branch access or role privilege.
	KindAccessDenied
	// KindNotFound — referenced entity does not exist or is inactive.
	KindNotFound
	// KindConflict — uniqueness violation (duplicate control or item).
	KindConflict
	// KindInvalidState — control is not in the required lifecycle state.
	KindInvalidState
	// KindEmptyControl — completing a control with zero line items.
	KindEmptyControl
	// KindValidation — malformed input.
	KindValidation
)

// Error is a business failure with a user-presentable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func AccessDenied(msg string) *Error { return newError(KindAccessDenied, msg) }
func NotFound(msg string) *Error     { return newError(KindNotFound, msg) }
func Conflict(msg string) *Error     { return newError(KindConflict, msg) }
func InvalidState(msg string) *Error { return newError(KindInvalidState, msg) }
func EmptyControl(msg string) *Error { return newError(KindEmptyControl, msg) }
func Validation(msg string) *Error   { return newError(KindValidation, msg) }

// KindOf extracts the kind of err, unwrapping as needed. Non-business
// errors report KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
