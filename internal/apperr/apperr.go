// Package apperr defines the outcome kinds the core engines report to the
// transport layer. Handlers map kinds to HTTP status codes in one place;
// nothing in internal/ imports net/http for error signaling.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error outcome.
type Kind int

const (
	// KindInternal covers storage and other infrastructure failures. Its
	// details are logged, never returned to clients.
	KindInternal Kind = iota
	// KindNotAuthenticated means no principal was resolved for the request.
	KindNotAuthenticated
	// KindNotAuthorized means the principal lacks reach or role for the operation.
	KindNotAuthorized
	// KindNotFound means the target user, record, or delegation does not exist.
	KindNotFound
	// KindInvalidArgument means a business invariant on the input failed.
	KindInvalidArgument
	// KindConflict means a uniqueness constraint was hit outside the upsert path.
	KindConflict
)

// Error is a kinded error with a client-safe message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the kind from err, defaulting to KindInternal for
// unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the client-safe message for err. Unclassified errors get a
// generic message so storage details never leak.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal error"
}

func NotAuthenticated(msg string) error { return &Error{Kind: KindNotAuthenticated, Msg: msg} }
func NotAuthorized(msg string) error    { return &Error{Kind: KindNotAuthorized, Msg: msg} }
func NotFound(msg string) error         { return &Error{Kind: KindNotFound, Msg: msg} }
func InvalidArgument(msg string) error  { return &Error{Kind: KindInvalidArgument, Msg: msg} }
func Conflict(msg string) error         { return &Error{Kind: KindConflict, Msg: msg} }

// Internalf wraps an infrastructure failure with context for the logs.
func Internalf(format string, args ...interface{}) error {
	return &Error{Kind: KindInternal, Msg: "internal error", Err: fmt.Errorf(format, args...)}
}

// Internal wraps err as an infrastructure failure.
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: "internal error", Err: fmt.Errorf("%s: %w", msg, err)}
}
