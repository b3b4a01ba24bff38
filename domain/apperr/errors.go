// Package apperr defines the error kinds returned by the task and project services.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure so callers can tell a missing resource from a denied one.
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindAuthorization  Kind = "authorization"
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindPersistence    Kind = "persistence"
	KindAuthentication Kind = "authentication"
	KindUnknown        Kind = "unknown"
)

// ReasonNotAuthorized is the reason attached to every policy denial.
const ReasonNotAuthorized = "NotAuthorized"

var kinds = []Kind{KindNotFound, KindAuthorization, KindValidation, KindConflict, KindPersistence, KindAuthentication}

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error renders the kind as a bracketed tag so it survives transports that only carry text.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports that a referenced resource does not exist.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbidden reports a policy denial.
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// Invalid reports a malformed input.
func Invalid(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a uniqueness violation.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Unauthenticated reports missing, invalid or expired credentials.
func Unauthenticated(format string, args ...any) *Error {
	return &Error{Kind: KindAuthentication, Message: fmt.Sprintf(format, args...)}
}

// Persistence wraps a storage failure.
func Persistence(err error, format string, args ...any) *Error {
	return &Error{Kind: KindPersistence, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf resolves the kind of err. Errors that crossed a text-only boundary are
// recognised by their bracketed tag.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if k, _ := firstTag(err.Error()); k != "" {
		return k
	}
	return KindUnknown
}

// firstTag finds the leftmost kind tag in msg. Tags appearing later belong to
// text quoted inside the message, not to the error itself.
func firstTag(msg string) (Kind, int) {
	var found Kind
	at := -1
	for _, k := range kinds {
		i := strings.Index(msg, "["+string(k)+"]")
		if i >= 0 && (at < 0 || i < at) {
			found, at = k, i
		}
	}
	return found, at
}

// Is reports whether err is of kind k.
func Is(err error, k Kind) bool {
	return KindOf(err) == k
}

// Message returns the human readable part of err without its tag or transport prefixes.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	msg := err.Error()
	k, i := firstTag(msg)
	if k == "" {
		return msg
	}
	rest := msg[i+len(k)+2:]
	return strings.TrimPrefix(rest, " ")
}

// Rebuild turns an error received from a remote call back into a classified *Error.
// Errors without a recognisable tag are returned unchanged.
func Rebuild(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	k := KindOf(err)
	if k == KindUnknown {
		return err
	}
	return &Error{Kind: k, Message: Message(err)}
}
