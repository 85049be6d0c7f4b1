package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by how the portal reacts to it.
type Kind string

const (
	KindUnreachable    Kind = "UNREACHABLE"     // no response from the backend
	KindTimeout        Kind = "TIMEOUT"         // client-side deadline hit
	KindSessionExpired Kind = "SESSION_EXPIRED" // 401 on an authenticated call
	KindApplication    Kind = "APPLICATION"     // backend answered success=false
	KindValidation     Kind = "VALIDATION"      // client-side field check, never reaches the network
)

// String returns the string representation of the Kind.
func (kind Kind) String() string {
	return string(kind)
}

// Error is the single error type surfaced to controllers.
type Error struct {
	Kind    Kind
	Message string // user-facing text, may be empty for Unreachable/Timeout/SessionExpired
	Status  int    // HTTP status when a response was received
	Err     error  // underlying cause
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind, so errors.Is(err, failure.ErrTimeout) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

var (
	ErrUnreachable    = &Error{Kind: KindUnreachable}
	ErrTimeout        = &Error{Kind: KindTimeout}
	ErrSessionExpired = &Error{Kind: KindSessionExpired}
)

// Unreachable wraps a transport error.
func Unreachable(err error) *Error {
	return &Error{Kind: KindUnreachable, Err: err}
}

// Timeout wraps a deadline error.
func Timeout(err error) *Error {
	return &Error{Kind: KindTimeout, Err: err}
}

// SessionExpired reports a 401 on an authenticated call.
func SessionExpired(status int) *Error {
	return &Error{Kind: KindSessionExpired, Status: status}
}

// Application carries a server-supplied (or fallback) message.
func Application(status int, message string) *Error {
	return &Error{Kind: KindApplication, Status: status, Message: message}
}

// Validation carries a localized inline message for a client-side check that rejected input.
func Validation(err error, message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: err}
}

// KindOf returns the Kind of err, or "" when err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the user-facing message carried by err, if any.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
