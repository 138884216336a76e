package scrobble

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a backend failure into the fixed taxonomy the
// rest of the engine (and ultimately the chat layer) dispatches on.
type ErrorKind string

const (
	// KindAuthInvalid means the stored credentials were rejected; the
	// user has to re-link their account.
	KindAuthInvalid ErrorKind = "auth_invalid"

	// KindNotFound means the backend has no data for the request. The
	// aggregator normalizes this into an empty result.
	KindNotFound ErrorKind = "not_found"

	// KindRateLimited means the backend itself signalled throttling.
	KindRateLimited ErrorKind = "rate_limited"

	// KindThrottled means our own per-backend request budget is spent
	// and no cached entry was available.
	KindThrottled ErrorKind = "throttled"

	// KindUnavailable means the backend could not be reached or kept
	// returning server errors after retries.
	KindUnavailable ErrorKind = "backend_unavailable"

	// KindUnsupported means the backend has no equivalent of the
	// requested feature (e.g. loved tracks on Libre.fm).
	KindUnsupported ErrorKind = "unsupported"

	// KindTimeout means the per-call deadline expired before the
	// backend answered.
	KindTimeout ErrorKind = "timeout"
)

// Error is a classified backend error.
type Error struct {
	Kind    ErrorKind
	Backend BackendKind
	Message string
	err     error
}

// NewError creates a classified error without an underlying cause.
func NewError(kind ErrorKind, backend BackendKind, message string) *Error {
	return &Error{Kind: kind, Backend: backend, Message: message}
}

// WrapError creates a classified error wrapping an underlying cause.
func WrapError(kind ErrorKind, backend BackendKind, message string, err error) *Error {
	return &Error{Kind: kind, Backend: backend, Message: message, err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.err != nil {
		msg = e.err.Error()
	}
	if e.Backend != "" {
		return fmt.Sprintf("%s: %s: %s", e.Backend, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is matches two classified errors by kind, so errors.Is can be used
// with a bare NewError(kind, "", "") target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Temporary reports whether retrying the same request later may
// succeed without any user action.
func (e *Error) Temporary() bool {
	switch e.Kind {
	case KindRateLimited, KindThrottled, KindUnavailable, KindTimeout:
		return true
	default:
		return false
	}
}

// IsKind reports whether err is (or wraps) a classified error of the
// given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
