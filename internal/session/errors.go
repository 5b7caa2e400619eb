package session

import "errors"

// ErrNotAuthenticated is returned when a token or user is requested and
// no session exists. Being logged out is a state, not a failure, so this
// is a sentinel rather than an AuthError.
var ErrNotAuthenticated = errors.New("not authenticated")

// errSuperseded is returned to refresh waiters whose refresh attempt was
// invalidated by a logout or a newer session (stale generation). The
// result of such an attempt must never touch shared state.
var errSuperseded = errors.New("session superseded")

// ExpiredError reports that a refresh failed and the session was lost.
// Most callers should not surface it as an error: the manager has already
// transitioned to Anonymous and the UI is expected to redirect to login.
type ExpiredError struct {
	cause error
}

// Error implements the error interface.
func (e *ExpiredError) Error() string {
	return "session expired"
}

// Unwrap returns the refresh failure that caused the session loss.
func (e *ExpiredError) Unwrap() error {
	return e.cause
}

// IsExpired reports whether the error marks a lost session.
func IsExpired(err error) bool {
	var expired *ExpiredError
	return errors.As(err, &expired)
}
