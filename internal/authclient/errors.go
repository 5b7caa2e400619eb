package authclient

import (
	"errors"
	"fmt"
)

// Machine codes carried by AuthError. Codes originating from the server
// are surfaced verbatim; these are the ones the client itself produces.
const (
	// CodeStateMismatch indicates the OAuth anti-forgery state check
	// failed. The flow is unrecoverable and must be restarted.
	CodeStateMismatch = "state_mismatch"
)

// AuthError is the typed error produced at the boundary where a network
// or protocol failure is first observed. It is never constructed for
// expected control flow ("not logged in" is a state, not an error).
type AuthError struct {
	// Message is the human-readable description.
	Message string

	// Code is the optional machine-readable code, either surfaced
	// verbatim from a structured server error body or produced locally
	// (e.g. CodeStateMismatch).
	Code string

	// Provider names the originating OAuth provider, when the failure
	// belongs to a provider-specific flow.
	Provider string

	// Status is the HTTP status code, or 0 for transport failures that
	// produced no response.
	Status int

	cause error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	switch {
	case e.Code != "" && e.Provider != "":
		return fmt.Sprintf("%s (code=%s, provider=%s)", e.Message, e.Code, e.Provider)
	case e.Code != "":
		return fmt.Sprintf("%s (code=%s)", e.Message, e.Code)
	case e.Status != 0:
		return fmt.Sprintf("%s (status=%d)", e.Message, e.Status)
	default:
		return e.Message
	}
}

// Unwrap returns the underlying cause for error chain inspection.
func (e *AuthError) Unwrap() error {
	return e.cause
}

// IsTransport reports whether the error represents a transport failure
// (no response reached the client). Timeouts are treated identically.
func (e *AuthError) IsTransport() bool {
	return e.Status == 0 && e.Code == ""
}

// NewTransportError wraps a transport-level failure. No machine code and
// no status are attached because no response was observed.
func NewTransportError(err error) *AuthError {
	return &AuthError{
		Message: "request failed: " + err.Error(),
		cause:   err,
	}
}

// AsAuthError extracts an *AuthError from an error chain.
func AsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// IsStateMismatch reports whether the error is the OAuth anti-forgery
// state check failure.
func IsStateMismatch(err error) bool {
	authErr, ok := AsAuthError(err)
	return ok && authErr.Code == CodeStateMismatch
}
