package session

import (
	"time"

	"repfit/internal/authclient"
)

// State represents the current authentication state of the session manager.
type State int

const (
	// Anonymous means no session exists. This is the initial state.
	Anonymous State = iota

	// Authenticating means a login or register call is in flight.
	Authenticating

	// Authenticated means a valid session is present and the access
	// token has not expired.
	Authenticated

	// Refreshing means the access token expired (or is about to) and a
	// refresh call is in flight.
	Refreshing

	// LoggedOut is terminal for the current session; the manager
	// re-enters Anonymous once storage is cleared.
	LoggedOut
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	case LoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// Snapshot is the read-only view of the session handed to the UI layer.
// It is a value copy; holders cannot mutate manager state through it.
type Snapshot struct {
	// State is the session state at the time of the snapshot.
	State State

	// User is the authenticated user, or nil.
	User *authclient.User

	// Expiry is the access token's computed expiry, zero when anonymous.
	Expiry time.Time
}
