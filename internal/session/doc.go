// Package session owns the client-side session state machine:
// Anonymous -> Authenticating -> Authenticated -> Refreshing -> LoggedOut.
//
// The Manager orchestrates the auth transport and the token store. It is
// the sole writer of the store and the exclusive owner of the in-memory
// session; the UI layer consumes read-only Snapshot values, either pulled
// via Snapshot() or pushed through Subscribe().
//
// Concurrent refreshes are single-flighted: when several callers observe
// an expired access token at once, exactly one refresh request is issued
// and every waiter receives the same outcome. Each refresh attempt is
// tagged with a session generation; logout advances the generation so a
// late-arriving refresh result can never resurrect a cleared session.
//
// A proactive refresh timer fires a safety margin before the access
// token's expiry, so interactive calls rarely pay the refresh latency.
package session
