// Package authclient is the stateless HTTP transport for the repfit auth
// backend.
//
// Each remote operation is one method taking plain request data and
// returning parsed response data or a typed *AuthError. The client holds
// no session state and never retries; session orchestration (refresh
// scheduling, single-flighting, storage) lives in internal/session.
package authclient
