// Package oauthflow drives the redirect-based third-party login flow on
// top of the auth client.
//
// The backend owns provider configuration and issues both the
// authorization URL and the anti-forgery state token; this package's job
// is to park the state token locally between the two halves of the
// redirect dance and to enforce the state check on return. State tokens
// are single-use: the pending flow is consumed on completion whether the
// check passes or not.
package oauthflow
