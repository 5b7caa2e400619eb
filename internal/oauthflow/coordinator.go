package oauthflow

import (
	"context"
	"crypto/subtle"
	"time"

	"repfit/internal/authclient"
	"repfit/internal/session"
	"repfit/pkg/logging"
)

// OAuthAPI is the slice of the auth client the coordinator depends on.
type OAuthAPI interface {
	ListProviders(ctx context.Context) (*authclient.ProvidersResponse, error)
	BeginAuthorization(ctx context.Context, provider string) (*authclient.AuthorizationResponse, error)
	ExchangeCode(ctx context.Context, provider, code string) (*authclient.AuthResponse, error)
}

// Coordinator drives the redirect-based third-party login flow: it
// obtains an authorization URL plus one-time state token from the
// backend, parks the state locally while the user visits the provider,
// and on return validates the state before exchanging the authorization
// code. A successful exchange hands the session to the session manager
// exactly as a password login would.
type Coordinator struct {
	client   OAuthAPI
	flows    *FlowStore
	sessions *session.Manager
}

// NewCoordinator creates a coordinator over the given client, flow store
// and session manager.
func NewCoordinator(client OAuthAPI, flows *FlowStore, sessions *session.Manager) *Coordinator {
	return &Coordinator{
		client:   client,
		flows:    flows,
		sessions: sessions,
	}
}

// ListProviders returns the OAuth providers the backend is configured
// with.
func (c *Coordinator) ListProviders(ctx context.Context) (*authclient.ProvidersResponse, error) {
	return c.client.ListProviders(ctx)
}

// Begin starts an authorization flow for the provider. The returned URL
// is where the caller must send the user; the one-time state token is
// persisted locally until the flow completes.
func (c *Coordinator) Begin(ctx context.Context, provider string) (string, error) {
	resp, err := c.client.BeginAuthorization(ctx, provider)
	if err != nil {
		return "", err
	}

	flow := &PendingFlow{
		Provider:  provider,
		State:     resp.State,
		CreatedAt: time.Now(),
	}
	if err := c.flows.Save(flow); err != nil {
		return "", &authclient.AuthError{
			Message:  "failed to persist authorization state: " + err.Error(),
			Provider: provider,
		}
	}

	logging.Info("OAuth", "Authorization flow started for provider %s", provider)
	return resp.AuthorizationURL, nil
}

// Complete finishes the flow with the state and code returned by the
// provider redirect. The returned state must equal the one persisted at
// Begin; any mismatch, missing flow or expired flow fails with
// code "state_mismatch" and leaves the session manager untouched. The
// pending flow is consumed either way, so a state token is single-use.
func (c *Coordinator) Complete(ctx context.Context, returnedState, code string) (*authclient.User, error) {
	flow, ok := c.flows.Take()
	if !ok {
		return nil, &authclient.AuthError{
			Message: "no authorization flow in progress",
			Code:    authclient.CodeStateMismatch,
		}
	}

	if time.Since(flow.CreatedAt) > FlowExpiry {
		logging.Warn("OAuth", "Pending authorization flow expired (age %s)", time.Since(flow.CreatedAt).Round(time.Second))
		return nil, &authclient.AuthError{
			Message:  "authorization flow expired, restart authorization",
			Code:     authclient.CodeStateMismatch,
			Provider: flow.Provider,
		}
	}

	if subtle.ConstantTimeCompare([]byte(returnedState), []byte(flow.State)) != 1 {
		logging.Warn("OAuth", "State token mismatch for provider %s", flow.Provider)
		return nil, &authclient.AuthError{
			Message:  "authorization state does not match, restart authorization",
			Code:     authclient.CodeStateMismatch,
			Provider: flow.Provider,
		}
	}

	resp, err := c.client.ExchangeCode(ctx, flow.Provider, code)
	if err != nil {
		return nil, err
	}

	c.sessions.AdoptSession(resp)
	logging.Info("OAuth", "Authorization completed for provider %s", flow.Provider)

	if resp.User == nil {
		return nil, nil
	}
	user := *resp.User
	return &user, nil
}
