package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	// A timeout is treated identically to a transport failure.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultAccessTokenTTL is the assumed access token lifetime when the
	// token is not a JWT and the server communicates no expiry.
	DefaultAccessTokenTTL = 15 * time.Minute
)

// Client is the stateless transport layer for the auth backend: one
// method per remote operation, each translating transport and server
// failures into a typed *AuthError.
//
// Client never retries; retry policy, where desired, belongs to callers.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	// accessTokenTTL is the fallback lifetime used by TokenExpiry when
	// the access token carries no exp claim.
	accessTokenTTL time.Duration
}

// Option configures the auth client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout bounds every request issued by the client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithAccessTokenTTL sets the fallback access token lifetime.
func WithAccessTokenTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.accessTokenTTL = ttl
	}
}

// NewClient creates an auth client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		httpClient:     &http.Client{Timeout: DefaultHTTPTimeout},
		logger:         slog.Default(),
		accessTokenTTL: DefaultAccessTokenTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the backend base URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}

	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, "", &resp); err != nil {
		return nil, err
	}

	if resp.User != nil {
		c.logger.Debug("Login succeeded", "user_id", resp.User.ID)
	}
	return &resp, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, email, username, password string) (*RegisterResponse, error) {
	body := map[string]string{"email": email, "username": username, "password": password}

	var resp RegisterResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", body, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh exchanges a refresh token for a new access token. When the
// server rotates refresh tokens the response carries the replacement;
// the caller must persist whichever token is returned.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	body := map[string]string{"refresh_token": refreshToken}

	var resp RefreshResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/refresh", body, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CurrentUser fetches the authenticated user's profile.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, accessToken, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout asks the server to invalidate the session. This is best-effort:
// the caller must clear local state regardless of the outcome.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, accessToken, nil)
}

// ForgotPassword requests a password recovery email. The wire format is a
// raw JSON-encoded string, not an object.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/forgot", email, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResetPassword redeems a recovery token for a new password.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (*MessageResponse, error) {
	body := map[string]string{"token": token, "new_password": newPassword}

	var resp MessageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/reset", body, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListProviders fetches the configured OAuth providers.
func (c *Client) ListProviders(ctx context.Context) (*ProvidersResponse, error) {
	var resp ProvidersResponse
	if err := c.doJSON(ctx, http.MethodGet, "/auth/providers", nil, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BeginAuthorization requests an authorization URL and one-time state
// token for the given provider.
func (c *Client) BeginAuthorization(ctx context.Context, provider string) (*AuthorizationResponse, error) {
	path := "/auth/oauth/" + url.PathEscape(provider) + "/authorize"

	var resp AuthorizationResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, "", &resp); err != nil {
		if authErr, ok := AsAuthError(err); ok {
			authErr.Provider = provider
		}
		return nil, err
	}
	return &resp, nil
}

// ExchangeCode forwards an OAuth authorization code to the backend's
// token-exchange path. The response shape is identical to Login.
func (c *Client) ExchangeCode(ctx context.Context, provider, code string) (*AuthResponse, error) {
	path := "/auth/oauth/" + url.PathEscape(provider) + "/login"
	body := map[string]string{"code": code}

	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, path, body, "", &resp); err != nil {
		if authErr, ok := AsAuthError(err); ok {
			authErr.Provider = provider
		}
		return nil, err
	}
	return &resp, nil
}

// doJSON issues a single request and decodes the JSON response into out
// (out may be nil for empty responses). All failures come back as
// *AuthError per the translation rules:
//
//   - transport failure (no response): no code, no status
//   - structured error body: server-provided code/message verbatim
//   - unparseable failure body: generic error carrying the HTTP status
func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, accessToken string, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &AuthError{Message: "failed to encode request body", cause: err}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &AuthError{Message: "failed to build request", cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Auth request transport failure",
			"method", method,
			"path", path,
			"error", err.Error())
		return NewTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewTransportError(err)
	}

	if resp.StatusCode >= 400 {
		return c.translateErrorResponse(method, path, resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &AuthError{
				Message: "failed to parse response",
				Status:  resp.StatusCode,
				cause:   err,
			}
		}
	}
	return nil
}

// serverErrorBody is the structured error shape the backend returns.
// Some endpoints use "error" and some "message" for the human-readable
// part; both are accepted.
type serverErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (c *Client) translateErrorResponse(method, path string, status int, body []byte) *AuthError {
	var parsed serverErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		message := parsed.Message
		if message == "" {
			message = parsed.Error
		}
		if message != "" || parsed.Code != "" {
			if message == "" {
				message = fmt.Sprintf("request failed with status %d", status)
			}
			c.logger.Debug("Auth request rejected",
				"method", method,
				"path", path,
				"status", status,
				"code", parsed.Code)
			return &AuthError{Message: message, Code: parsed.Code, Status: status}
		}
	}

	// Non-JSON or empty failure body: degrade to a generic error that
	// carries only the HTTP status.
	return &AuthError{
		Message: fmt.Sprintf("request failed with status %d", status),
		Status:  status,
	}
}
