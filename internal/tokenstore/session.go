package tokenstore

import (
	"time"

	"golang.org/x/oauth2"
)

// DefaultTokenType is the token type issued by the repfit backend.
const DefaultTokenType = "Bearer"

// Session represents the persisted token pair for the current login.
type Session struct {
	// AccessToken is the short-lived bearer token presented on API calls.
	AccessToken string `json:"access_token"`

	// RefreshToken is the longer-lived token exchanged for new access
	// tokens. The server may rotate it on each refresh.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is typically "Bearer".
	TokenType string `json:"token_type"`

	// Expiry is when the access token expires.
	Expiry time.Time `json:"expiry,omitempty"`

	// CreatedAt is when the session was stored.
	CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether the access token is still usable, leaving the
// given margin before the computed expiry. A zero expiry means the server
// did not communicate one and the token is treated as valid.
func (s *Session) Valid(margin time.Duration) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	if s.Expiry.IsZero() {
		return true
	}
	return time.Now().Add(margin).Before(s.Expiry)
}

// Clone returns an independent copy. Stores hand out clones so callers
// hold immutable snapshots rather than aliases into store state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Token converts the session to an oauth2.Token snapshot for callers that
// speak the x/oauth2 vocabulary.
func (s *Session) Token() *oauth2.Token {
	if s == nil {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		Expiry:       s.Expiry,
	}
}

// FromOAuth2Token builds a Session from an oauth2.Token.
func FromOAuth2Token(tok *oauth2.Token) *Session {
	if tok == nil {
		return nil
	}
	tokenType := tok.TokenType
	if tokenType == "" {
		tokenType = DefaultTokenType
	}
	return &Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tokenType,
		Expiry:       tok.Expiry,
		CreatedAt:    time.Now(),
	}
}
