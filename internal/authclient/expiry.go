package authclient

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry computes the expiry instant for an access token. The
// backend issues JWT access tokens, so the exp claim is read without
// signature verification (the client has no verification key and only
// needs the expiry for scheduling, never for trust decisions). Tokens
// that are not JWTs or carry no exp claim fall back to the configured
// TTL from now.
func (c *Client) TokenExpiry(accessToken string) time.Time {
	if exp, ok := jwtExpiry(accessToken); ok {
		return exp
	}
	return time.Now().Add(c.accessTokenTTL)
}

func jwtExpiry(accessToken string) (time.Time, bool) {
	parser := jwt.NewParser()

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
