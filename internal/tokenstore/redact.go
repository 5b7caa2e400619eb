package tokenstore

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a short stable digest of a token, safe to log.
// It lets log readers correlate token rotations without ever exposing
// the token value itself. Empty tokens yield "none".
func Fingerprint(token string) string {
	if token == "" {
		return "none"
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:4])
}
