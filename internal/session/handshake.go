// Package session implements the handshake token scheme and the Redis-backed
// session store that gates the waiver flow.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Handshake derives the bearer token for a public nonce: the hex HMAC-SHA256
// of the nonce under the server secret. Derivation is deterministic, so a
// nonce always maps to the same token; replay protection comes from store
// deletion and TTL, not token uniqueness.
func Handshake(secret, sessionID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHandshake recomputes the expected token for the nonce and compares it
// to the presented one in constant time.
func VerifyHandshake(secret, sessionID, presented string) bool {
	expected := Handshake(secret, sessionID)
	return hmac.Equal([]byte(expected), []byte(presented))
}
