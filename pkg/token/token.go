package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// rawLength is the entropy of a generated token in bytes. 32 bytes gives 256
// bits, far beyond online or offline guessing range for a 10-minute window.
const rawLength = 32

// New generates a high-entropy opaque token and returns it hex-encoded. The
// raw value is handed to the recipient exactly once and never persisted; only
// Hash(raw) is stored.
func New() (string, error) {
	buf := make([]byte, rawLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Hash returns the hex-encoded SHA-256 digest of a raw token. Storing only
// the digest means a database compromise does not yield usable tokens.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Match reports whether a presented raw token corresponds to a stored digest,
// comparing in constant time.
func Match(raw, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(Hash(raw)), []byte(storedHash)) == 1
}
