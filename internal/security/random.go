package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// NewOneTimeToken returns a random hex token for email verification and
// password reset links. Only its HashToken digest is ever persisted.
func NewOneTimeToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
