package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// GenerateResetToken returns a cryptographically random password-reset token
// (40 hex chars). The raw value goes to the user out of band; only its
// SHA-256 is ever persisted.
func GenerateResetToken() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashResetToken returns the hex SHA-256 of a raw reset token. Applied both
// when issuing (to persist) and when consuming (to look up), so the plaintext
// token never touches storage.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
