package auth

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

const secretBytes = 16

// NewServerSecret returns a fresh random guild secret. The raw value
// is shown to the guild owner exactly once; only its hash is stored.
func NewServerSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashSecret hashes a raw server secret with the configured cost. The
// stored hash also serves as the guild's token signing key, so it must
// never be rewritten without rotating the secret.
func HashSecret(secret string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CompareSecret verifies a presented raw secret against its stored hash.
func CompareSecret(hashed, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(secret))
}
