// Package password hashes and verifies client secrets with Argon2id.
package password

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/sealedbox/sealedbox/internal/errors"
)

// Hasher hashes and verifies client secrets using Argon2id.
type Hasher struct {
	hasher *pwdhash.PasswordHasher
}

// New builds a Hasher with the moderate Argon2id policy, the teacher's
// balance of security and request latency.
func New() (*Hasher, error) {
	h, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyModerate))
	if err != nil {
		return nil, apperrors.WrapInternal(err, "failed to initialize password hasher")
	}
	return &Hasher{hasher: h}, nil
}

// GenerateSecret returns a fresh 256-bit random secret, base64 URL-encoded,
// along with its Argon2id hash.
func (h *Hasher) GenerateSecret() (plainSecret, hashedSecret string, err error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.WrapInternal(err, "failed to generate random secret")
	}
	plainSecret = base64.URLEncoding.EncodeToString(randomBytes)

	hashedSecret, err = h.Hash(plainSecret)
	if err != nil {
		return "", "", err
	}
	return plainSecret, hashedSecret, nil
}

// Hash hashes plainSecret with Argon2id.
func (h *Hasher) Hash(plainSecret string) (string, error) {
	hashed, err := h.hasher.Hash([]byte(plainSecret))
	if err != nil {
		return "", apperrors.WrapInternal(err, "failed to hash secret")
	}
	return hashed, nil
}

// Verify performs a constant-time comparison between plainSecret and hashedSecret.
func (h *Hasher) Verify(plainSecret, hashedSecret string) bool {
	ok, err := h.hasher.Verify([]byte(plainSecret), hashedSecret)
	if err != nil {
		return false
	}
	return ok
}
