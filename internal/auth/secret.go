// Package auth — handle-secret generation and hashing.
//
// A handle's secret is its only credential AND its only recovery mechanism.
// It is generated server-side with crypto/rand, shown to the caller exactly
// once at registration, and only its bcrypt hash is ever stored. Lose the
// secret, lose the handle — there is deliberately no reset flow, because an
// anonymous service has nothing to send a reset link to.
//
// WHY BCRYPT?
// bcrypt is a hashing function designed to be slow, which makes brute-force
// expensive. It generates and embeds a random salt automatically, so two
// identical secrets produce different hashes and no separate salt column is
// needed. Never store credentials in plain text or with fast hashes
// (MD5/SHA-256) — those fall to GPU rigs in minutes.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// secretBytes is the entropy of a generated secret: 16 random bytes,
// rendered as 32 hex characters. Far beyond brute-forceable.
const secretBytes = 16

// defaultCost is the bcrypt work factor. Cost 12 takes roughly ~250ms on a
// modern server — negligible for login, brutal for attackers.
const defaultCost = 12

// SecretService generates handle secrets and hashes/verifies them.
//
// It's a struct (not free functions) so the bcrypt cost can be injected in
// tests — cost 4 makes tests fast without changing the logic under test.
type SecretService struct {
	cost int
}

// NewSecretService creates a SecretService with the default cost (12).
func NewSecretService() *SecretService {
	return &SecretService{cost: defaultCost}
}

// NewSecretServiceForTest creates a SecretService with a low bcrypt cost.
// Use cost 4 (the bcrypt minimum) in tests to avoid the ~250ms per hash.
// Do NOT use in production.
func NewSecretServiceForTest(cost int) *SecretService {
	return &SecretService{cost: cost}
}

// Generate returns a new random plaintext secret and its bcrypt hash.
// The plaintext goes to the caller once; the hash goes to the database.
func (s *SecretService) Generate() (plaintext, hash string, err error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("auth: generating secret: %w", err)
	}
	plaintext = hex.EncodeToString(buf)

	hash, err = s.Hash(plaintext)
	if err != nil {
		return "", "", err
	}
	return plaintext, hash, nil
}

// Hash hashes a plaintext secret with bcrypt. The output embeds the salt and
// cost, so it is stored as-is and Verify knows how to decode it.
func (s *SecretService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		// bcrypt silently truncates input past 72 bytes; reject instead.
		return "", fmt.Errorf("auth: secret must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing secret: %w", err)
	}
	return string(hashed), nil
}

// Verify checks a plaintext secret against a stored bcrypt hash.
// Returns nil on match. bcrypt compares in constant time, so this is safe
// against timing attacks.
func (s *SecretService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid secret")
		}
		return fmt.Errorf("auth: comparing secret hash: %w", err)
	}
	return nil
}
