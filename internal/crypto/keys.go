package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters
const (
	// Argon2Time is the number of passes
	Argon2Time = 1
	// Argon2Memory is the memory cost in KiB (64 MiB)
	Argon2Memory = 64 * 1024
	// Argon2Threads is the degree of parallelism
	Argon2Threads = 4
	// SaltSize is the salt length in bytes
	SaltSize = 32
)

// GenerateSalt returns SaltSize random bytes.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// GenerateSaltBase64 returns a random salt encoded as base64.
func GenerateSaltBase64() (string, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// DeriveKey derives a 32-byte key from a device secret with Argon2id.
// The purpose string separates keys derived from the same secret
// ("session" and "medical" never collide).
func DeriveKey(secret, purpose string, salt []byte) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("secret cannot be empty")
	}
	if purpose == "" {
		return nil, fmt.Errorf("key purpose cannot be empty")
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}

	input := []byte(secret + "\x00" + purpose)
	return argon2.IDKey(input, salt, Argon2Time, Argon2Memory, Argon2Threads, KeySize), nil
}

// DeriveKeyFromBase64Salt is DeriveKey with a base64 encoded salt.
func DeriveKeyFromBase64Salt(secret, purpose, saltBase64 string) ([]byte, error) {
	salt, err := base64.StdEncoding.DecodeString(saltBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	return DeriveKey(secret, purpose, salt)
}
