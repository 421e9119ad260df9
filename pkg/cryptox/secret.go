package cryptox

import (
	"crypto/rand"
	"fmt"
)

// SecretSize is the HMAC secret length GenerateSecret callers should ask for.
// It equals the HS256 block output, matching jwtx.MinSecretLength.
const SecretSize = 32

// GenerateSecret returns size bytes from crypto/rand.
func GenerateSecret(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("secret size must be positive, got %d", size)
	}

	secret := make([]byte, size)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("read random secret: %w", err)
	}
	return secret, nil
}
