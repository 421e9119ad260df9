package jwtx

import (
	"errors"
	"fmt"
	"strings"
)

// MinSecretLength is the smallest HMAC secret we accept, in bytes. It matches
// the HS256 output size.
const MinSecretLength = 32

var (
	ErrNoKey       = errors.New("jwtx: key not found")
	ErrWeakSecret  = errors.New("jwtx: signing secret too short")
	ErrDuplicateID = errors.New("jwtx: duplicate key id")
)

// Key is a named HMAC secret.
type Key struct {
	ID     string
	Secret []byte
}

// KeySet holds the active signing key plus any previous keys that are still
// accepted for verification. It is built once at startup and never mutated,
// so it is safe to share between goroutines without locking.
type KeySet struct {
	active Key
	verify map[string][]byte
}

// NewKeySet validates and assembles a key set. Previous keys only verify.
func NewKeySet(active Key, previous ...Key) (*KeySet, error) {
	ks := &KeySet{verify: make(map[string][]byte, len(previous)+1)}

	for i, k := range append([]Key{active}, previous...) {
		if strings.TrimSpace(k.ID) == "" {
			return nil, fmt.Errorf("jwtx: key %d has an empty id", i)
		}
		if len(k.Secret) < MinSecretLength {
			return nil, fmt.Errorf("%w: key %q has %d bytes, need %d", ErrWeakSecret, k.ID, len(k.Secret), MinSecretLength)
		}
		if _, exists := ks.verify[k.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, k.ID)
		}

		// Copy so later changes to the caller's slice can't leak in
		secret := make([]byte, len(k.Secret))
		copy(secret, k.Secret)
		ks.verify[k.ID] = secret
	}

	ks.active = Key{ID: active.ID, Secret: ks.verify[active.ID]}
	return ks, nil
}

// ActiveKID returns the id of the key new tokens are signed with.
func (k *KeySet) ActiveKID() string { return k.active.ID }

// Get returns the secret for the given kid.
func (k *KeySet) Get(kid string) ([]byte, error) {
	if secret, ok := k.verify[kid]; ok {
		return secret, nil
	}
	return nil, ErrNoKey
}

// Len returns how many keys can verify.
func (k *KeySet) Len() int { return len(k.verify) }

// ParseKeys reads verify-only keys from "kid=secret,kid2=secret2". Blank
// input yields no keys.
func ParseKeys(list string) ([]Key, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}

	var keys []Key
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kid, secret, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(kid) == "" || secret == "" {
			return nil, fmt.Errorf("jwtx: invalid key entry %q, want kid=secret", part)
		}
		keys = append(keys, Key{ID: strings.TrimSpace(kid), Secret: []byte(secret)})
	}

	return keys, nil
}
