package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed means the token could not be parsed or is missing
	// required claims.
	ErrMalformed = errors.New("jwtx: malformed token")

	// ErrInvalidSignature means the integrity tag did not match, the kid is
	// unknown or the alg is not HS256.
	ErrInvalidSignature = errors.New("jwtx: invalid signature")
)

// Codec encodes and decodes HS256 compact JWS tokens. It checks integrity
// and structure only; expiry and token type are left to the caller.
type Codec struct {
	keys   *KeySet
	parser *jwt.Parser
}

// NewCodec returns a Codec that signs with the active key of keys.
func NewCodec(keys *KeySet) *Codec {
	return &Codec{
		keys: keys,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
			jwt.WithStrictDecoding(),
		),
	}
}

// Encode signs claims with the active key. The output is deterministic for a
// given key and claims.
func (c *Codec) Encode(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = c.keys.active.ID

	signed, err := token.SignedString(c.keys.active.Secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Decode verifies raw and returns its claims. An expired token still decodes.
func (c *Codec) Decode(raw string) (*Claims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformed)
	}

	claims := &Claims{}
	if _, err := c.parser.ParseWithClaims(raw, claims, c.keyFunc); err != nil {
		return nil, classify(err)
	}

	if err := claims.checkStructure(); err != nil {
		return nil, err
	}

	return claims, nil
}

// KeySet exposes the keys the codec was built with.
func (c *Codec) KeySet() *KeySet { return c.keys }

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("jwtx: missing kid")
	}

	secret, err := c.keys.Get(kid)
	if err != nil {
		return nil, fmt.Errorf("jwtx: unknown kid %q: %w", kid, err)
	}
	return secret, nil
}

// classify folds the parser's error tree into our two decode failures.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}
