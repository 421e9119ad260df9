package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/cookieauth/internal/auth/domain"
	"github.com/aussiebroadwan/cookieauth/internal/auth/service"
)

// AccessValidator is implemented by *service.TokenValidator.
type AccessValidator interface {
	Validate(ctx context.Context, raw string, expected domain.TokenType, now time.Time) (domain.Identity, error)
}

// Authenticator resolves the identity a request presents. It returns
// service.ErrMissingToken when the request carries no credential of its
// kind, so the next authenticator gets a turn.
type Authenticator interface {
	Name() string
	Authenticate(r *http.Request, now time.Time) (domain.Identity, error)
}

// CookieTokenAuthenticator reads the access token cookie.
type CookieTokenAuthenticator struct {
	Cookies   *CookieTransport
	Validator AccessValidator
}

func (a *CookieTokenAuthenticator) Name() string { return "cookie" }

func (a *CookieTokenAuthenticator) Authenticate(r *http.Request, now time.Time) (domain.Identity, error) {
	raw, ok := a.Cookies.Read(r, domain.TokenTypeAccess)
	if !ok {
		return domain.Identity{}, service.ErrMissingToken
	}
	return a.Validator.Validate(r.Context(), raw, domain.TokenTypeAccess, now)
}

// BearerTokenAuthenticator reads "Authorization: Bearer <access token>" for
// clients without a cookie jar.
type BearerTokenAuthenticator struct {
	Validator AccessValidator
}

func (a *BearerTokenAuthenticator) Name() string { return "bearer" }

func (a *BearerTokenAuthenticator) Authenticate(r *http.Request, now time.Time) (domain.Identity, error) {
	scheme, raw, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
		return domain.Identity{}, service.ErrMissingToken
	}
	return a.Validator.Validate(r.Context(), strings.TrimSpace(raw), domain.TokenTypeAccess, now)
}

// NewAuthenticators builds the chain named by kinds, in order. Known kinds
// are "cookie" and "bearer".
func NewAuthenticators(kinds []string, cookies *CookieTransport, validator AccessValidator) ([]Authenticator, error) {
	if len(kinds) == 0 {
		kinds = []string{"cookie"}
	}

	seen := make(map[string]bool, len(kinds))
	chain := make([]Authenticator, 0, len(kinds))
	for _, kind := range kinds {
		kind = strings.ToLower(strings.TrimSpace(kind))
		if seen[kind] {
			continue
		}
		seen[kind] = true

		switch kind {
		case "cookie":
			chain = append(chain, &CookieTokenAuthenticator{Cookies: cookies, Validator: validator})
		case "bearer":
			chain = append(chain, &BearerTokenAuthenticator{Validator: validator})
		default:
			return nil, fmt.Errorf("unknown authenticator %q, want cookie or bearer", kind)
		}
	}

	return chain, nil
}
