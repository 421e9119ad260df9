package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/cookieauth/internal/auth/domain"
)

// CookieConfig names the session cookies and sets their attributes.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Domain      string
	Path        string
	SameSite    http.SameSite
	Secure      bool
}

// CookieTransport moves tokens in and out of cookies. All cookies it writes
// are HttpOnly.
type CookieTransport struct {
	cfg CookieConfig
}

// NewCookieTransport fills in defaults for any blank names, path or
// SameSite mode.
func NewCookieTransport(cfg CookieConfig) *CookieTransport {
	if cfg.AccessName == "" {
		cfg.AccessName = "access_token"
	}
	if cfg.RefreshName == "" {
		cfg.RefreshName = "refresh_token"
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}
	return &CookieTransport{cfg: cfg}
}

// Name returns the cookie name used for the given token type.
func (c *CookieTransport) Name(typ domain.TokenType) string {
	if typ == domain.TokenTypeRefresh {
		return c.cfg.RefreshName
	}
	return c.cfg.AccessName
}

// Attach sets both cookies of pair. Max-Age counts from now and rounds up,
// so a cookie never outlives its token by less than a second or dies before
// it.
func (c *CookieTransport) Attach(w http.ResponseWriter, pair domain.TokenPair, now time.Time) {
	c.set(w, domain.TokenTypeAccess, pair.Access, now)
	c.set(w, domain.TokenTypeRefresh, pair.Refresh, now)
}

// Clear expires both cookies whatever they held before.
func (c *CookieTransport) Clear(w http.ResponseWriter) {
	for _, typ := range []domain.TokenType{domain.TokenTypeAccess, domain.TokenTypeRefresh} {
		ck := c.cookie(typ, "")
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0).UTC()
		http.SetCookie(w, ck)
	}
}

// Read returns the raw token of the given type, or false when the cookie is
// absent or empty.
func (c *CookieTransport) Read(r *http.Request, typ domain.TokenType) (string, bool) {
	ck, err := r.Cookie(c.Name(typ))
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

func (c *CookieTransport) set(w http.ResponseWriter, typ domain.TokenType, tok domain.SignedToken, now time.Time) {
	remaining := tok.Claims.Remaining(now)

	ck := c.cookie(typ, tok.Value)
	ck.MaxAge = max(int((remaining+time.Second-1)/time.Second), 1)
	ck.Expires = tok.Claims.ExpiresAt.UTC()
	http.SetCookie(w, ck)
}

func (c *CookieTransport) cookie(typ domain.TokenType, value string) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name(typ),
		Value:    value,
		Path:     c.cfg.Path,
		Domain:   c.cfg.Domain,
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: c.cfg.SameSite,
	}
}

// ParseSameSite maps lax, strict or none to its http.SameSite mode.
func ParseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("unknown SameSite mode %q, want lax, strict or none", s)
	}
}
