package app

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func validConfig() Config {
	return Config{
		Env:               "prod",
		Port:              8080,
		SigningSecret:     testSecret,
		SigningKeyID:      "primary",
		Issuer:            "cookieauth",
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   7 * 24 * time.Hour,
		AccessCookieName:  "access_token",
		RefreshCookieName: "refresh_token",
		CookieSameSite:    "lax",
		CookiePath:        "/",
		DatabaseDriver:    "sqlite",
		DatabaseFile:      "auth.db",
		RateLimitBackend:  "memory",
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV", "dev")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, "access_token", cfg.AccessCookieName)
	assert.Equal(t, "refresh_token", cfg.RefreshCookieName)
	assert.Equal(t, []string{"cookie"}, cfg.Authenticators)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "memory", cfg.RateLimitBackend)
	assert.Nil(t, cfg.CookieSecure)
	assert.False(t, cfg.SecureCookies())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("PORT", "9000")
	t.Setenv("AUTH_SIGNING_SECRET", testSecret)
	t.Setenv("AUTH_PREVIOUS_SIGNING_SECRETS", "old=fedcba9876543210fedcba9876543210")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL", "5m")
	t.Setenv("AUTH_REFRESH_TOKEN_TTL", "24h")
	t.Setenv("AUTH_AUTHENTICATORS", "cookie,bearer")
	t.Setenv("AUTH_COOKIE_SAMESITE", "strict")
	t.Setenv("AUTH_CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("RATELIMIT_TRUSTED_PROXIES", "10.0.0.0/8,192.0.2.1")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, []string{"cookie", "bearer"}, cfg.Authenticators)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.TrustedProxies)
	assert.True(t, cfg.SecureCookies())

	cookies, err := cfg.CookieConfig()
	require.NoError(t, err)
	assert.Equal(t, http.SameSiteStrictMode, cookies.SameSite)
	assert.True(t, cookies.Secure)
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL", "forever")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestSecureCookiesOverride(t *testing.T) {
	cfg := validConfig()
	require.True(t, cfg.SecureCookies())

	off := false
	cfg.CookieSecure = &off
	require.False(t, cfg.SecureCookies())

	cfg.Env = "dev"
	on := true
	cfg.CookieSecure = &on
	require.True(t, cfg.SecureCookies())
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown env", func(c *Config) { c.Env = "qa" }, "ENV must be one of"},
		{"bad port", func(c *Config) { c.Port = 0 }, "invalid PORT"},
		{"secret required in prod", func(c *Config) { c.SigningSecret = "" }, "AUTH_SIGNING_SECRET is required"},
		{"short secret", func(c *Config) { c.SigningSecret = "short" }, "at least 32 bytes"},
		{"bad previous keys", func(c *Config) { c.PreviousSigningSecrets = "nokid" }, "AUTH_PREVIOUS_SIGNING_SECRETS"},
		{"zero access ttl", func(c *Config) { c.AccessTokenTTL = 0 }, "AUTH_ACCESS_TOKEN_TTL must be positive"},
		{"refresh not longer", func(c *Config) { c.RefreshTokenTTL = c.AccessTokenTTL }, "must be longer"},
		{"same cookie names", func(c *Config) { c.RefreshCookieName = c.AccessCookieName }, "must differ"},
		{"empty cookie name", func(c *Config) { c.AccessCookieName = " " }, "must not be empty"},
		{"bad samesite", func(c *Config) { c.CookieSameSite = "sometimes" }, "AUTH_COOKIE_SAMESITE"},
		{"samesite none without secure", func(c *Config) {
			off := false
			c.CookieSecure = &off
			c.CookieSameSite = "none"
		}, "requires secure cookies"},
		{"postgres without url", func(c *Config) { c.DatabaseDriver = "postgres" }, "AUTH_DATABASE_URL is required"},
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "mysql" }, "AUTH_DATABASE_DRIVER"},
		{"unknown limiter", func(c *Config) { c.RateLimitBackend = "memcached" }, "RATELIMIT_BACKEND"},
		{"bad trusted proxy", func(c *Config) { c.TrustedProxies = []string{"not-an-ip"} }, "RATELIMIT_TRUSTED_PROXIES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("reports every problem", func(t *testing.T) {
		cfg := validConfig()
		cfg.Port = -1
		cfg.DatabaseDriver = "mysql"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid PORT")
		assert.Contains(t, err.Error(), "AUTH_DATABASE_DRIVER")
	})
}

func TestSecretOptionalInDev(t *testing.T) {
	cfg := validConfig()
	cfg.Env = "dev"
	cfg.SigningSecret = ""
	require.NoError(t, cfg.Validate())
}
