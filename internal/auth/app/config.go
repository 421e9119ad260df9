package app

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	httpapi "github.com/aussiebroadwan/cookieauth/internal/auth/http"
	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
	"github.com/aussiebroadwan/cookieauth/pkg/jwtx"
)

// Config is read from the environment, optionally seeded from .env.local and
// .env in the working directory.
type Config struct {
	Env                  string        `env:"ENV" envDefault:"dev"`         // dev, local, test, staging, prod
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`  // debug, info, warn, error
	LogFormat            string        `env:"LOG_FORMAT" envDefault:"text"` // json, text
	Port                 int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1m"`

	// Token signing. The secret is required outside dev; see signingKeys.
	SigningSecret          string        `env:"AUTH_SIGNING_SECRET"`
	SigningKeyID           string        `env:"AUTH_SIGNING_KEY_ID" envDefault:"primary"`
	PreviousSigningSecrets string        `env:"AUTH_PREVIOUS_SIGNING_SECRETS"` // kid=secret,kid2=secret2
	Issuer                 string        `env:"AUTH_ISSUER" envDefault:"cookieauth"`
	AccessTokenTTL         time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL        time.Duration `env:"AUTH_REFRESH_TOKEN_TTL" envDefault:"168h"`

	// Cookies. CookieSecure left unset follows the environment.
	AccessCookieName  string   `env:"AUTH_ACCESS_COOKIE_NAME" envDefault:"access_token"`
	RefreshCookieName string   `env:"AUTH_REFRESH_COOKIE_NAME" envDefault:"refresh_token"`
	CookieSameSite    string   `env:"AUTH_COOKIE_SAMESITE" envDefault:"lax"`
	CookieSecure      *bool    `env:"AUTH_COOKIE_SECURE"`
	CookieDomain      string   `env:"AUTH_COOKIE_DOMAIN"`
	CookiePath        string   `env:"AUTH_COOKIE_PATH" envDefault:"/"`
	Authenticators    []string `env:"AUTH_AUTHENTICATORS" envDefault:"cookie" envSeparator:","`

	// User store
	DatabaseDriver string `env:"AUTH_DATABASE_DRIVER" envDefault:"sqlite"` // sqlite, postgres
	DatabaseFile   string `env:"AUTH_DATABASE_FILE" envDefault:"auth.db"`
	DatabaseURL    string `env:"AUTH_DATABASE_URL"`
	PepperFile     string `env:"AUTH_PEPPER_FILE" envDefault:"pepper.key"`

	CORSAllowedOrigins []string `env:"AUTH_CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`

	// Rate limiting. Per-tier limits are read by pkg/httpx itself.
	RateLimitBackend string   `env:"RATELIMIT_BACKEND" envDefault:"memory"` // memory, redis
	TrustedProxies   []string `env:"RATELIMIT_TRUSTED_PROXIES" envSeparator:","` // CIDRs whose X-Forwarded-For is believed
	RedisAddr        string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword    string `env:"REDIS_PASSWORD"`
	RedisDB          int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig reads .env.local and .env if present, then parses and
// validates the environment. Variables already set win over the files.
func LoadConfig() (Config, error) {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsDev reports whether this is a developer or test environment, which
// relaxes cookie security and allows an ephemeral signing secret.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "local", "test":
		return true
	}
	return false
}

// SecureCookies reports whether cookies get the Secure attribute.
func (c Config) SecureCookies() bool {
	if c.CookieSecure != nil {
		return *c.CookieSecure
	}
	return !c.IsDev()
}

// CookieConfig returns the cookie transport settings.
func (c Config) CookieConfig() (httpapi.CookieConfig, error) {
	sameSite, err := httpapi.ParseSameSite(c.CookieSameSite)
	if err != nil {
		return httpapi.CookieConfig{}, err
	}

	return httpapi.CookieConfig{
		AccessName:  c.AccessCookieName,
		RefreshName: c.RefreshCookieName,
		Domain:      c.CookieDomain,
		Path:        c.CookiePath,
		SameSite:    sameSite,
		Secure:      c.SecureCookies(),
	}, nil
}

// Validate checks configuration invariants. Every problem is reported, not
// just the first.
func (c Config) Validate() error {
	var errs []error

	if !slices.Contains([]string{"dev", "local", "test", "staging", "prod"}, strings.ToLower(c.Env)) {
		errs = append(errs, fmt.Errorf("ENV must be one of dev, local, test, staging, prod, got %q", c.Env))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT: %d", c.Port))
	}

	if c.SigningSecret == "" && !c.IsDev() {
		errs = append(errs, errors.New("AUTH_SIGNING_SECRET is required outside dev"))
	}
	if c.SigningSecret != "" && len(c.SigningSecret) < jwtx.MinSecretLength {
		errs = append(errs, fmt.Errorf("AUTH_SIGNING_SECRET must be at least %d bytes", jwtx.MinSecretLength))
	}
	if _, err := jwtx.ParseKeys(c.PreviousSigningSecrets); err != nil {
		errs = append(errs, fmt.Errorf("AUTH_PREVIOUS_SIGNING_SECRETS: %w", err))
	}

	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("AUTH_ACCESS_TOKEN_TTL must be positive"))
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		errs = append(errs, errors.New("AUTH_REFRESH_TOKEN_TTL must be longer than AUTH_ACCESS_TOKEN_TTL"))
	}

	if strings.TrimSpace(c.AccessCookieName) == "" || strings.TrimSpace(c.RefreshCookieName) == "" {
		errs = append(errs, errors.New("cookie names must not be empty"))
	} else if c.AccessCookieName == c.RefreshCookieName {
		errs = append(errs, errors.New("AUTH_ACCESS_COOKIE_NAME and AUTH_REFRESH_COOKIE_NAME must differ"))
	}

	sameSite, err := httpapi.ParseSameSite(c.CookieSameSite)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("AUTH_COOKIE_SAMESITE: %w", err))
	case sameSite == http.SameSiteNoneMode && !c.SecureCookies():
		errs = append(errs, errors.New("AUTH_COOKIE_SAMESITE=none requires secure cookies"))
	}

	switch c.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_DATABASE_DRIVER must be sqlite or postgres, got %q", c.DatabaseDriver))
	}

	switch c.RateLimitBackend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("RATELIMIT_BACKEND must be memory or redis, got %q", c.RateLimitBackend))
	}

	if _, err := httpx.ParseTrustedProxies(c.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("RATELIMIT_TRUSTED_PROXIES: %w", err))
	}

	return errors.Join(errs...)
}
