package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/cookieauth/internal/auth/service"
)

func newTestApp(t *testing.T, mutate func(*Config)) *Application {
	t.Helper()
	dir := t.TempDir()

	cfg := validConfig()
	cfg.Env = "test"
	cfg.LogLevel = "error"
	cfg.DatabaseFile = filepath.Join(dir, "auth.db")
	cfg.PepperFile = filepath.Join(dir, "pepper.key")
	cfg.Authenticators = []string{"cookie"}
	if mutate != nil {
		mutate(&cfg)
	}

	application, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Shutdown() })
	return application
}

func TestNewServesLoginAndMe(t *testing.T) {
	application := newTestApp(t, nil)

	_, err := application.users.CreateUser(t.Context(), service.CreateUserInput{
		Email:     "ada@example.com",
		Password:  "correct horse",
		FirstName: "Ada",
	})
	require.NoError(t, err)

	h := application.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		bytes.NewBufferString(`{"email":"ada@example.com","password":"correct horse"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ada@example.com")
}

func TestNewReadyz(t *testing.T) {
	application := newTestApp(t, nil)

	rec := httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRejectsUnknownAuthenticator(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig()
	cfg.Env = "test"
	cfg.DatabaseFile = filepath.Join(dir, "auth.db")
	cfg.PepperFile = filepath.Join(dir, "pepper.key")
	cfg.Authenticators = []string{"session"}

	_, err := New(cfg)
	require.Error(t, err)
}

func TestNewWithRedisLimiter(t *testing.T) {
	application := newTestApp(t, func(c *Config) {
		c.RateLimitBackend = "redis"
		c.RedisAddr = "127.0.0.1:1"
	})
	require.NotNil(t, application.redis)

	// An unreachable limiter only degrades readiness
	rec := httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "degraded")
}
