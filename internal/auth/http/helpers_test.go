package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authhttp "github.com/aussiebroadwan/cookieauth/internal/auth/http"
	"github.com/aussiebroadwan/cookieauth/internal/auth/domain"
	"github.com/aussiebroadwan/cookieauth/internal/auth/service"
	"github.com/aussiebroadwan/cookieauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/cookieauth/pkg/cryptox"
	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
	"github.com/aussiebroadwan/cookieauth/pkg/jwtx"
	"github.com/aussiebroadwan/cookieauth/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// harness is a fully wired router over an in-memory sqlite store with a
// clock the test controls.
type harness struct {
	t       *testing.T
	router  *authhttp.Router
	store   *sqlite.Store
	users   *service.UserService
	issuer  *service.TokenIssuer
	cookies *authhttp.CookieTransport
	user    domain.User
	now     time.Time
}

type harnessOption func(t *testing.T, o *authhttp.Options, v authhttp.AccessValidator)

func withAuthenticators(kinds ...string) harnessOption {
	return func(t *testing.T, o *authhttp.Options, v authhttp.AccessValidator) {
		chain, err := authhttp.NewAuthenticators(kinds, o.Cookies, v)
		require.NoError(t, err)
		o.Authenticators = chain
	}
}

func withLimiter(l httpx.LimiterStore) harnessOption {
	return func(_ *testing.T, o *authhttp.Options, _ authhttp.AccessValidator) {
		o.Limiter = l
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	hasher := cryptox.NewHasherWithParams("pepper", cryptox.Params{
		Memory: 1024, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16,
	})
	users := service.NewUserService(st, hasher)

	user, err := users.CreateUser(context.Background(), service.CreateUserInput{
		Email:     "a@b.com",
		Password:  "secret",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)

	keys, err := jwtx.NewKeySet(jwtx.Key{ID: "test", Secret: testSecret})
	require.NoError(t, err)
	codec := jwtx.NewCodec(keys)

	issuer := &service.TokenIssuer{Codec: codec, Issuer: "cookieauth-test", AccessTTL: accessTTL, RefreshTTL: refreshTTL}
	validator := &service.TokenValidator{Codec: codec, Identities: users}
	cookies := authhttp.NewCookieTransport(authhttp.CookieConfig{})

	h := &harness{
		t:       t,
		store:   st,
		users:   users,
		issuer:  issuer,
		cookies: cookies,
		user:    user,
		now:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	o := authhttp.Options{
		BuildVersion:   "test",
		Store:          st,
		Keys:           keys,
		Limiter:        httpx.NewMemoryLimiterStore(),
		Cookies:        cookies,
		Authenticators: []authhttp.Authenticator{&authhttp.CookieTokenAuthenticator{Cookies: cookies, Validator: validator}},
		CORS:           httpx.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}, AllowCredentials: true},
		Logger:         slogx.Discard(),
		Now:            func() time.Time { return h.now },
	}
	for _, opt := range opts {
		opt(t, &o, validator)
	}

	h.router = authhttp.NewRouter(o)
	h.router.Sessions = &service.SessionService{Credentials: users, Issuer: issuer, Validator: validator}
	h.router.ApplyRoutes()

	return h
}

func (h *harness) advance(d time.Duration) { h.now = h.now.Add(d) }

func (h *harness) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	h.t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

// login logs in as a@b.com and returns the access and refresh cookies.
func (h *harness) login() (*http.Cookie, *http.Cookie) {
	h.t.Helper()

	rec := h.do(http.MethodPost, "/auth/login", `{"email":"a@b.com","password":"secret"}`)
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())

	access := cookieNamed(rec, "access_token")
	refresh := cookieNamed(rec, "refresh_token")
	require.NotNil(h.t, access)
	require.NotNil(h.t, refresh)
	return access, refresh
}

// pairFor mints tokens directly, bypassing login.
func (h *harness) pairFor(subject string, at time.Time) domain.TokenPair {
	h.t.Helper()
	pair, err := h.issuer.IssuePair(domain.Identity{ID: subject}, at)
	require.NoError(h.t, err)
	return pair
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func tokenCookie(name, value string) *http.Cookie {
	return &http.Cookie{Name: name, Value: value}
}

// expiryOf decodes the exp claim of a cookie's token.
func expiryOf(t *testing.T, c *http.Cookie) time.Time {
	t.Helper()
	keys, err := jwtx.NewKeySet(jwtx.Key{ID: "test", Secret: testSecret})
	require.NoError(t, err)
	claims, err := jwtx.NewCodec(keys).Decode(c.Value)
	require.NoError(t, err)
	return claims.ExpiresAtTime()
}
