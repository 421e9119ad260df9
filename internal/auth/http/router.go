package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/cookieauth/internal/auth/service"
	"github.com/aussiebroadwan/cookieauth/internal/auth/store"
	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
	"github.com/aussiebroadwan/cookieauth/pkg/jwtx"
	"github.com/aussiebroadwan/cookieauth/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/aussiebroadwan/cookieauth/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Options are the dependencies NewRouter needs besides the services.
type Options struct {
	BuildVersion   string
	Store          store.Store
	Keys           *jwtx.KeySet
	Limiter        httpx.LimiterStore
	ClientIP       httpx.KeyExtractor // rate limit key for anonymous requests, nil keys on the TCP peer
	Cookies        *CookieTransport
	Authenticators []Authenticator
	CORS           httpx.CORSConfig
	Logger         *slog.Logger

	// Now is the clock used for token issuance and validation. Defaults to
	// time.Now.
	Now func() time.Time
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware
	handler     http.Handler

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	now          func() time.Time

	store   store.Store
	keys    *jwtx.KeySet
	limiter  httpx.LimiterStore
	clientIP httpx.KeyExtractor
	cookies  *CookieTransport

	Sessions *service.SessionService
}

func NewRouter(opts Options) *Router {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: opts.BuildVersion,
		startTime:    time.Now(),
		logger:       opts.Logger,
		now:          opts.Now,
		store:        opts.Store,
		keys:         opts.Keys,
		limiter:      opts.Limiter,
		clientIP:     opts.ClientIP,
		cookies:      opts.Cookies,
	}

	// Metrics must sit directly on the mux to see the matched pattern
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CORS(opts.CORS),
		SessionMiddleware(opts.Authenticators, r.now),
		httpx.Metrics(),
	}
	r.handler = httpx.Chain(r.Mux, r.middlewares...)

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSession()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Cookie Session Authentication API
//	@version		0.1.0
//	@description	Stateless session authentication. Login sets a short lived access token cookie and a
//	@description	longer lived refresh token cookie, both HttpOnly and HMAC signed.
//	@description
//	@description	Browsers never read the tokens; they only send the cookies back.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/cookieauth
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	CookieAuth
//	@in							cookie
//	@name						access_token
//	@description				Access token cookie set by login and refresh.
//
//	@securityDefinitions.apikey	RefreshCookie
//	@in							cookie
//	@name						refresh_token
//	@description				Refresh token cookie set by login and refresh.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) registerSession() {
	// POST /auth/login - strict rate limit by IP (credential stuffing)
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(&LoginHandler{Sessions: r.Sessions, Cookies: r.cookies, Now: r.now},
			httpx.RateLimitByIP(r.limiter, "login", httpx.StrictLimit, r.clientIP),
		),
	)

	// POST /auth/refresh - strict rate limit by IP, no session required
	r.Mux.Handle("POST /auth/refresh",
		httpx.Chain(&RefreshHandler{Sessions: r.Sessions, Cookies: r.cookies, Now: r.now},
			httpx.RateLimitByIP(r.limiter, "refresh", httpx.StrictLimit, r.clientIP),
		),
	)

	// POST /auth/logout - needs a session (checked by the handler, which
	// clears cookies either way), moderate limit by user
	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(&LogoutHandler{Cookies: r.cookies},
			httpx.RateLimitByUser(r.limiter, "logout", httpx.ModerateLimit, r.clientIP),
		),
	)

	// GET /auth/me - polled by the frontend, lenient limit by user
	r.Mux.Handle("GET /auth/me",
		httpx.Chain(MeHandler(),
			RequireAuthenticated,
			httpx.RateLimitByUser(r.limiter, "me", httpx.LenientLimit, r.clientIP),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - public limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.limiter, "health", httpx.PublicLimit, r.clientIP),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys, r.limiter),
			httpx.RateLimitByIP(r.limiter, "health", httpx.PublicLimit, r.clientIP),
		),
	)

	r.Mux.Handle("GET /metrics", promhttp.Handler())
}
