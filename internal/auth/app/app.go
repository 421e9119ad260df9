package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/aussiebroadwan/cookieauth/internal/auth/http"
	"github.com/aussiebroadwan/cookieauth/internal/auth/service"
	"github.com/aussiebroadwan/cookieauth/internal/auth/store"
	"github.com/aussiebroadwan/cookieauth/pkg/cryptox"
	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
	"github.com/aussiebroadwan/cookieauth/pkg/jwtx"
	"github.com/aussiebroadwan/cookieauth/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db    store.Store
	keys  *jwtx.KeySet
	redis *redis.Client

	// Services
	users               *service.UserService
	sessions            *service.SessionService
	validator           *service.TokenValidator
	housekeepingService *service.HousekeepingService

	limiter httpx.LimiterStore

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initLimiter()

	if err := app.initHTTP(); err != nil {
		app.closeDependencies()
		return nil, err
	}

	return app, nil
}

// NewLogger builds the service logger from cfg and makes it the default.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "cookieauth",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// Handler exposes the fully wired HTTP handler, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		app.closeDependencies()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeDependencies(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) closeDependencies() error {
	var errs []error

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
			errs = append(errs, err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// initDatabase opens the user store and applies migrations
func (app *Application) initDatabase() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := OpenStore(ctx, app.cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	version, _, err := db.MigrationVersion()
	if err != nil {
		app.logger.Warn("could not read schema version", "error", err)
	}
	app.logger.Info("database ready", "driver", app.cfg.DatabaseDriver, "schema_version", version)

	empty, err := db.Users().IsEmpty(ctx)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to inspect user store: %w", err)
	}
	if empty {
		app.logger.Warn("no users provisioned, nobody can log in until one is created with `cookieauth users create`")
	}
	return nil
}

// initServices wires the password hasher, token codec and session services
func (app *Application) initServices() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	keys, err := InitSigningKeys(app.cfg, app.logger)
	if err != nil {
		return err
	}
	app.keys = keys
	codec := jwtx.NewCodec(keys)

	app.users = service.NewUserService(app.db, cryptox.NewHasher(pepper))
	app.validator = &service.TokenValidator{Codec: codec, Identities: app.users}
	app.sessions = &service.SessionService{
		Credentials: app.users,
		Issuer: &service.TokenIssuer{
			Codec:      codec,
			Issuer:     app.cfg.Issuer,
			AccessTTL:  app.cfg.AccessTokenTTL,
			RefreshTTL: app.cfg.RefreshTokenTTL,
		},
		Validator: app.validator,
	}

	return nil
}

// initLimiter picks the rate limit store and registers what housekeeping
// has to sweep.
func (app *Application) initLimiter() {
	sweepers := map[string]service.Sweeper{}

	switch app.cfg.RateLimitBackend {
	case "redis":
		app.redis = redis.NewClient(&redis.Options{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
		})
		app.limiter = httpx.NewRedisLimiterStore(app.redis, "cookieauth:ratelimit")
		app.logger.Info("rate limiting backed by redis", "addr", app.cfg.RedisAddr)

	default:
		mem := httpx.NewMemoryLimiterStore()
		sweepers["rate_limiter"] = mem
		app.limiter = mem
	}

	app.housekeepingService = service.NewHousekeepingService(
		sweepers,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	cookieCfg, err := app.cfg.CookieConfig()
	if err != nil {
		return err
	}
	cookies := httpapi.NewCookieTransport(cookieCfg)

	authenticators, err := httpapi.NewAuthenticators(app.cfg.Authenticators, cookies, app.validator)
	if err != nil {
		return err
	}

	proxies, err := httpx.ParseTrustedProxies(app.cfg.TrustedProxies)
	if err != nil {
		return err
	}

	if !cookieCfg.Secure {
		app.logger.Warn("session cookies are not marked Secure", "env", app.cfg.Env)
	}

	router := httpapi.NewRouter(httpapi.Options{
		BuildVersion:   BuildVersion,
		Store:          app.db,
		Keys:           app.keys,
		Limiter:        app.limiter,
		ClientIP:       proxies.KeyExtractor(),
		Cookies:        cookies,
		Authenticators: authenticators,
		CORS: httpx.CORSConfig{
			AllowedOrigins:   app.cfg.CORSAllowedOrigins,
			ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
			AllowCredentials: true,
		},
		Logger: app.logger,
	})
	router.Sessions = app.sessions
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
