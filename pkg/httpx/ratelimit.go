package httpx

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/cookieauth/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit. Only the
	// in-memory store uses it.
	Burst int
}

// Rate limit profiles for the endpoint groups. Each can be overridden via
// environment variables (see init() below).
var (
	// StrictLimit guards login and refresh against credential stuffing.
	// Override with: RATELIMIT_STRICT_REQUESTS, RATELIMIT_STRICT_WINDOW_SEC, RATELIMIT_STRICT_BURST
	StrictLimit = RateLimitConfig{
		RequestsPerWindow: 10,
		Window:            time.Minute,
		Burst:             10,
	}

	// ModerateLimit for authenticated writes such as logout.
	// Override with: RATELIMIT_MODERATE_REQUESTS, RATELIMIT_MODERATE_WINDOW_SEC, RATELIMIT_MODERATE_BURST
	ModerateLimit = RateLimitConfig{
		RequestsPerWindow: 60,
		Window:            time.Minute,
		Burst:             60,
	}

	// LenientLimit for cheap authenticated reads polled by the frontend.
	// Override with: RATELIMIT_LENIENT_REQUESTS, RATELIMIT_LENIENT_WINDOW_SEC, RATELIMIT_LENIENT_BURST
	LenientLimit = RateLimitConfig{
		RequestsPerWindow: 300,
		Window:            time.Minute,
		Burst:             300,
	}

	// PublicLimit for health checks and docs.
	// Override with: RATELIMIT_PUBLIC_REQUESTS, RATELIMIT_PUBLIC_WINDOW_SEC, RATELIMIT_PUBLIC_BURST
	PublicLimit = RateLimitConfig{
		RequestsPerWindow: 1000,
		Window:            time.Minute,
		Burst:             1000,
	}
)

func init() {
	// Allow overriding rate limits via environment variables (useful for testing)
	StrictLimit = ParseRateLimitFromEnv("STRICT", StrictLimit)
	ModerateLimit = ParseRateLimitFromEnv("MODERATE", ModerateLimit)
	LenientLimit = ParseRateLimitFromEnv("LENIENT", LenientLimit)
	PublicLimit = ParseRateLimitFromEnv("PUBLIC", PublicLimit)
}

// ParseRateLimitFromEnv reads rate limit configuration from environment variables.
// Environment variables follow the pattern: RATELIMIT_{prefix}_{field}
// For example: RATELIMIT_STRICT_REQUESTS, RATELIMIT_STRICT_WINDOW_SEC, RATELIMIT_STRICT_BURST
// Invalid or non-positive values keep the default.
func ParseRateLimitFromEnv(prefix string, defaultConfig RateLimitConfig) RateLimitConfig {
	config := defaultConfig

	if val := os.Getenv("RATELIMIT_" + prefix + "_REQUESTS"); val != "" {
		if requests, err := strconv.Atoi(val); err == nil && requests > 0 {
			config.RequestsPerWindow = requests
		}
	}

	if val := os.Getenv("RATELIMIT_" + prefix + "_WINDOW_SEC"); val != "" {
		if windowSec, err := strconv.Atoi(val); err == nil && windowSec > 0 {
			config.Window = time.Duration(windowSec) * time.Second
		}
	}

	if val := os.Getenv("RATELIMIT_" + prefix + "_BURST"); val != "" {
		if burst, err := strconv.Atoi(val); err == nil && burst > 0 {
			config.Burst = burst
		}
	}

	return config
}

// KeyExtractor is a function that extracts a unique key from the request
// for rate limiting purposes (e.g., IP address, user ID)
type KeyExtractor func(*http.Request) string

// IPKeyExtractor keys on the TCP peer address and ignores forwarding
// headers. Behind a reverse proxy use TrustedProxies.KeyExtractor instead.
func IPKeyExtractor(r *http.Request) string {
	var none *TrustedProxies
	return none.ClientIP(r)
}

// UserIDKeyExtractor extracts the user ID from the request context.
// Returns empty string if no user ID is found.
func UserIDKeyExtractor(r *http.Request) string {
	return UserIDFromContext(r.Context())
}

// CompositeKeyExtractor combines multiple key extractors with a separator.
// Example: CompositeKeyExtractor(":", UserIDKeyExtractor, IPKeyExtractor)
// would produce keys like "user123:192.168.1.1"
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		var parts []string
		for _, extractor := range extractors {
			if key := extractor(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// LimiterStore decides whether one more request for key fits in cfg. When
// it refuses, retryAfter says how long the caller should wait.
type LimiterStore interface {
	Allow(ctx context.Context, key string, cfg RateLimitConfig) (allowed bool, retryAfter time.Duration, err error)
}

// MemoryLimiterStore keeps a token bucket per key in process memory. It is
// the default store and only limits within a single replica.
type MemoryLimiterStore struct {
	limiters sync.Map // map[string]*limiterEntry
}

// limiterEntry guards a bucket so Sweep cannot drop it between another
// request's read and its token spend. Once evicted it is never used again.
type limiterEntry struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	evicted bool
}

// NewMemoryLimiterStore returns an empty in-memory store.
func NewMemoryLimiterStore() *MemoryLimiterStore {
	return &MemoryLimiterStore{}
}

// Allow implements LimiterStore.
func (s *MemoryLimiterStore) Allow(_ context.Context, key string, cfg RateLimitConfig) (bool, time.Duration, error) {
	for {
		entry := s.getEntry(key, cfg)

		entry.mu.Lock()
		if entry.evicted {
			// Swept after we loaded it; the next load creates a fresh one
			entry.mu.Unlock()
			continue
		}

		if entry.limiter.Allow() {
			entry.mu.Unlock()
			return true, 0, nil
		}

		// Peek at when the next token lands without consuming it
		reservation := entry.limiter.Reserve()
		delay := reservation.Delay()
		reservation.Cancel()
		entry.mu.Unlock()

		return false, delay, nil
	}
}

// getEntry retrieves or creates the bucket for the given key
func (s *MemoryLimiterStore) getEntry(key string, cfg RateLimitConfig) *limiterEntry {
	if entry, ok := s.limiters.Load(key); ok {
		return entry.(*limiterEntry)
	}

	ratePerSecond := float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RequestsPerWindow
	}

	actual, _ := s.limiters.LoadOrStore(key, &limiterEntry{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	})
	return actual.(*limiterEntry)
}

// Sweep drops limiters whose bucket has refilled completely. A full bucket
// behaves exactly like a fresh one, so nothing is lost. Returns how many
// were removed.
func (s *MemoryLimiterStore) Sweep() int {
	removed := 0
	s.limiters.Range(func(key, value any) bool {
		entry := value.(*limiterEntry)

		entry.mu.Lock()
		defer entry.mu.Unlock()

		if entry.evicted || entry.limiter.Tokens() < float64(entry.limiter.Burst()) {
			return true
		}
		entry.evicted = true
		if s.limiters.CompareAndDelete(key, entry) {
			removed++
		}
		return true
	})
	return removed
}

// Len reports how many keys are tracked.
func (s *MemoryLimiterStore) Len() int {
	n := 0
	s.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// RateLimitMiddleware creates a rate limiting middleware. The scope keeps
// counters of different endpoint groups apart in a shared store. If the
// store fails the request is let through.
func RateLimitMiddleware(store LimiterStore, scope string, config RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			key := keyExtractor(r)
			if key == "" {
				log.Warn("rate limit: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			allowed, delay, err := store.Allow(ctx, scope+":"+key, config)
			if err != nil {
				log.Error("rate limit: store unavailable, allowing request", "scope", scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				retryAfter := max(int((delay + time.Second - 1) / time.Second), 1)

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
				w.Header().Set("X-RateLimit-Window", config.Window.String())

				log.Warn("rate limit exceeded",
					"scope", scope,
					"key", key,
					"endpoint", r.URL.Path,
					"retry_after", retryAfter,
				)

				WriteDetail(w, http.StatusTooManyRequests, "Too many requests.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP limits by client IP. A nil clientIP means IPKeyExtractor.
func RateLimitByIP(store LimiterStore, scope string, config RateLimitConfig, clientIP KeyExtractor) Middleware {
	if clientIP == nil {
		clientIP = IPKeyExtractor
	}
	return RateLimitMiddleware(store, scope, config, clientIP)
}

// RateLimitByUser limits by authenticated user ID, falling back to the
// client IP for anonymous requests. A nil clientIP means IPKeyExtractor.
func RateLimitByUser(store LimiterStore, scope string, config RateLimitConfig, clientIP KeyExtractor) Middleware {
	if clientIP == nil {
		clientIP = IPKeyExtractor
	}
	return RateLimitMiddleware(store, scope, config, CompositeKeyExtractor(":",
		UserIDKeyExtractor,
		clientIP,
	))
}
