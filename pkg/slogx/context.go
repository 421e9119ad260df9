package slogx

import (
	"context"
	"log/slog"
	"sync"
)

type ctxKey struct{}

type scope struct {
	logger *slog.Logger
	req    *requestInfo // nil outside HTTPMiddleware
}

// requestInfo is shared by every context derived from one request, so the
// access log written after the handler returns sees who made the request.
type requestInfo struct {
	mu     sync.Mutex
	userID string
}

func (ri *requestInfo) setUser(id string) {
	ri.mu.Lock()
	ri.userID = id
	ri.mu.Unlock()
}

func (ri *requestInfo) user() string {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	return ri.userID
}

func scopeFrom(ctx context.Context) (scope, bool) {
	s, ok := ctx.Value(ctxKey{}).(scope)
	return s, ok
}

// WithContext stores logger in ctx.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	s, _ := scopeFrom(ctx)
	s.logger = logger
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the logger in ctx, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if s, ok := scopeFrom(ctx); ok && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// WithUserID tags the request logger with the authenticated user. Inside
// HTTPMiddleware the access log line carries it too.
func WithUserID(ctx context.Context, userID string) context.Context {
	s, _ := scopeFrom(ctx)
	if s.req != nil {
		s.req.setUser(userID)
	}
	s.logger = FromContext(ctx).With("user_id", userID)
	return context.WithValue(ctx, ctxKey{}, s)
}
