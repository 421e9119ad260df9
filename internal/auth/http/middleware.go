package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/cookieauth/internal/auth/domain"
	"github.com/aussiebroadwan/cookieauth/internal/auth/service"
	"github.com/aussiebroadwan/cookieauth/pkg/authsdk"
	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
	"github.com/aussiebroadwan/cookieauth/pkg/slogx"
)

type sessionKey struct{}

// session is what SessionMiddleware leaves in the request context. err is
// set only when authentication could not be decided because a dependency
// failed.
type session struct {
	state domain.SessionState
	err   error
}

// SessionFromContext returns the session state of the request. Requests
// that never went through SessionMiddleware are anonymous.
func SessionFromContext(ctx context.Context) domain.SessionState {
	s, _ := ctx.Value(sessionKey{}).(session)
	return s.state
}

// SessionMiddleware attaches Authenticated or Anonymous to every request.
// It never rejects: authorization is RequireAuthenticated's job.
//
// The first authenticator that finds a credential decides. A credential
// that fails validation leaves the request anonymous without trying the
// rest.
func SessionMiddleware(authenticators []Authenticator, now func() time.Time) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)
			s := session{state: domain.Anonymous()}

			for _, a := range authenticators {
				identity, err := a.Authenticate(r, now())
				if errors.Is(err, service.ErrMissingToken) {
					continue
				}

				switch {
				case err == nil:
					s.state = domain.Authenticated(identity)
					ctx = httpx.WithUserID(ctx, identity.ID)
					ctx = slogx.WithUserID(ctx, identity.ID)
				case service.IsTokenError(err):
					log.Debug("session: anonymous",
						slog.String("authenticator", a.Name()),
						slog.String("reason", service.Reason(err)),
					)
				default:
					log.Error("session: authentication failed",
						slog.String("authenticator", a.Name()),
						slog.Any("error", err),
					)
					s.err = err
				}
				break
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionKey{}, s)))
		})
	}
}

// RequireAuthenticated answers 401 for anonymous requests, or 500 when the
// session could not be resolved.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionErr(r.Context()) != nil {
			authsdk.ErrServerError.WriteError(w)
			return
		}
		if !SessionFromContext(r.Context()).IsAuthenticated() {
			authsdk.ErrNotAuthenticated.WriteError(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionErr is the infrastructure error hit while resolving the session,
// if any.
func sessionErr(ctx context.Context) error {
	s, _ := ctx.Value(sessionKey{}).(session)
	return s.err
}
