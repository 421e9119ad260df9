package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/cookieauth/internal/auth/domain"
	"github.com/aussiebroadwan/cookieauth/internal/auth/service"
	"github.com/aussiebroadwan/cookieauth/pkg/authsdk"
	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
	"github.com/aussiebroadwan/cookieauth/pkg/slogx"
)

type RefreshHandler struct {
	Sessions *service.SessionService
	Cookies  *CookieTransport
	Now      func() time.Time
}

// ServeHTTP swaps the refresh cookie for a new pair.
//
//	@Summary		Refresh the session
//	@Description	Reads the refresh_token cookie and sets a new access_token and refresh_token pair.
//	@Description	The presented refresh token is not revoked.
//	@Tags			Session
//	@Security		RefreshCookie
//	@Success		200	"New cookies set"
//	@Failure		401	{object}	authsdk.APIError	"Refresh token not found, or invalid or expired"
//	@Failure		429	{object}	authsdk.APIError	"Too many requests"
//	@Failure		500	{object}	authsdk.APIError	"Internal server error"
//	@Router			/auth/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, _ := h.Cookies.Read(r, domain.TokenTypeRefresh)
	now := h.Now()

	_, pair, err := h.Sessions.Refresh(ctx, raw, now)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrMissingRefreshToken):
		authsdk.ErrRefreshTokenNotFound.WriteError(w)
		return
	case errors.Is(err, service.ErrInvalidRefreshToken):
		slogx.FromContext(ctx).Debug("refresh rejected", "reason", service.Reason(err))
		authsdk.ErrInvalidRefreshToken.WriteError(w)
		return
	default:
		slogx.FromContext(ctx).Error("refresh failed", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	h.Cookies.Attach(w, pair, now)
	httpx.WriteEmpty(w, http.StatusOK)
}
