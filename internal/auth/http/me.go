package http

import (
	"net/http"

	"github.com/aussiebroadwan/cookieauth/pkg/authsdk"
	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
)

// MeHandler godoc
//
//	@Summary		Current user
//	@Description	Returns the user the access_token cookie belongs to.
//	@Tags			Session
//	@Security		CookieAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserResponse	"id, email, name"
//	@Failure		401	{object}	authsdk.APIError		"Authentication credentials were not provided"
//	@Router			/auth/me [get].
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := SessionFromContext(r.Context()).Identity()
		if !ok {
			authsdk.ErrNotAuthenticated.WriteError(w)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, userResponse(identity))
	}
}
