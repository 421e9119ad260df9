package http

import (
	"net/http"

	"github.com/aussiebroadwan/cookieauth/pkg/authsdk"
	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
)

type LogoutHandler struct {
	Cookies *CookieTransport
}

// ServeHTTP handles logout. Tokens stay valid until they expire; only the
// browser's copies are dropped.
//
//	@Summary		Log out
//	@Description	Clears the access_token and refresh_token cookies. Anonymous callers get 401,
//	@Description	but their cookies are cleared all the same.
//	@Tags			Session
//	@Security		CookieAuth
//	@Success		204	"Cookies cleared"
//	@Failure		401	{object}	authsdk.APIError	"Authentication credentials were not provided"
//	@Failure		500	{object}	authsdk.APIError	"Session could not be resolved"
//	@Router			/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Stale or forged cookies get dropped too
	h.Cookies.Clear(w)

	if sessionErr(r.Context()) != nil {
		authsdk.ErrServerError.WriteError(w)
		return
	}
	if !SessionFromContext(r.Context()).IsAuthenticated() {
		authsdk.ErrNotAuthenticated.WriteError(w)
		return
	}

	httpx.WriteEmpty(w, http.StatusNoContent)
}
