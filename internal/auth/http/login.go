package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/cookieauth/internal/auth/domain"
	"github.com/aussiebroadwan/cookieauth/internal/auth/service"
	"github.com/aussiebroadwan/cookieauth/pkg/authsdk"
	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
	"github.com/aussiebroadwan/cookieauth/pkg/slogx"
	"github.com/aussiebroadwan/cookieauth/pkg/validatex"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type LoginHandler struct {
	Sessions *service.SessionService
	Cookies  *CookieTransport
	Now      func() time.Time
}

// ServeHTTP handles password login.
//
//	@Summary		Log in
//	@Description	Verifies the email and password and sets the access_token and refresh_token cookies.
//	@Description	Unknown emails and wrong passwords get the same answer.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.UserResponse	"The authenticated user, with session cookies set"
//	@Failure		400		{object}	authsdk.APIError		"Invalid request body"
//	@Failure		401		{object}	authsdk.APIError		"Invalid credentials"
//	@Failure		429		{object}	authsdk.APIError		"Too many requests"
//	@Failure		500		{object}	authsdk.APIError		"Internal server error"
//	@Router			/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		authsdk.NewValidationError(map[string]string{"body": "must be a JSON object"}).WriteError(w)
		return
	}

	if err := validatex.Struct(req); err != nil {
		var verr *validatex.ValidationError
		if errors.As(err, &verr) {
			authsdk.NewValidationError(verr.Fields()).WriteError(w)
			return
		}
		authsdk.ErrInvalidRequestBody.WriteError(w)
		return
	}

	now := h.Now()
	identity, pair, err := h.Sessions.Login(ctx, req.Email, req.Password, now)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)
		return
	default:
		log.Error("login failed", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	h.Cookies.Attach(w, pair, now)
	httpx.WriteJSON(w, http.StatusOK, userResponse(identity))
}

func userResponse(id domain.Identity) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:    id.ID,
		Email: id.Email,
		Name:  id.DisplayName,
	}
}
