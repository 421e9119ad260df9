package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
)

// APIError is the {"detail": "..."} error shape. The server writes it with
// WriteError and the client returns it for any non-2xx response.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Detail is the human readable message
	Detail string `json:"detail"`

	// Errors maps request fields to what was wrong with them (400 only)
	Errors map[string]string `json:"errors,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Detail)
}

// Is matches on status code and detail so callers can compare against the
// predefined errors below with errors.Is.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode && e.Detail == t.Detail
}

// WriteError writes this error to an HTTP response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, e)
}

var (
	// ErrInvalidRequestBody is returned when the body isn't JSON or fails
	// validation. The copy written to the wire carries the field errors.
	ErrInvalidRequestBody = &APIError{
		StatusCode: http.StatusBadRequest,
		Detail:     "Invalid request body.",
	}

	// ErrInvalidCredentials is returned by login for an unknown email or a
	// wrong password alike.
	ErrInvalidCredentials = &APIError{
		StatusCode: http.StatusUnauthorized,
		Detail:     "Invalid credentials.",
	}

	// ErrNotAuthenticated is returned by endpoints that need a session when
	// the request has no valid access token.
	ErrNotAuthenticated = &APIError{
		StatusCode: http.StatusUnauthorized,
		Detail:     "Authentication credentials were not provided.",
	}

	// ErrRefreshTokenNotFound is returned by refresh without a refresh cookie.
	ErrRefreshTokenNotFound = &APIError{
		StatusCode: http.StatusUnauthorized,
		Detail:     "Refresh token not found.",
	}

	// ErrInvalidRefreshToken is returned by refresh for a forged, expired or
	// wrong type refresh cookie.
	ErrInvalidRefreshToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Detail:     "Invalid or expired refresh token.",
	}

	// ErrTooManyRequests mirrors what the rate limiter writes.
	ErrTooManyRequests = &APIError{
		StatusCode: http.StatusTooManyRequests,
		Detail:     "Too many requests.",
	}

	// ErrServerError is returned when something broke server side.
	ErrServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Detail:     "Internal server error.",
	}
)

// NewValidationError returns ErrInvalidRequestBody with the failing fields.
func NewValidationError(fields map[string]string) *APIError {
	return &APIError{
		StatusCode: ErrInvalidRequestBody.StatusCode,
		Detail:     ErrInvalidRequestBody.Detail,
		Errors:     fields,
	}
}

// parseErrorResponse turns a non-2xx response into an *APIError, falling
// back to the status text when the body isn't ours (a proxy error page,
// say).
func parseErrorResponse(resp *http.Response, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Detail != "" {
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Detail:     fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
