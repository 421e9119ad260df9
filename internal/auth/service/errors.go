package service

import "errors"

var (
	// Login
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// Token validation. Every one of these means "treat the caller as
	// anonymous"; none of them is an infrastructure failure.
	ErrInvalidToken   = errors.New("invalid_token")
	ErrWrongTokenType = errors.New("wrong_token_type")
	ErrTokenExpired   = errors.New("token_expired")
	ErrUnknownSubject = errors.New("unknown_subject")
	ErrMissingToken   = errors.New("missing_token")

	// Refresh
	ErrMissingRefreshToken = errors.New("missing_refresh_token")
	ErrInvalidRefreshToken = errors.New("invalid_refresh_token")

	// User directory
	ErrUserNotFound = errors.New("user_not_found")
	ErrEmailTaken   = errors.New("email_taken")
)

// IsTokenError reports whether err is one of the token validation failures
// as opposed to, say, the user store being down.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrWrongTokenType) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrUnknownSubject) ||
		errors.Is(err, ErrMissingToken)
}

// Reason is the short label used for metrics and debug logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidToken):
		return "invalid"
	case errors.Is(err, ErrWrongTokenType):
		return "wrong_type"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrUnknownSubject):
		return "unknown_subject"
	case errors.Is(err, ErrMissingToken), errors.Is(err, ErrMissingRefreshToken):
		return "missing"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "error"
	}
}
