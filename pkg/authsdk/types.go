package authsdk

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254" example:"a@b.com"`
	Password string `json:"password" validate:"required,max=128" example:"secret"`
}

// UserResponse is the public view of the authenticated user, returned by
// login and me.
type UserResponse struct {
	// ID is the user's ULID
	ID string `json:"id" example:"01HXAMPLE00000000000000000"`

	Email string `json:"email" example:"a@b.com"`

	// Name is "first last", or the username when both are blank
	Name string `json:"name" example:"Ada Lovelace"`
}

// HealthResponse represents the health check endpoint response.
type HealthResponse struct {
	// Status is "ok" or "degraded"
	Status string `json:"status" example:"ok"`

	// Uptime is how long the service has been running
	Uptime string `json:"uptime" example:"1h2m3s"`

	// Version is the build version
	Version string `json:"version" example:"v0.1.0"`

	// Checks contains dependency checks (readyz only)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks is the per-dependency readiness breakdown.
type HealthChecks struct {
	Database    string `json:"database" example:"ok"`
	Signer      string `json:"signer" example:"ok"`
	RateLimiter string `json:"rate_limiter,omitempty" example:"ok"`
}
