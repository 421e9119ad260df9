package domain

import (
	"strings"
	"time"
)

type User struct {
	ID           string
	Email        string // stored lowercased
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string // argon2 encoded
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName is "first last", falling back to the username when both are
// blank.
func (u User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.Username
	}
	return name
}

// Identity returns the public view of the user that gets attached to
// authenticated requests.
func (u User) Identity() Identity {
	return Identity{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName(),
	}
}

// Identity is who a request is authenticated as.
type Identity struct {
	ID          string
	Email       string
	DisplayName string
}
