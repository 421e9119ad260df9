package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/cookieauth/internal/auth/domain"
	"github.com/aussiebroadwan/cookieauth/internal/auth/store"
	"github.com/aussiebroadwan/cookieauth/pkg/cryptox"
	"github.com/aussiebroadwan/cookieauth/pkg/idx"
	"github.com/aussiebroadwan/cookieauth/pkg/slogx"
	"github.com/aussiebroadwan/cookieauth/pkg/validatex"
)

// PasswordHasher is implemented by *cryptox.Hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) error
}

// UserService is the user directory: credential checks for login, identity
// lookup for token validation, and provisioning.
type UserService struct {
	Store  store.Store
	Hasher PasswordHasher
	Now    func() time.Time

	// dummyHash is verified against for unknown emails so they cost the
	// same as a wrong password.
	dummyHash string
}

// NewUserService wires a UserService. The dummy hash is computed up front
// so every unknown-email login costs exactly one verify.
func NewUserService(s store.Store, hasher PasswordHasher) *UserService {
	svc := &UserService{
		Store:  s,
		Hasher: hasher,
		Now:    time.Now,
	}
	if hash, err := hasher.Hash(dummyPassword); err == nil {
		svc.dummyHash = hash
	}
	return svc
}

const dummyPassword = "not-a-real-password"

// burnHash spends one hash worth of work on an unknown email.
func (s *UserService) burnHash(password string) {
	if s.dummyHash == "" {
		_, _ = s.Hasher.Hash(password)
		return
	}
	_ = s.Hasher.Verify(password, s.dummyHash)
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// VerifyCredentials returns the identity for a matching, active account.
// Every failure, whether unknown email, wrong password or a disabled user,
// is ErrInvalidCredentials.
func (s *UserService) VerifyCredentials(ctx context.Context, email, password string) (domain.Identity, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return domain.Identity{}, fmt.Errorf("get user by email: %w", err)
		}

		s.burnHash(password)
		l.Info("login failed: unknown email")
		return domain.Identity{}, ErrInvalidCredentials
	}

	if err := s.Hasher.Verify(password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrMismatch) {
			// A hash we can't parse is a data problem, not a bad password
			l.Error("stored password hash unusable", slog.String("user_id", user.ID), slog.Any("error", err))
		}
		l.Info("login failed: wrong password", slog.String("user_id", user.ID))
		return domain.Identity{}, ErrInvalidCredentials
	}

	if !user.IsActive {
		l.Info("login failed: user inactive", slog.String("user_id", user.ID))
		return domain.Identity{}, ErrInvalidCredentials
	}

	return user.Identity(), nil
}

// LookupIdentity implements IdentityLookup. Inactive users are reported as
// not found so their outstanding tokens stop working.
func (s *UserService) LookupIdentity(ctx context.Context, id string) (domain.Identity, error) {
	user, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Identity{}, ErrUserNotFound
		}
		return domain.Identity{}, fmt.Errorf("get user by id: %w", err)
	}

	if !user.IsActive {
		return domain.Identity{}, ErrUserNotFound
	}

	return user.Identity(), nil
}

// CreateUserInput is what the CLI collects when provisioning a user.
type CreateUserInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=6,max=128"`
	Username  string `json:"username" validate:"max=150"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Inactive  bool   `json:"inactive"`
}

// CreateUser validates in, hashes the password and stores the user. A taken
// email is ErrEmailTaken.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (domain.User, error) {
	in.Email = NormalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if err := validatex.Struct(in); err != nil {
		return domain.User{}, err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := domain.User{
		ID:           idx.NewAt(now),
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		IsActive:     !in.Inactive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user created", slog.String("user_id", user.ID))
	return user, nil
}

func (s *UserService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
