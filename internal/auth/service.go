package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mutua-sr/apptwo-sub001/internal/core"
	"github.com/Mutua-sr/apptwo-sub001/internal/store"
)

var (
	// ErrAuthFailed is returned when a bearer token cannot be resolved to an
	// identity. Connections presenting such tokens are closed before admission.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when registering an existing username.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidUsername is returned when username doesn't meet constraints.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
)

// Resolver yields a stable user identity for a connection's credentials.
// Consumed once per connection at setup time.
type Resolver interface {
	Resolve(ctx context.Context, token string) (core.Identity, error)
}

// Service provides identity resolution and account operations.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
}

// NewService creates the authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{store: userStore, jwtConfig: jwtConfig}
}

// Resolve validates a bearer token and returns the identity it carries.
// Any invalid, expired, or malformed token fails with ErrAuthFailed.
func (s *Service) Resolve(_ context.Context, token string) (core.Identity, error) {
	claims, err := ValidateToken(s.jwtConfig, token)
	if err != nil {
		return core.Identity{}, ErrAuthFailed
	}
	return core.Identity{
		UserID:      claims.UserID,
		DisplayName: claims.DisplayName,
		Avatar:      claims.Avatar,
	}, nil
}

// Exists reports whether the user identity is known to the platform.
func (s *Service) Exists(ctx context.Context, userID string) (bool, error) {
	_, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup user: %w", err)
	}
	return true, nil
}

// Register creates a new account and returns a signed token.
func (s *Service) Register(ctx context.Context, username, password, displayName string) (string, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 32 {
		return "", ErrInvalidUsername
	}
	if len(password) < 6 {
		return "", ErrInvalidPassword
	}
	if displayName == "" {
		displayName = username
	}

	if existing, err := s.store.GetUserByUsername(ctx, username); err == nil && existing != nil {
		return "", ErrUserExists
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := &store.User{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hashed,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.DisplayName, user.Avatar)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// Login verifies credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.DisplayName, user.Avatar)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}
