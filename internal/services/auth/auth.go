// Package auth provides the registration and login surface
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/findosh/ordertrack/internal/models"
	"github.com/findosh/ordertrack/internal/services/session"
	"github.com/findosh/ordertrack/internal/storage"
	"github.com/findosh/ordertrack/internal/validation"
)

// Account errors returned by Service.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidUsername    = fmt.Errorf("username must be at least %d characters", validation.MinUsernameLength)
	ErrInvalidPassword    = fmt.Errorf("password must be at least %d characters", validation.MinPasswordLength)
)

// Service handles account operations
type Service struct {
	userRepo   *storage.UserRepository
	sessions   *session.Manager
	bcryptCost int
	log        zerolog.Logger
}

// NewService creates a new auth service
func NewService(userRepo *storage.UserRepository, sessions *session.Manager, bcryptCost int, log zerolog.Logger) *Service {
	return &Service{
		userRepo:   userRepo,
		sessions:   sessions,
		bcryptCost: bcryptCost,
		log:        log.With().Str("component", "auth").Logger(),
	}
}

// Register creates a new user account. It does not log the user in.
func (s *Service) Register(ctx context.Context, username, password, confirmPassword string) (*models.User, error) {
	if !validation.IsValidUsername(username) {
		return nil, ErrInvalidUsername
	}
	if !validation.IsValidPassword(password) {
		return nil, ErrInvalidPassword
	}
	if !validation.PasswordsMatch(password, confirmPassword) {
		return nil, ErrPasswordMismatch
	}

	count, err := s.userRepo.CountByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	hash, err := session.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(username, hash)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicateUsername) {
			return nil, ErrUsernameTaken
		}
		s.log.Error().Err(err).Str("username", username).Msg("failed to create user")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info().Str("username", username).Msg("user registered")
	return user, nil
}

// Login authenticates the credentials and starts a session
func (s *Service) Login(ctx context.Context, username, password string, remember bool) (*models.User, error) {
	user, err := s.sessions.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.log.Debug().Str("username", username).Msg("rejected credentials")
		return nil, ErrInvalidCredentials
	}

	changed := user.RememberMe != remember
	if changed {
		user.RememberMe = remember
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	if err := s.sessions.Login(ctx, user, remember); err != nil {
		if changed {
			user.RememberMe = !remember
			if rerr := s.userRepo.Update(ctx, user); rerr != nil {
				s.log.Error().Err(rerr).Str("username", username).Msg("failed to restore remember flag")
			}
		}
		return nil, err
	}
	return user, nil
}

// Logout ends the current session. It always succeeds.
func (s *Service) Logout(ctx context.Context) {
	s.sessions.Logout(ctx)
}
