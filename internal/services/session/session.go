// Package session tracks which user is signed in and keeps a remembered
// login across process restarts.
package session

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/findosh/ordertrack/internal/models"
	"github.com/findosh/ordertrack/internal/storage"
)

// Persisted setting keys.
const (
	keyLoggedIn      = "is_logged_in"
	keyRememberToken = "remember_token"
)

// dummyHash is compared when a username is unknown so that a missing user
// costs the same as a wrong password.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Manager is the LoggedOut / LoggedIn(user) state machine.
type Manager struct {
	users    *storage.UserRepository
	settings *storage.SettingsRepository
	tokens   *RememberTokens
	log      zerolog.Logger

	mu      sync.Mutex
	current *models.User
}

// NewManager creates a session manager in the LoggedOut state
func NewManager(users *storage.UserRepository, settings *storage.SettingsRepository, tokens *RememberTokens, log zerolog.Logger) *Manager {
	return &Manager{
		users:    users,
		settings: settings,
		tokens:   tokens,
		log:      log.With().Str("component", "session").Logger(),
	}
}

// Authenticate returns the user whose username and password both match
// exactly, or nil. It never changes session state.
func (m *Manager) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := m.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	hash := dummyHash
	if user != nil {
		hash = user.PasswordHash
	}
	if !checkPassword(hash, password) || user == nil {
		return nil, nil
	}
	return user, nil
}

// Login moves to LoggedIn(user). With remember set, a token for the
// username is persisted so ResolveCurrentUser can restore it after a restart;
// otherwise any previous token is removed.
func (m *Manager) Login(ctx context.Context, user *models.User, remember bool) error {
	set := map[string]string{keyLoggedIn: strconv.FormatBool(true)}
	var del []string

	if remember {
		token, err := m.tokens.Issue(user.Username)
		if err != nil {
			return err
		}
		set[keyRememberToken] = token
	} else {
		del = append(del, keyRememberToken)
	}

	if err := m.settings.Apply(ctx, set, del); err != nil {
		m.log.Error().Err(err).Str("username", user.Username).Msg("failed to persist login")
		return fmt.Errorf("failed to persist login: %w", err)
	}

	m.mu.Lock()
	m.current = user
	m.mu.Unlock()

	m.log.Info().Str("username", user.Username).Bool("remember", remember).Msg("logged in")
	return nil
}

// Logout moves to LoggedOut. The in-memory user is always cleared; a failure
// to persist the change is logged and otherwise ignored.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	err := m.settings.Apply(ctx,
		map[string]string{keyLoggedIn: strconv.FormatBool(false)},
		[]string{keyRememberToken},
	)
	if err != nil {
		m.log.Error().Err(err).Msg("failed to persist logout")
		return
	}
	m.log.Info().Msg("logged out")
}

// ResolveCurrentUser returns the signed-in user, restoring it from the
// remembered login when the process has none in memory. It returns nil when
// nobody is signed in or the remembered user no longer exists; stale state is
// left for the caller to clear.
func (m *Manager) ResolveCurrentUser(ctx context.Context) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return m.current, nil
	}

	loggedIn, err := m.IsLoggedIn(ctx)
	if err != nil || !loggedIn {
		return nil, err
	}

	username, err := m.RememberedUsername(ctx)
	if err != nil || username == "" {
		return nil, err
	}

	user, err := m.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to restore user: %w", err)
	}
	if user == nil {
		m.log.Warn().Str("username", username).Msg("remembered user no longer exists")
		return nil, nil
	}

	m.current = user
	m.log.Debug().Str("username", username).Msg("restored remembered login")
	return user, nil
}

// IsLoggedIn reports the persisted logged-in flag.
func (m *Manager) IsLoggedIn(ctx context.Context) (bool, error) {
	value, ok, err := m.settings.Get(ctx, keyLoggedIn)
	if err != nil || !ok {
		return false, err
	}
	loggedIn, err := strconv.ParseBool(value)
	if err != nil {
		m.log.Warn().Str("value", value).Msg("ignoring malformed logged-in flag")
		return false, nil
	}
	return loggedIn, nil
}

// RememberedUsername returns the username saved by the last remember-me
// login, or "" when there is none or its token is no longer valid.
func (m *Manager) RememberedUsername(ctx context.Context) (string, error) {
	token, ok, err := m.settings.Get(ctx, keyRememberToken)
	if err != nil || !ok {
		return "", err
	}
	username, err := m.tokens.Parse(token)
	if err != nil {
		m.log.Debug().Err(err).Msg("discarding remember token")
		return "", nil
	}
	return username, nil
}
