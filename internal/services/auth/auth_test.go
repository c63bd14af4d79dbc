package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/findosh/ordertrack/internal/models"
	"github.com/findosh/ordertrack/internal/services/session"
	"github.com/findosh/ordertrack/internal/storage"
)

func newService(t *testing.T, db *storage.DB) (*Service, *storage.UserRepository, *session.Manager) {
	t.Helper()
	users := storage.NewUserRepository(db)
	sessions := session.NewManager(users, storage.NewSettingsRepository(db),
		session.NewRememberTokens("test-secret", time.Hour), zerolog.Nop())
	return NewService(users, sessions, bcrypt.MinCost, zerolog.Nop()), users, sessions
}

func setupTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func TestService_RegisterThenLogin(t *testing.T) {
	ctx := context.Background()

	for _, creds := range [][2]string{
		{"ali", "123456"},
		{"alice", "secret1"},
		{"a-much-longer-username", "a much longer passphrase"},
		{"bob", strings.Repeat("a", 80)},
		{"carol", strings.Repeat("pässwörd-", 20)},
	} {
		t.Run(creds[0], func(t *testing.T) {
			svc, _, _ := newService(t, setupTestDB(t))

			registered, err := svc.Register(ctx, creds[0], creds[1], creds[1])
			require.NoError(t, err)
			assert.NotEqual(t, creds[1], registered.PasswordHash, "password is not stored in plain form")

			user, err := svc.Login(ctx, creds[0], creds[1], false)
			require.NoError(t, err)
			assert.Equal(t, creds[0], user.Username)
			assert.Equal(t, registered.ID, user.ID)
		})
	}
}

func TestService_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newService(t, setupTestDB(t))

	tests := []struct {
		name                        string
		username, password, confirm string
		want                        error
	}{
		{"empty username", "", "secret1", "secret1", ErrInvalidUsername},
		{"short username", "al", "secret1", "secret1", ErrInvalidUsername},
		{"empty password", "alice", "", "", ErrInvalidPassword},
		{"short password", "alice", "12345", "12345", ErrInvalidPassword},
		{"mismatch", "alice", "secret1", "secret2", ErrPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Register(ctx, tt.username, tt.password, tt.confirm)
			assert.Nil(t, user)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	count, err := users.CountByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, count, "rejected registrations write nothing")
}

func TestService_RegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, setupTestDB(t))

	_, err := svc.Register(ctx, "alice", "secret1", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "different-password", "different-password")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestService_RegisterRaceOnInsert(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	svc, _, _ := newService(t, storage.Wrap(conn))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(errors.New("disk I/O error"))

	user, err := svc.Register(context.Background(), "alice", "secret1", "secret1")

	assert.Nil(t, user)
	var se *storage.StoreError
	assert.ErrorAs(t, err, &se, "store failures surface as StoreError")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong password", func(t *testing.T) {
		svc, _, sessions := newService(t, setupTestDB(t))
		_, err := svc.Register(ctx, "alice", "secret1", "secret1")
		require.NoError(t, err)

		user, err := svc.Login(ctx, "alice", "secret2", true)

		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		current, err := sessions.ResolveCurrentUser(ctx)
		require.NoError(t, err)
		assert.Nil(t, current)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _, _ := newService(t, setupTestDB(t))

		_, err := svc.Login(ctx, "nobody", "secret1", false)

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("remember me is recorded", func(t *testing.T) {
		svc, users, sessions := newService(t, setupTestDB(t))
		_, err := svc.Register(ctx, "alice", "secret1", "secret1")
		require.NoError(t, err)

		_, err = svc.Login(ctx, "alice", "secret1", true)
		require.NoError(t, err)

		stored, err := users.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, stored.RememberMe)

		remembered, err := sessions.RememberedUsername(ctx)
		require.NoError(t, err)
		assert.Equal(t, "alice", remembered)

		_, err = svc.Login(ctx, "alice", "secret1", false)
		require.NoError(t, err)
		stored, err = users.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, stored.RememberMe)
	})
}

func TestService_Logout(t *testing.T) {
	ctx := context.Background()
	svc, _, sessions := newService(t, setupTestDB(t))
	_, err := svc.Register(ctx, "alice", "secret1", "secret1")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "alice", "secret1", false)
	require.NoError(t, err)

	svc.Logout(ctx)

	current, err := sessions.ResolveCurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestService_LongPasswordsStayDistinct(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, setupTestDB(t))

	prefix := strings.Repeat("x", 72)
	_, err := svc.Register(ctx, "alice", prefix+"-first", prefix+"-first")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", prefix+"-second", false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "alice", prefix, false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := svc.Login(ctx, "alice", prefix+"-first", false)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestService_LoginRestoresRememberFlagOnSessionFailure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	svc, _, _ := newService(t, storage.Wrap(conn))

	hash, err := session.HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	alice := models.NewUser("alice", hash)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = ?")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "remember_me", "created_at"}).
			AddRow(alice.ID.String(), "alice", hash, false, alice.CreatedAt))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET remember_me = ?")).
		WithArgs(true, alice.ID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO settings")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET remember_me = ?")).
		WithArgs(false, alice.ID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, err := svc.Login(context.Background(), "alice", "secret1", true)

	assert.Nil(t, user)
	var se *storage.StoreError
	assert.ErrorAs(t, err, &se)
	assert.NoError(t, mock.ExpectationsWereMet(), "remember flag is written back to its old value")
}
