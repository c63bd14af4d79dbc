package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/findosh/ordertrack/internal/models"
	"github.com/google/uuid"
)

// UserRepository provides user data access
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, password_hash, remember_me, created_at`

// Create inserts a new user. A taken username yields ErrDuplicateUsername.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, remember_me, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID.String(),
		user.Username,
		user.PasswordHash,
		user.RememberMe,
		user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateUsername
	}
	return storeErr("create user", err)
}

// Update persists the mutable part of a user, which is only the remember-me flag
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET remember_me = ? WHERE id = ?",
		user.RememberMe,
		user.ID.String(),
	)
	if err != nil {
		return storeErr("update user", err)
	}
	return expectRow("update user", res)
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id.String()))
}

// GetByUsername retrieves a user by exact, case-sensitive username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

// CountByUsername returns how many users hold username (0 or 1)
func (r *UserRepository) CountByUsername(ctx context.Context, username string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&count)
	if err != nil {
		return 0, storeErr("count users", err)
	}
	return count, nil
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var id string

	err := row.Scan(
		&id,
		&user.Username,
		&user.PasswordHash,
		&user.RememberMe,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("scan user", err)
	}

	user.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, storeErr("scan user", fmt.Errorf("bad id %q: %w", id, err))
	}

	return &user, nil
}

func expectRow(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
