package storage

import (
	"context"
	"database/sql"
	"errors"
	"sort"
)

// SettingsRepository is the small key-value area that survives restarts
type SettingsRepository struct {
	db *DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the value stored under key and whether it exists
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storeErr("get setting", err)
	}
	return value, true, nil
}

// Apply writes every key in set and removes every key in del in one
// transaction. Either all changes land or none do.
func (r *SettingsRepository) Apply(ctx context.Context, set map[string]string, del []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin settings", err)
	}
	defer tx.Rollback()

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			k, set[k],
		); err != nil {
			return storeErr("set setting", err)
		}
	}

	for _, k := range del {
		if _, err := tx.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", k); err != nil {
			return storeErr("delete setting", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit settings", err)
	}
	return nil
}
