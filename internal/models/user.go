// Package models defines core domain types
package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account that owns orders
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never serialize to JSON
	RememberMe   bool      `json:"remember_me"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser creates a new user with generated ID and timestamp
func NewUser(username, passwordHash string) *User {
	return &User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		RememberMe:   false,
		CreatedAt:    time.Now().UTC(),
	}
}
