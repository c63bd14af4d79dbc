package session

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// passwordKey digests the raw password so bcrypt's 72 byte input limit
// never truncates or rejects a long password.
func passwordKey(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	dst := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(dst, sum[:])
	return dst
}

// HashPassword returns the stored form of password at the given bcrypt cost.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(passwordKey(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// checkPassword reports whether password matches a hash made by HashPassword.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), passwordKey(password)) == nil
}
