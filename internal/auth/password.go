package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordVerifier compares a plaintext password against a stored hash.
//
// The hashing algorithm is a collaborator choice, not part of this core;
// the default implementation uses bcrypt.
type PasswordVerifier interface {
	Matches(plaintext, hash string) bool
}

// BcryptVerifier verifies bcrypt hashes.
type BcryptVerifier struct{}

// Matches reports whether plaintext hashes to the stored bcrypt hash.
func (BcryptVerifier) Matches(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}
