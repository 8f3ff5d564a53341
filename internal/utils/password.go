package utils

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost used for staff passwords.
const PasswordCost = bcrypt.DefaultCost

// ErrEmptyPassword is returned when a staff account is seeded without one.
var ErrEmptyPassword = errors.New("empty password")

// HashPassword hashes a staff password.  A cost below bcrypt.MinCost
// (seed scripts pass 0) falls back to PasswordCost.
func HashPassword(plain string, cost int) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	if cost < bcrypt.MinCost {
		cost = PasswordCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored staff password.
// Rows still holding legacy plain-text passwords never match and have to
// be re-seeded through HashPassword.
func VerifyPassword(hash, plain string) bool {
	if hash == "" || plain == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
