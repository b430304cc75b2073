// Package auth holds the credential hasher and the password policy.
//
// Digests are unsalted SHA-256, hex encoded. That keeps stored values
// comparable with existing databases but is weak against precomputed
// tables; production credential storage needs a per-account salt and a
// slow key-derivation function.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"unicode/utf8"

	"github.com/riteshkumar/terminal-bank/internal/errors"
	"github.com/riteshkumar/terminal-bank/internal/models"
)

// DigestLength is the length of a hex encoded SHA-256 digest.
const DigestLength = sha256.Size * 2

// HashPassword returns the hex digest of a plain text password.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword hashes the attempt and compares digests in constant time.
func VerifyPassword(hashedPassword, password string) error {
	attempt := HashPassword(password)
	if len(hashedPassword) != len(attempt) ||
		subtle.ConstantTimeCompare([]byte(hashedPassword), []byte(attempt)) != 1 {
		return errors.ErrIncorrectPassword
	}
	return nil
}

// ValidatePassword enforces the length policy on a plain text password.
// Length is counted in characters (runes), the same rule as usernames.
// It must run before hashing since every digest has the same length.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < models.MinPasswordLength || n > models.MaxPasswordLength {
		return errors.NewValidationError("password", "password is either too short or too long")
	}
	return nil
}
