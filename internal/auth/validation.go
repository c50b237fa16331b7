package auth

import (
	"errors"
	"regexp"
	"strings"
)

// MaxEmailLength is the longest accepted email address
const MaxEmailLength = 255

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

var (
	// ErrInvalidEmail indicates the email does not match the accepted pattern
	ErrInvalidEmail = errors.New("Invalid email address")
	// ErrWeakPassword indicates the password misses one of the strength requirements
	ErrWeakPassword = errors.New("Password must be at least 8 characters long and include at least " +
		"one uppercase letter, one lowercase letter, one number, and one special character.")
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	upperPattern  = regexp.MustCompile(`[A-Z]`)
	lowerPattern  = regexp.MustCompile(`[a-z]`)
	digitPattern  = regexp.MustCompile(`[0-9]`)
	symbolPattern = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// IsValidEmail checks if the provided email address matches the accepted pattern
func IsValidEmail(email string) bool {
	return len(email) <= MaxEmailLength && emailPattern.MatchString(email)
}

// NormalizeEmail validates the email and returns its lowercase form
func NormalizeEmail(email string) (string, error) {
	if !IsValidEmail(email) {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(email), nil
}

// ValidatePassword applies the registration strength rules. The error names
// every requirement, not the ones that failed.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength ||
		!upperPattern.MatchString(password) ||
		!lowerPattern.MatchString(password) ||
		!digitPattern.MatchString(password) ||
		!symbolPattern.MatchString(password) {
		return ErrWeakPassword
	}
	return nil
}
