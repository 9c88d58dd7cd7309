// Package validation provides input validation utilities
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
	minUsernameLen = 3
	maxUsernameLen = 30
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidatePassword checks that a password is 8-128 characters and mixes letters with digits.
func ValidatePassword(password string) error {
	n := len([]rune(password))
	if n < minPasswordLen {
		return errors.New("password must be at least 8 characters long")
	}
	if n > maxPasswordLen {
		return errors.New("password must not exceed 128 characters")
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter {
		return errors.New("password must contain at least one letter")
	}
	if !hasDigit {
		return errors.New("password must contain at least one digit")
	}
	return nil
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < minUsernameLen {
		return errors.New("username must be at least 3 characters long")
	}
	if len(username) > maxUsernameLen {
		return errors.New("username must not exceed 30 characters")
	}
	if !usernamePattern.MatchString(username) {
		return errors.New("username can only contain letters, numbers and underscores")
	}
	return nil
}

// NormalizeEmail trims and lowercases an address and checks it with the shared validator.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := get().Var(email, "required,email,max=255"); err != nil {
		return "", errors.New("invalid email address")
	}
	return email, nil
}
