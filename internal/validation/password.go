// Package validation contains input validation helpers for user-supplied data.
package validation

import (
	"errors"
	"regexp"
	"unicode"
	"unicode/utf8"
)

const (
	minPasswordLength = 12
	maxPasswordLength = 128
	minUsernameLength = 3
	maxUsernameLength = 30
	maxEmailLength    = 254
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*[a-zA-Z0-9]$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[a-zA-Z]{2,}$`)
)

// ValidatePassword enforces the password policy: 12-128 characters with at
// least one uppercase letter, one lowercase letter, one digit, and one
// special character.
func ValidatePassword(password string) error {
	length := utf8.RuneCountInString(password)
	if length < minPasswordLength {
		return errors.New("password must be at least 12 characters")
	}
	if length > maxPasswordLength {
		return errors.New("password must be at most 128 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	if !hasUpper {
		return errors.New("password must contain an uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain a lowercase letter")
	}
	if !hasDigit {
		return errors.New("password must contain a digit")
	}
	if !hasSpecial {
		return errors.New("password must contain a special character")
	}
	return nil
}

// ValidateUsername enforces 3-30 characters of letters, digits, underscores,
// and dashes, starting and ending with a letter or digit.
func ValidateUsername(username string) error {
	length := utf8.RuneCountInString(username)
	if length < minUsernameLength {
		return errors.New("username must be at least 3 characters")
	}
	if length > maxUsernameLength {
		return errors.New("username must be at most 30 characters")
	}
	if !usernameRe.MatchString(username) {
		return errors.New("username may only contain letters, digits, underscores, and dashes, and must start and end with a letter or digit")
	}
	return nil
}

// ValidateEmail performs a pragmatic format check. Deliverability is proven
// by the emailed verification code, not here.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if len(email) > maxEmailLength {
		return errors.New("email must be at most 254 characters")
	}
	if !emailRe.MatchString(email) {
		return errors.New("email format is invalid")
	}
	return nil
}
