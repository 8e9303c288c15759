// Package validation checks request input before it reaches the workflows.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"kidcoins/internal/apperr"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// MaxTitleLength bounds mission and reward titles
const MaxTitleLength = 120

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.Validation("email is required")
	}
	if !emailRegex.MatchString(email) {
		return apperr.Validation("invalid email format")
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return apperr.Validation("password is required")
	}
	if len(password) < 8 {
		return apperr.Validation("password must be at least 8 characters")
	}
	if len(password) > 72 {
		return apperr.Validation("password must be at most 72 bytes")
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("name is required")
	}
	if utf8.RuneCountInString(name) < 2 {
		return apperr.Validation("name must be at least 2 characters")
	}
	return nil
}

// ValidateTitle checks a mission or reward title
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperr.Validation("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return apperr.Validation("title must be at most %d characters", MaxTitleLength)
	}
	return nil
}

// ValidatePositiveCoins checks a coin amount that must be greater than zero
func ValidatePositiveCoins(field string, amount int64) error {
	if amount <= 0 {
		return apperr.Validation("%s must be greater than zero", field)
	}
	return nil
}
