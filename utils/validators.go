// File: /utils/validators.go
package utils

import (
	"regexp"
	"strings"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{3,32}$`)
)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}

func IsValidUsername(username string) bool {
	return usernameRegex.MatchString(strings.TrimSpace(username))
}

// IsValidPassword mirrors the backend's length rule so obviously bad
// passwords are rejected before a round trip.
func IsValidPassword(password string) bool {
	return strings.TrimSpace(password) != "" && len(password) >= 8 && len(password) <= 255
}
