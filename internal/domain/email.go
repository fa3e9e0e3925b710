package domain

import "strings"

// NormalizeEmail lowercases and trims an email address.
// Every email crossing the gate goes through this before storage or
// comparison, so "  Fan@Example.COM " and "fan@example.com" claim the
// same spot.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
