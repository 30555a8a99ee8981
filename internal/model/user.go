// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// User is a registered customer account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayFirstName returns the trimmed first name, or "" when none is set.
func (u *User) DisplayFirstName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName)
}

// NormalizeEmail lower-cases and trims an email address for matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
