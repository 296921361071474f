// Package domain contains core domain types for the brief intake bot.
package domain

import "strings"

// Profile identifies the person filling in a brief, as reported by the
// messaging transport.
type Profile struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// FullName joins first and last name.
func (p Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Handle returns the @username, or an empty string when the user has none.
func (p Profile) Handle() string {
	if p.Username == "" {
		return ""
	}
	return "@" + p.Username
}
