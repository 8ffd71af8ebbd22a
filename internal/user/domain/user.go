package domain

import (
	"errors"
	"strings"
)

// User is the identity snapshot returned by the backend at login and registration.
// It is captured once per login and not refreshed until the next login.
type User struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	// CreatedAt is kept as the backend's ISO-8601 string; the backend omits the zone offset.
	CreatedAt string `json:"created_at"`
}

// Validate returns an error describing the first problem that makes u unusable as a session identity.
func (u *User) Validate() error {
	if u == nil {
		return errors.New("user is required")
	}
	if strings.TrimSpace(u.Email) == "" {
		return errors.New("user email is required")
	}
	return nil
}

// DisplayName returns Name, falling back to Email when the backend did not send a name.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if n := strings.TrimSpace(u.Name); n != "" {
		return n
	}
	return u.Email
}
