package domain

import (
	"time"

	userdomain "portfolio-client/internal/user/domain"
)

// Record is the persisted snapshot of an authenticated session.
// ExpiresAt is always derived from the access token's exp claim, never supplied independently.
type Record struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	User        *userdomain.User `json:"user"`
	// ExpiresAt is milliseconds since the Unix epoch.
	ExpiresAt int64 `json:"expiresAt"`
}

// ExpiresAtTime returns ExpiresAt as a time.Time.
func (r *Record) ExpiresAtTime() time.Time {
	return time.UnixMilli(r.ExpiresAt)
}

// ExpiredAt reports whether the record is no longer valid at now. A record expiring exactly at now is expired.
func (r *Record) ExpiredAt(now time.Time) bool {
	return r.ExpiresAt <= now.UnixMilli()
}

// State is the session manager's lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// LogoutReason says why a session ended.
type LogoutReason string

const (
	LogoutExplicit     LogoutReason = "explicit"
	LogoutExpired      LogoutReason = "expired"
	LogoutUnauthorized LogoutReason = "unauthorized"
)
