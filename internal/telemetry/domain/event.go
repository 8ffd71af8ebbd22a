// Package domain defines session telemetry events emitted by the console client.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a session lifecycle event.
type EventType string

const (
	EventLogin        EventType = "login"
	EventLoginFailed  EventType = "login_failed"
	EventRestored     EventType = "session_restored"
	EventLogout       EventType = "logout"
	EventUnauthorized EventType = "unauthorized"
)

// DefaultSource is the source label for events emitted by the console.
const DefaultSource = "portfolioctl"

// SessionEvent is one session lifecycle event. Raw tokens never appear here;
// TokenFingerprint identifies the token instead.
type SessionEvent struct {
	ID               string    `json:"id"`
	Type             EventType `json:"eventType"`
	Source           string    `json:"source"`
	UserID           string    `json:"userId,omitempty"`
	Reason           string    `json:"reason,omitempty"`
	TokenFingerprint string    `json:"tokenFingerprint,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// NewSessionEvent returns an event of type t with a fresh ID and the current UTC time.
func NewSessionEvent(t EventType) *SessionEvent {
	return &SessionEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Source:    DefaultSource,
		CreatedAt: time.Now().UTC(),
	}
}
