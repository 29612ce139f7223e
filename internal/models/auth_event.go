package models

import "time"

// Auth event types recorded in the audit trail.
const (
	EventLogin       = "LOGIN"
	EventLoginFailed = "LOGIN_FAILED"
	EventRegister    = "REGISTER"
	EventLogout      = "LOGOUT"
)

// AuthEvent is a single audit log entry for an authentication transition.
type AuthEvent struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Type       string    `json:"type"`     // LOGIN | LOGIN_FAILED | REGISTER | LOGOUT
	Username   string    `json:"username"` // subject of the transition
	Metadata   any       `json:"metadata,omitempty"`
}
