package entity

import "time"

// LoginEvent is emitted on every login attempt for the audit trail.
type LoginEvent struct {
	Action   string    `json:"action"`
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	Outcome  string    `json:"outcome"`
	At       time.Time `json:"at"`
}

// Login event outcomes.
const (
	LoginOutcomeSuccess = "success"
	LoginOutcomeFailure = "failure"
)

// ActionLogin is the audit action name for authentication attempts.
const ActionLogin = "auth.login"
