package entity

import "time"

// Audit actions emitted by the lifecycle engine.
const (
	ActionIssued   = "otp.issued"
	ActionVerified = "otp.verified"
)

// Verification outcomes carried in audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Event is the audit payload for issue and verify operations. The code value
// itself never appears in events.
type Event struct {
	Action      string    `json:"action"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username,omitempty"`
	OperationID string    `json:"operation_id,omitempty"`
	Channel     string    `json:"channel,omitempty"`
	Outcome     string    `json:"outcome,omitempty"`
	At          time.Time `json:"at"`
}
