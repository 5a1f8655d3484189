package entity

import (
	"encoding/json"
	"time"

	"github.com/nikstrim/otpgate/internal/pkg/valueobject"
)

// Entry is one persisted audit row. Metadata keeps the raw event payload for
// forensics; the typed columns are the queryable projection of it.
type Entry struct {
	ID          int64
	Action      string
	Actor       string
	UserID      int64
	OperationID string
	Channel     string
	Outcome     string
	Metadata    valueobject.JSONMap
	At          time.Time
	CreatedAt   time.Time
}

// envelope matches the JSON shape shared by the identity and OTP audit
// events.
type envelope struct {
	Action      string    `json:"action"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	OperationID string    `json:"operation_id"`
	Channel     string    `json:"channel"`
	Outcome     string    `json:"outcome"`
	At          time.Time `json:"at"`
}

// ParseEvent decodes an audit event payload into an Entry.
func ParseEvent(body []byte) (Entry, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Entry{}, err
	}

	var meta valueobject.JSONMap
	if err := json.Unmarshal(body, &meta); err != nil {
		return Entry{}, err
	}

	return Entry{
		Metadata:    meta,
		Action:      env.Action,
		Actor:       env.Username,
		UserID:      env.UserID,
		OperationID: env.OperationID,
		Channel:     env.Channel,
		Outcome:     env.Outcome,
		At:          env.At,
	}, nil
}
