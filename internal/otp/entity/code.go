package entity

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a one-time code.
type Status string

const (
	// StatusActive means the code can still be verified.
	StatusActive Status = "ACTIVE"
	// StatusUsed means the code was verified successfully. Terminal.
	StatusUsed Status = "USED"
	// StatusExpired means the code aged out or was superseded. Terminal.
	StatusExpired Status = "EXPIRED"
)

// String returns the status as a plain string.
func (s Status) String() string {
	return string(s)
}

// Channel identifies a delivery transport.
type Channel string

const (
	ChannelSMS      Channel = "SMS"
	ChannelEmail    Channel = "EMAIL"
	ChannelTelegram Channel = "TELEGRAM"
	ChannelFile     Channel = "FILE"
)

// String returns the channel as a plain string.
func (c Channel) String() string {
	return string(c)
}

// Valid reports whether the channel is one of the supported transports.
func (c Channel) Valid() bool {
	switch c {
	case ChannelSMS, ChannelEmail, ChannelTelegram, ChannelFile:
		return true
	default:
		return false
	}
}

// ParseChannel normalizes a channel name; ok is false for unknown values.
func ParseChannel(s string) (Channel, bool) {
	c := Channel(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", false
	}

	return c, true
}

// Code is one issued one-time passcode.
//
// At most one ACTIVE code exists per owner: issuing a new code expires all
// previous ACTIVE ones in the same transaction.
type Code struct {
	ID          int64
	OwnerID     int64
	Code        string
	Status      Status
	Channel     Channel
	OperationID string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the code is past its expiry instant.
func (c Code) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Record is a code row joined with its owner's username, used by exports.
type Record struct {
	Code
	Username string
}

// VerifyResult is the outcome of consuming a code.
type VerifyResult int

const (
	// VerifyNotFound means no ACTIVE code matched the owner and value.
	VerifyNotFound VerifyResult = iota
	// VerifyExpired means the matched code was past expiry and is now EXPIRED.
	VerifyExpired
	// VerifyOK means the code was consumed and is now USED.
	VerifyOK
)
