package entity

import "time"

// Config is the singleton issuing policy. It is materialized lazily with
// defaults on first read.
type Config struct {
	CodeLength      int32
	LifetimeMinutes int32
}

// DefaultConfig is the policy used until an administrator changes it.
var DefaultConfig = Config{
	CodeLength:      6,
	LifetimeMinutes: 5,
}

// Lifetime returns the code lifetime as a duration.
func (c Config) Lifetime() time.Duration {
	return time.Duration(c.LifetimeMinutes) * time.Minute
}
