// Package messaging provides a broker-agnostic API for publishing and
// consuming event messages.
//
// Business code depends only on the Publisher and Consumer interfaces, so the
// underlying broker (NATS or NSQ) can be swapped through configuration without
// touching use-case code.
package messaging
