// Package ratelimit counts failed attempts per key in Redis and locks the key
// out once a threshold is crossed. Counters expire on their own, so a lockout
// always ends without operator intervention.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTooManyAttempts is returned by Allow once the failure budget is spent.
var ErrTooManyAttempts = errors.New("too many attempts")

// Limiter tracks failures per key against a fixed budget.
type Limiter interface {
	// Allow returns ErrTooManyAttempts when the key has exhausted its budget.
	Allow(ctx context.Context, key string) error
	// Fail records one failed attempt. The first failure starts the window.
	Fail(ctx context.Context, key string, window time.Duration) error
	// Reset clears the counter, typically after a success.
	Reset(ctx context.Context, key string) error
}

// AttemptLimiter implements Limiter on a Redis counter.
type AttemptLimiter struct {
	client *redis.Client
	prefix string
	max    int64
}

// New returns an AttemptLimiter allowing max failures per window.
func New(client *redis.Client, max int64) *AttemptLimiter {
	return &AttemptLimiter{
		client: client,
		prefix: "ratelimit:",
		max:    max,
	}
}

func (l *AttemptLimiter) Allow(ctx context.Context, key string) error {
	n, err := l.client.Get(ctx, l.prefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	if n >= l.max {
		return ErrTooManyAttempts
	}

	return nil
}

func (l *AttemptLimiter) Fail(ctx context.Context, key string, window time.Duration) error {
	fk := l.prefix + key

	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, fk)
	// NX keeps the window anchored at the first failure instead of sliding.
	pipe.ExpireNX(ctx, fk, window)

	_, err := pipe.Exec(ctx)

	return err
}

func (l *AttemptLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.prefix+key).Err()
}
