// Package kvcache is a small in-process key/value cache with per-entry TTL.
//
// It backs short-lived, single-consumer values such as account link tokens:
// Take removes the entry atomically, so a token can never be consumed twice
// even under concurrent webhook deliveries.
package kvcache

import (
	"sync"
	"time"
)

type clocker interface {
	Now() time.Time
}

type entry struct {
	value     string
	expiresAt time.Time
}

// Cache is a TTL-bounded string cache safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	items map[string]entry
	clock clocker
}

// New returns an empty Cache using the given clock.
func New(clock clocker) *Cache {
	return &Cache{
		items: make(map[string]entry),
		clock: clock,
	}
}

// Put stores value under key for ttl. An existing entry is replaced.
func (c *Cache) Put(key, value string, ttl time.Duration) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictLocked(now)
	c.items[key] = entry{value: value, expiresAt: now.Add(ttl)}
}

// Get returns the value for key without removing it.
func (c *Cache) Get(key string) (string, bool) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok || now.After(e.expiresAt) {
		return "", false
	}

	return e.value, true
}

// Take returns the value for key and removes it in the same step. The second
// caller for the same key always misses.
func (c *Cache) Take(key string) (string, bool) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return "", false
	}

	delete(c.items, key)

	if now.After(e.expiresAt) {
		return "", false
	}

	return e.value, true
}

// Delete removes key if present.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictLocked(now)

	return len(c.items)
}

// evictLocked drops expired entries. Callers hold c.mu.
func (c *Cache) evictLocked(now time.Time) {
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
		}
	}
}
