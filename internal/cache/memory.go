// Package cache provides a generic, concurrency-safe in-memory cache with
// per-entry expiry.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is a thread-safe map with optional per-entry TTL.
// Expired entries are invisible to readers and removed by DeleteExpired.
type Memory[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]entry[V]
	now  func() time.Time
}

// NewMemory creates an empty cache.
func NewMemory[K comparable, V any]() *Memory[K, V] {
	return &Memory[K, V]{
		data: make(map[K]entry[V]),
		now:  time.Now,
	}
}

// Set adds or replaces an item. A ttl <= 0 never expires.
func (c *Memory[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = c.newEntry(value, ttl)
}

// Get returns the item for key if present and not expired.
func (c *Memory[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[key]
	if !ok || e.expired(c.now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// GetOrSet returns the live item for key, or stores and returns the value
// built by create. The lookup and insert happen under one lock.
func (c *Memory[K, V]) GetOrSet(key K, create func() V, ttl time.Duration) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.data[key]; ok && !e.expired(c.now()) {
		if ttl > 0 {
			e.expiresAt = c.now().Add(ttl)
			c.data[key] = e
		}
		return e.value
	}

	value := create()
	c.data[key] = c.newEntry(value, ttl)
	return value
}

// Update applies fn to the current live value (zero value if absent) and
// stores the result with a fresh ttl.
func (c *Memory[K, V]) Update(key K, fn func(V, bool) V, ttl time.Duration) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.data[key]
	if ok && current.expired(c.now()) {
		ok = false
		current = entry[V]{}
	}
	value := fn(current.value, ok)
	c.data[key] = c.newEntry(value, ttl)
	return value
}

// Take removes key and returns its live value.
func (c *Memory[K, V]) Take(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	delete(c.data, key)
	if !ok || e.expired(c.now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Del removes an item.
func (c *Memory[K, V]) Del(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// DeleteExpired sweeps expired items and returns how many were removed.
func (c *Memory[K, V]) DeleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.data {
		if e.expired(now) {
			delete(c.data, k)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps expired items every interval until ctx is done.
func (c *Memory[K, V]) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.DeleteExpired()
			}
		}
	}()
}

func (c *Memory[K, V]) newEntry(value V, ttl time.Duration) entry[V] {
	e := entry[V]{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	return e
}
