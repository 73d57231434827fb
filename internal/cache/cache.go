// Package cache implements the shared key-level cache backing the read path
// and the optimistic vote mutations.
package cache

import (
	"context"
	"sync"
	"time"
)

// Key addresses one cache entry, e.g. {Kind: "product", ID: ean}.
type Key struct {
	Kind string
	ID   string
}

// ProductKey builds the canonical key for one product snapshot.
func ProductKey(ean string) Key { return Key{Kind: "product", ID: ean} }

// ExternalProductKey builds the key for a third-party catalog record.
func ExternalProductKey(ean string) Key { return Key{Kind: "offProduct", ID: ean} }

type entry struct {
	value     any
	fetchedAt time.Time
	stale     bool
}

// Cache is a process-wide map of snapshots with per-key staleness and
// cancellable in-flight refreshes. All methods are safe for concurrent use;
// each method holds the lock for its whole body, which gives the
// one-writer-at-a-time-per-key behavior callers rely on.
type Cache struct {
	mu      sync.Mutex
	m       map[Key]entry
	pending map[Key]context.CancelFunc
	now     func() time.Time
}

func New() *Cache {
	return &Cache{
		m:       make(map[Key]entry),
		pending: make(map[Key]context.CancelFunc),
		now:     time.Now,
	}
}

// Get returns the last known snapshot for key, stale or not.
func (c *Cache) Get(k Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[k]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Fresh reports whether key holds a snapshot younger than window that has not
// been invalidated. A zero window means never fresh.
func (c *Cache) Fresh(k Key, window time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[k]
	if !ok || e.stale || window <= 0 {
		return false
	}
	return c.now().Sub(e.fetchedAt) < window
}

// Set overwrites the snapshot for key and clears its staleness.
func (c *Cache) Set(k Key, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[k] = entry{value: v, fetchedAt: c.now()}
}

// Invalidate marks key stale so the next read refetches. The snapshot stays
// readable until then.
func (c *Cache) Invalidate(k Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[k]
	if !ok {
		return
	}
	e.stale = true
	c.m[k] = e
}

// Evict drops the snapshot for key entirely.
func (c *Cache) Evict(k Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, k)
}

// TrackPending registers cancel as the in-flight refresh for key, cancelling
// any previous one. The caller must pair it with DonePending.
func (c *Cache) TrackPending(k Key, cancel context.CancelFunc) {
	c.mu.Lock()
	prev := c.pending[k]
	c.pending[k] = cancel
	c.mu.Unlock()
	if prev != nil {
		prev()
	}
}

// DonePending clears the in-flight registration for key.
func (c *Cache) DonePending(k Key) {
	c.mu.Lock()
	delete(c.pending, k)
	c.mu.Unlock()
}

// CancelPending cancels the in-flight refresh for key, if any. Cancellation is
// cooperative: a refresh already past its suspension point may still complete.
func (c *Cache) CancelPending(k Key) {
	c.mu.Lock()
	cancel := c.pending[k]
	delete(c.pending, k)
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
