// ABOUTME: Thread-safe TTL cache mapping user IDs to conversation thread handles.
// ABOUTME: Fallback storage used only when the durable store cannot persist a handle.

package threadcache

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultTTL is how long a fallback entry stays valid without being touched.
// Entries older than this are removed by the periodic sweep.
const DefaultTTL = 24 * time.Hour

// entry holds a thread handle and the time it was last used.
type entry struct {
	threadID string
	touched  time.Time
}

// Cache provides a thread-safe, TTL-based fallback store for conversation
// thread handles. An entry exists only when a durable write for that user
// failed; the durable store remains the source of truth whenever reachable.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	logger  *slog.Logger
	done    chan struct{}
	closed  bool
}

// New creates a fallback cache with the given TTL. A background goroutine
// sweeps expired entries on the same interval as the TTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		entries: make(map[string]*entry),
		ttl:     ttl,
		logger:  slog.Default().With("component", "threadcache"),
		done:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Put records a thread handle for a user, overwriting any prior entry.
func (c *Cache) Put(userID, threadID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[userID] = &entry{
		threadID: threadID,
		touched:  time.Now(),
	}
}

// Get returns the cached thread handle for a user, refreshing its
// last-touched timestamp. Expired entries are treated as absent.
func (c *Cache) Get(userID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[userID]
	if !ok {
		return "", false
	}
	if time.Since(e.touched) > c.ttl {
		delete(c.entries, userID)
		return "", false
	}
	e.touched = time.Now()
	return e.threadID, true
}

// Remove deletes a user's entry. Called after a successful durable write
// supersedes the fallback copy.
func (c *Cache) Remove(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// sweep runs in a background goroutine, periodically removing expired entries.
func (c *Cache) sweep() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweepExpired()
		case <-c.done:
			return
		}
	}
}

// sweepExpired removes all entries older than the TTL.
func (c *Cache) sweepExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for userID, e := range c.entries {
		if now.Sub(e.touched) > c.ttl {
			delete(c.entries, userID)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Info("swept expired fallback threads", "removed", removed, "remaining", len(c.entries))
	}
}

// Close stops the background sweep goroutine. It is safe to call multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
