// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package cache provides the key/value stores behind the GraphQL query cache
// and the settings view registry: an in-memory cache with TTL support and a
// Redis-backed implementation.
package cache

import (
	"sync"
	"time"
)

// Cache provides thread-safe caching with expiration support.
type Cache interface {
	// Get retrieves a value from the cache. Returns false if not found or expired.
	Get(key string) (any, bool)
	// Set stores a value in the cache with the specified TTL.
	Set(key string, value any, ttl time.Duration)
	// Delete removes a value from the cache.
	Delete(key string)
	// Clear removes all values from the cache.
	Clear()
	// Stats returns cache statistics.
	Stats() CacheStats
}

// CacheStats holds cache performance metrics.
type CacheStats struct {
	Hits        int64 // Number of successful Get operations
	Misses      int64 // Number of failed Get operations (not found or expired)
	Sets        int64 // Number of Set operations
	Evictions   int64 // Number of expired entries cleaned up
	CurrentSize int   // Current number of cached entries
}

// EvictReason tells a removal callback why an entry left the cache.
type EvictReason string

const (
	EvictExpired EvictReason = "expired"
	EvictDeleted EvictReason = "deleted"
	EvictCleared EvictReason = "cleared"
)

// EvictFunc is invoked outside the cache lock for every removed entry.
type EvictFunc func(key string, value any, reason EvictReason)

type entry struct {
	value      any
	expiration time.Time
}

func (e *entry) isExpired(now time.Time) bool {
	return now.After(e.expiration)
}

// MemoryOption configures the in-memory cache.
type MemoryOption func(*MemoryCache)

// WithOnEvict registers a callback for removed entries.
func WithOnEvict(fn EvictFunc) MemoryOption {
	return func(c *MemoryCache) { c.onEvict = fn }
}

// withNow overrides the clock; tests only.
func withNow(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) { c.now = now }
}

// MemoryCache is the in-memory implementation of Cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	stats   CacheStats
	onEvict EvictFunc
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewMemoryCache creates a new in-memory cache.
// A positive cleanupInterval starts a janitor goroutine that removes expired
// entries; Stop ends it.
func NewMemoryCache(cleanupInterval time.Duration, opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*entry),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	} else {
		close(c.done)
	}
	return c
}

// Get retrieves a value from the cache. An expired entry is removed on access.
func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.Lock()
	e, found := c.entries[key]
	if !found {
		c.stats.Misses++
		c.mu.Unlock()
		return nil, false
	}
	if e.isExpired(c.now()) {
		delete(c.entries, key)
		c.stats.Misses++
		c.stats.Evictions++
		c.mu.Unlock()
		c.evicted(key, e.value, EvictExpired)
		return nil, false
	}
	c.stats.Hits++
	c.mu.Unlock()
	return e.value, true
}

// Set stores a value in the cache.
func (c *MemoryCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry{
		value:      value,
		expiration: c.now().Add(ttl),
	}
	c.stats.Sets++
}

// Touch extends the TTL of a live entry. It reports whether the entry existed.
func (c *MemoryCache) Touch(key string, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.isExpired(c.now()) {
		return false
	}
	e.expiration = c.now().Add(ttl)
	return true
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	if ok {
		c.evicted(key, e.value, EvictDeleted)
	}
}

// Clear removes all values from the cache.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	old := c.entries
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	for key, e := range old {
		c.evicted(key, e.value, EvictCleared)
	}
}

// Stats returns cache statistics.
func (c *MemoryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.CurrentSize = len(c.entries)
	return stats
}

// Stop stops the background cleanup goroutine and waits for it to exit.
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

// deleteExpired removes all expired entries from the cache.
// Returns the number of entries deleted.
func (c *MemoryCache) deleteExpired() int {
	now := c.now()
	removed := make(map[string]any)

	c.mu.Lock()
	for key, e := range c.entries {
		if e.isExpired(now) {
			delete(c.entries, key)
			removed[key] = e.value
		}
	}
	c.stats.Evictions += int64(len(removed))
	c.mu.Unlock()

	for key, value := range removed {
		c.evicted(key, value, EvictExpired)
	}
	return len(removed)
}

func (c *MemoryCache) evicted(key string, value any, reason EvictReason) {
	if c.onEvict != nil {
		c.onEvict(key, value, reason)
	}
}

func (c *MemoryCache) janitor(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

// noOpCache is a cache that does nothing (useful for disabling caching).
type noOpCache struct{}

// NewNoOpCache creates a cache that doesn't cache anything.
func NewNoOpCache() Cache {
	return &noOpCache{}
}

func (c *noOpCache) Get(string) (any, bool)          { return nil, false }
func (c *noOpCache) Set(string, any, time.Duration) {}
func (c *noOpCache) Delete(string)                  {}
func (c *noOpCache) Clear()                         {}
func (c *noOpCache) Stats() CacheStats              { return CacheStats{} }
