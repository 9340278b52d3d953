package crawler

import (
	"slices"
	"sync"
	"time"

	"newsgraph/internal/models"
)

type cacheKey struct {
	source string
	query  string
	limit  int
}

type cacheEntry struct {
	expiresAt time.Time
	documents []models.Document
}

// Cache memoizes successful fetches for a fixed time-to-live.
// A zero TTL disables caching.
type Cache struct {
	entries map[cacheKey]cacheEntry
	now     func() time.Time
	ttl     time.Duration
	mu      sync.Mutex
}

// NewCache creates a cache whose entries live for ttl.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[cacheKey]cacheEntry),
		now:     time.Now,
		ttl:     ttl,
	}
}

// Get returns the cached documents for the key, if present and fresh.
func (c *Cache) Get(source, query string, limit int) ([]models.Document, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}

	key := cacheKey{source: source, query: query, limit: limit}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)

		return nil, false
	}

	return slices.Clone(entry.documents), true
}

// Put stores documents under the key.
func (c *Cache) Put(source, query string, limit int, docs []models.Document) {
	if c == nil || c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey{source: source, query: query, limit: limit}] = cacheEntry{
		expiresAt: c.now().Add(c.ttl),
		documents: slices.Clone(docs),
	}
}

// Purge drops expired entries and returns how many remain.
func (c *Cache) Purge() int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}

	return len(c.entries)
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
