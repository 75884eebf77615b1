package geocode

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// CachedProvider memoizes lookups of another provider in a bounded LRU with
// TTL expiry. No-match answers are cached too; other errors are not.
type CachedProvider struct {
	next Provider

	mu         sync.Mutex
	entries    map[string]*cacheEntry
	order      []string // LRU order: front=oldest, back=newest
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	result    *Result // nil records a no-match
	createdAt time.Time
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewCachedProvider wraps next with a cache of up to maxEntries names.
func NewCachedProvider(next Provider, maxEntries int, ttl time.Duration) *CachedProvider {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedProvider{
		next:       next,
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Name implements Provider.
func (c *CachedProvider) Name() string { return c.next.Name() }

// Lookup implements Provider.
func (c *CachedProvider) Lookup(ctx context.Context, query string) (*Result, error) {
	if err := checkQuery(query); err != nil {
		return nil, err
	}
	key := NameKey(query)

	if entry, ok := c.get(key); ok {
		if entry.result == nil {
			return nil, ErrNoMatch
		}
		r := *entry.result
		return &r, nil
	}

	r, err := c.next.Lookup(ctx, query)
	switch {
	case err == nil:
		stored := *r
		c.put(key, &stored)
		return r, nil
	case errors.Is(err, ErrNoMatch):
		c.put(key, nil)
		return nil, err
	default:
		return nil, err
	}
}

func (c *CachedProvider) get(key string) (*cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	if c.now().Sub(entry.createdAt) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses.Add(1)
		return nil, false
	}

	c.removeFromOrder(key)
	c.order = append(c.order, key)
	c.hits.Add(1)
	return entry, true
}

func (c *CachedProvider) put(key string, r *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = &cacheEntry{result: r, createdAt: c.now()}
		c.removeFromOrder(key)
		c.order = append(c.order, key)
		return
	}

	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = &cacheEntry{result: r, createdAt: c.now()}
	c.order = append(c.order, key)
}

// Purge drops every cached entry.
func (c *CachedProvider) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
	c.order = nil
}

// Stats returns cache performance statistics.
func (c *CachedProvider) Stats() CacheStats {
	c.mu.Lock()
	entries := len(c.entries)
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Entries:    entries,
		MaxEntries: c.maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

func (c *CachedProvider) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
