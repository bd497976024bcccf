package newscache

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/crm-briefing/internal/domain/news"
)

type latestEntry struct {
	items     []news.News
	expiresAt time.Time
}

// MemoryCache is an in-process news.LatestCache for tests/dev.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[int]latestEntry
	version int64
	now     func() time.Time
}

// NewMemoryCache constructs an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[int]latestEntry), now: time.Now}
}

// GetLatest implements news.LatestCache.
func (c *MemoryCache) GetLatest(_ context.Context, limit int) ([]news.News, int64, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[limit]
	version := c.version
	c.mu.RUnlock()
	if !ok {
		return nil, version, false, nil
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, limit)
		c.mu.Unlock()
		return nil, version, false, nil
	}
	return append([]news.News{}, entry.items...), version, true, nil
}

// SetLatest implements news.LatestCache. Fills read before the last
// Invalidate are dropped.
func (c *MemoryCache) SetLatest(_ context.Context, version int64, limit int, items []news.News, ttl time.Duration) error {
	entry := latestEntry{items: append([]news.News{}, items...)}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if version != c.version {
		return nil
	}
	c.entries[limit] = entry
	return nil
}

// Invalidate implements news.LatestCache.
func (c *MemoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	c.entries = make(map[int]latestEntry)
	c.version++
	c.mu.Unlock()
	return nil
}

var _ news.LatestCache = (*MemoryCache)(nil)
