package newscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/crm-briefing/internal/domain/news"
)

// ValkeyCache stores latest-news lists in a Valkey-compatible database.
// Entries are keyed by a generation counter; Invalidate bumps the counter so
// stale lists are never read again and expire on their own TTL. The
// generation doubles as the version handed out by GetLatest, so a late fill
// lands under a key no reader looks at.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkeyCache constructs a cache backed by Valkey.
func NewValkeyCache(client valkey.Client, prefix string) *ValkeyCache {
	if prefix == "" {
		prefix = "news"
	}
	return &ValkeyCache{client: client, prefix: prefix}
}

// GetLatest implements news.LatestCache.
func (c *ValkeyCache) GetLatest(ctx context.Context, limit int) ([]news.News, int64, bool, error) {
	generation, err := c.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}
	payload, err := c.client.Do(ctx, c.client.B().Get().Key(c.latestKey(generation, limit)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, generation, false, nil
		}
		return nil, generation, false, err
	}
	var items []news.News
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, generation, false, err
	}
	if items == nil {
		items = []news.News{}
	}
	return items, generation, true, nil
}

// SetLatest implements news.LatestCache.
func (c *ValkeyCache) SetLatest(ctx context.Context, generation int64, limit int, items []news.News, ttl time.Duration) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}
	builder := c.client.B().Set().Key(c.latestKey(generation, limit)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

// Invalidate implements news.LatestCache.
func (c *ValkeyCache) Invalidate(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Incr().Key(c.generationKey()).Build()).Error()
}

func (c *ValkeyCache) generation(ctx context.Context) (int64, error) {
	value, err := c.client.Do(ctx, c.client.B().Get().Key(c.generationKey()).Build()).AsInt64()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return 0, nil
		}
		return 0, err
	}
	return value, nil
}

func (c *ValkeyCache) generationKey() string {
	return fmt.Sprintf("%s:latest:generation", c.prefix)
}

func (c *ValkeyCache) latestKey(generation int64, limit int) string {
	return fmt.Sprintf("%s:latest:%d:%d", c.prefix, generation, limit)
}

var _ news.LatestCache = (*ValkeyCache)(nil)
