package news

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by repositories for unknown ids.
var ErrNotFound = errors.New("news not found")

// Repository persists news records.
type Repository interface {
	Create(ctx context.Context, item News) (News, error)
	Get(ctx context.Context, id string) (News, error)
	List(ctx context.Context, filter ListFilter) ([]News, int, error)
	Update(ctx context.Context, item News) (News, error)
	Delete(ctx context.Context, id string) error
}

// LatestCache keeps the latest-news lists keyed by limit.
//
// GetLatest also returns the cache version it observed. A miss is filled by
// passing that version back to SetLatest; a fill whose version was superseded
// by Invalidate must never become visible to later reads.
type LatestCache interface {
	GetLatest(ctx context.Context, limit int) (items []News, version int64, hit bool, err error)
	SetLatest(ctx context.Context, version int64, limit int, items []News, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}
