package newsrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/yanqian/crm-briefing/internal/domain/news"
)

// MemoryRepository is an in-memory news.Repository used for tests/dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]news.News
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]news.News)}
}

// Create implements news.Repository.
func (r *MemoryRepository) Create(_ context.Context, item news.News) (news.News, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[item.ID] = item
	return item, nil
}

// Get implements news.Repository.
func (r *MemoryRepository) Get(_ context.Context, id string) (news.News, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.records[id]
	if !ok {
		return news.News{}, news.ErrNotFound
	}
	return item, nil
}

// List implements news.Repository.
func (r *MemoryRepository) List(_ context.Context, filter news.ListFilter) ([]news.News, int, error) {
	r.mu.RLock()
	matched := make([]news.News, 0, len(r.records))
	for _, item := range r.records {
		if matches(item, filter) {
			matched = append(matched, item)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if filter.Desc {
			return less(matched[j], matched[i], filter.SortBy)
		}
		return less(matched[i], matched[j], filter.SortBy)
	})

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+filter.Limit < total {
		end = start + filter.Limit
	}
	return matched[start:end], total, nil
}

// Update implements news.Repository.
func (r *MemoryRepository) Update(_ context.Context, item news.News) (news.News, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[item.ID]; !ok {
		return news.News{}, news.ErrNotFound
	}
	r.records[item.ID] = item
	return item, nil
}

// Delete implements news.Repository.
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return news.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func matches(item news.News, filter news.ListFilter) bool {
	if !item.IsActive {
		return false
	}
	if filter.From != nil && item.PublishDate.Before(*filter.From) {
		return false
	}
	if filter.To != nil && item.PublishDate.After(*filter.To) {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(item.Title), needle) && !strings.Contains(strings.ToLower(item.Subtitle), needle) {
			return false
		}
	}
	return true
}

func less(a, b news.News, sortBy string) bool {
	switch sortBy {
	case news.SortCreatedAt:
		return a.CreatedAt.Before(b.CreatedAt)
	case news.SortUpdatedAt:
		return a.UpdatedAt.Before(b.UpdatedAt)
	case news.SortTitle:
		return a.Title < b.Title
	default:
		return a.PublishDate.Before(b.PublishDate)
	}
}

var _ news.Repository = (*MemoryRepository)(nil)
