package schedulerepo

import (
	"context"
	"sort"
	"sync"

	"github.com/yanqian/crm-briefing/internal/domain/briefing"
)

// MemoryRepository is an in-memory briefing.ScheduleRepository used for tests/dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]briefing.Schedule
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]briefing.Schedule)}
}

// Save inserts or replaces a schedule.
func (r *MemoryRepository) Save(_ context.Context, schedule briefing.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[schedule.ID] = schedule
	return nil
}

// Find implements briefing.ScheduleRepository.
func (r *MemoryRepository) Find(_ context.Context, filter briefing.ScheduleFilter) ([]briefing.Schedule, error) {
	r.mu.RLock()
	out := make([]briefing.Schedule, 0)
	for _, s := range r.records {
		if matches(s, filter) {
			out = append(out, s)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Get implements briefing.ScheduleRepository.
func (r *MemoryRepository) Get(_ context.Context, id string) (briefing.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.records[id]
	if !ok {
		return briefing.Schedule{}, briefing.ErrScheduleNotFound
	}
	return s, nil
}

func matches(s briefing.Schedule, filter briefing.ScheduleFilter) bool {
	if !filter.From.IsZero() && s.Date.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && s.Date.After(filter.To) {
		return false
	}
	if filter.PublisherID != "" && (s.Publisher == nil || s.Publisher.ID != filter.PublisherID) {
		return false
	}
	if filter.CompanyNumber != "" && s.CompanyNumber != filter.CompanyNumber {
		return false
	}
	return true
}

var _ briefing.ScheduleRepository = (*MemoryRepository)(nil)
