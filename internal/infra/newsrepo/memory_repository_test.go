package newsrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/crm-briefing/internal/domain/news"
)

func seed(t *testing.T, repo *MemoryRepository) {
	t.Helper()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	items := []news.News{
		{ID: "a", Title: "Housing Market Outlook", Subtitle: "spring", PublishDate: base, IsActive: true},
		{ID: "b", Title: "금리 동결", Subtitle: "Central bank holds", PublishDate: base.AddDate(0, 0, 2), IsActive: true},
		{ID: "c", Title: "Zoning reform", PublishDate: base.AddDate(0, 0, 4), IsActive: true},
		{ID: "d", Title: "Hidden", PublishDate: base.AddDate(0, 0, 6), IsActive: false},
	}
	for _, item := range items {
		_, err := repo.Create(context.Background(), item)
		require.NoError(t, err)
	}
}

func ids(items []news.News) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestMemoryRepositoryListFiltersAndSorts(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo)
	ctx := context.Background()

	items, total, err := repo.List(ctx, news.ListFilter{SortBy: news.SortPublishDate, Desc: true})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Equal(t, []string{"c", "b", "a"}, ids(items))

	items, total, err = repo.List(ctx, news.ListFilter{Search: "CENTRAL"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, []string{"b"}, ids(items))

	from := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	items, _, err = repo.List(ctx, news.ListFilter{From: &from, SortBy: news.SortTitle})
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b"}, ids(items))

	items, total, err = repo.List(ctx, news.ListFilter{SortBy: news.SortPublishDate, Offset: 2, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Equal(t, []string{"c"}, ids(items))

	items, _, err = repo.List(ctx, news.ListFilter{Offset: 10, Limit: 2})
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestMemoryRepositoryMissingRecords(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	require.ErrorIs(t, err, news.ErrNotFound)
	_, err = repo.Update(ctx, news.News{ID: "missing"})
	require.ErrorIs(t, err, news.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, "missing"), news.ErrNotFound)
}

func TestBuildWhere(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	where, args := buildWhere(news.ListFilter{Search: "50%_off", From: &from})
	require.Equal(t, "is_active = TRUE AND (title ILIKE $1 OR subtitle ILIKE $1) AND publish_date >= $2", where)
	require.Equal(t, []any{`%50\%\_off%`, from}, args)
}
