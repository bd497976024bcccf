package news

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/crm-briefing/pkg/errors"
	"github.com/yanqian/crm-briefing/pkg/util"
)

const (
	defaultPageSize    = 10
	defaultMaxPageSize = 100
	defaultLatestLimit = 5
	defaultCacheTTL    = 5 * time.Minute
)

var linkPattern = regexp.MustCompile(`^(https?://)?([\da-z.-]+)\.([a-z.]{2,6})([/\w .-]*)*/?$`)

// Service exposes the news board.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (News, error)
	List(ctx context.Context, query ListQuery) (ListResult, error)
	Latest(ctx context.Context, limit int) ([]News, error)
	Get(ctx context.Context, id string) (News, error)
	Update(ctx context.Context, id string, req UpdateRequest) (News, error)
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type service struct {
	cfg    Config
	repo   Repository
	cache  LatestCache
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewService constructs the news domain service.
func NewService(cfg Config, repo Repository, cache LatestCache, logger *slog.Logger) Service {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = defaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = defaultMaxPageSize
	}
	if cfg.LatestLimit <= 0 {
		cfg.LatestLimit = defaultLatestLimit
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	return &service{
		cfg:    cfg,
		repo:   repo,
		cache:  cache,
		logger: logger.With("component", "news.service"),
		now:    util.NowUTC,
		newID:  uuid.NewString,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (News, error) {
	title := strings.TrimSpace(req.Title)
	link := strings.TrimSpace(req.LinkURL)
	if title == "" || strings.TrimSpace(req.PublishDate) == "" || link == "" {
		return News{}, apperrors.Wrap("invalid_input", "제목, 작성날짜, 링크주소는 필수 입력 항목입니다.", nil)
	}
	if !linkPattern.MatchString(link) {
		return News{}, apperrors.Wrap("invalid_input", "올바른 URL 형식이 아닙니다.", nil)
	}
	published, err := parseDate(req.PublishDate)
	if err != nil {
		return News{}, apperrors.Wrap("invalid_input", "publishDate must be a date (YYYY-MM-DD or RFC 3339)", err)
	}

	now := s.now().UTC()
	item, err := s.repo.Create(ctx, News{
		ID:          s.newID(),
		Title:       title,
		Subtitle:    strings.TrimSpace(req.Subtitle),
		PublishDate: published,
		LinkURL:     link,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return News{}, apperrors.Wrap("storage_error", "failed to create news", err)
	}
	s.invalidate(ctx)
	s.logger.Info("news created", "id", item.ID)
	return item, nil
}

func (s *service) List(ctx context.Context, query ListQuery) (ListResult, error) {
	filter, page, err := s.buildFilter(query)
	if err != nil {
		return ListResult{}, err
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return ListResult{}, apperrors.Wrap("storage_error", "failed to list news", err)
	}
	if items == nil {
		items = []News{}
	}
	return ListResult{
		Items: items,
		Pagination: Pagination{
			CurrentPage:  page,
			TotalPages:   int(math.Ceil(float64(total) / float64(filter.Limit))),
			TotalItems:   total,
			ItemsPerPage: filter.Limit,
		},
	}, nil
}

func (s *service) Latest(ctx context.Context, limit int) ([]News, error) {
	if limit <= 0 {
		limit = s.cfg.LatestLimit
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	var (
		version int64
		fill    bool
	)
	if s.cache != nil {
		items, v, ok, err := s.cache.GetLatest(ctx, limit)
		switch {
		case err != nil:
			s.logger.Warn("latest news cache read failed", "error", err)
		case ok:
			return items, nil
		default:
			version, fill = v, true
		}
	}

	items, _, err := s.repo.List(ctx, ListFilter{SortBy: SortPublishDate, Desc: true, Limit: limit})
	if err != nil {
		return nil, apperrors.Wrap("storage_error", "failed to load latest news", err)
	}
	if items == nil {
		items = []News{}
	}
	if fill {
		if err := s.cache.SetLatest(ctx, version, limit, items, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("latest news cache write failed", "error", err)
		}
	}
	return items, nil
}

func (s *service) Get(ctx context.Context, id string) (News, error) {
	return s.load(ctx, id)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (News, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return News{}, err
	}
	if link := strings.TrimSpace(req.LinkURL); link != "" {
		if !linkPattern.MatchString(link) {
			return News{}, apperrors.Wrap("invalid_input", "올바른 URL 형식이 아닙니다.", nil)
		}
		item.LinkURL = link
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		item.Title = title
	}
	if req.Subtitle != nil {
		item.Subtitle = strings.TrimSpace(*req.Subtitle)
	}
	if strings.TrimSpace(req.PublishDate) != "" {
		published, err := parseDate(req.PublishDate)
		if err != nil {
			return News{}, apperrors.Wrap("invalid_input", "publishDate must be a date (YYYY-MM-DD or RFC 3339)", err)
		}
		item.PublishDate = published
	}
	item.UpdatedAt = s.now().UTC()

	updated, err := s.repo.Update(ctx, item)
	if err != nil {
		return News{}, s.storageError(err, "failed to update news")
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *service) Deactivate(ctx context.Context, id string) error {
	item, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	item.IsActive = false
	item.UpdatedAt = s.now().UTC()
	if _, err := s.repo.Update(ctx, item); err != nil {
		return s.storageError(err, "failed to delete news")
	}
	s.invalidate(ctx)
	s.logger.Info("news deactivated", "id", item.ID)
	return nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	item, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return s.storageError(err, "failed to delete news")
	}
	s.invalidate(ctx)
	s.logger.Info("news deleted", "id", item.ID)
	return nil
}

func (s *service) load(ctx context.Context, id string) (News, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return News{}, apperrors.Wrap("not_found", "해당 뉴스를 찾을 수 없습니다.", nil)
	}
	item, err := s.repo.Get(ctx, trimmed)
	if err != nil {
		return News{}, s.storageError(err, "failed to load news")
	}
	return item, nil
}

func (s *service) storageError(err error, message string) error {
	if errors.Is(err, ErrNotFound) {
		return apperrors.Wrap("not_found", "해당 뉴스를 찾을 수 없습니다.", err)
	}
	return apperrors.Wrap("storage_error", message, err)
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("latest news cache invalidation failed", "error", err)
	}
}

func (s *service) buildFilter(query ListQuery) (ListFilter, int, error) {
	page := query.Page
	if page <= 0 {
		page = 1
	}
	limit := query.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}

	filter := ListFilter{
		Search: strings.TrimSpace(query.Search),
		SortBy: normalizeSort(query.SortBy),
		Desc:   !strings.EqualFold(strings.TrimSpace(query.SortOrder), "asc"),
		Offset: (page - 1) * limit,
		Limit:  limit,
	}
	if raw := strings.TrimSpace(query.StartDate); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			return ListFilter{}, 0, apperrors.Wrap("invalid_input", "startDate must be a date", err)
		}
		filter.From = &from
	}
	if raw := strings.TrimSpace(query.EndDate); raw != "" {
		to, err := parseDate(raw)
		if err != nil {
			return ListFilter{}, 0, apperrors.Wrap("invalid_input", "endDate must be a date", err)
		}
		filter.To = &to
	}
	return filter, page, nil
}

func normalizeSort(sortBy string) string {
	switch strings.TrimSpace(sortBy) {
	case SortCreatedAt:
		return SortCreatedAt
	case SortUpdatedAt:
		return SortUpdatedAt
	case SortTitle:
		return SortTitle
	default:
		return SortPublishDate
	}
}

func parseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if t, err := time.Parse("2006-01-02", trimmed); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
