package briefing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yanqian/crm-briefing/internal/infra/llm/gemini"
	apperrors "github.com/yanqian/crm-briefing/pkg/errors"
	"github.com/yanqian/crm-briefing/pkg/util"
)

const (
	emptyWeekBriefing  = "이번 주에는 등록된 일정이 없습니다. 새로운 일정을 추가하거나 다른 주의 일정을 확인해보세요."
	emptyWeekAnalysis  = "일정이 없어 분석할 데이터가 부족합니다."
	emptyRangeAnalysis = "분석할 일정이 없습니다. 새로운 일정을 추가해보세요."
	emptyDayFormat     = "%s에는 등록된 일정이 없습니다."

	kindWeekly   = "weekly_briefing"
	kindAnalysis = "schedule_analysis"
	kindDaily    = "daily_briefing"
	kindMeeting  = "meeting_message"
)

var (
	weeklyOptions   = []gemini.Option{gemini.WithTemperature(0.6), gemini.WithMaxOutputTokens(2000)}
	analysisOptions = []gemini.Option{gemini.WithTemperature(0.6), gemini.WithMaxOutputTokens(2000)}
	dailyOptions    = []gemini.Option{gemini.WithTemperature(0.8), gemini.WithMaxOutputTokens(1536)}
	meetingOptions  = []gemini.Option{gemini.WithTemperature(0.65), gemini.WithMaxOutputTokens(1000)}
)

// ErrScheduleNotFound is returned by repositories for unknown schedule ids.
var ErrScheduleNotFound = errors.New("schedule not found")

// Service generates AI briefings over a user's schedules.
type Service interface {
	WeeklyBriefing(ctx context.Context, viewer Viewer) (WeeklyResult, error)
	DailyBriefing(ctx context.Context, viewer Viewer, date string) (DailyResult, error)
	MeetingMessage(ctx context.Context, viewer Viewer, scheduleID string) (MeetingResult, error)
	ScheduleAnalysis(ctx context.Context, viewer Viewer, req AnalysisRequest) (AnalysisResult, error)
}

// ScheduleRepository loads schedules with their related records populated.
// Find returns schedules ordered by date then time.
type ScheduleRepository interface {
	Find(ctx context.Context, filter ScheduleFilter) ([]Schedule, error)
	Get(ctx context.Context, id string) (Schedule, error)
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts ...gemini.Option) (string, error)
}

// Archive stores generated briefings.
type Archive interface {
	Put(ctx context.Context, key string, body []byte) error
}

// TokenCounter estimates the size of a prompt.
type TokenCounter interface {
	Count(text string) int
}

// UsageRecorder accumulates prompt token estimates per briefing kind.
type UsageRecorder interface {
	AddPromptTokens(kind string, tokens int)
}

// Config controls briefing behaviour.
type Config struct {
	Timezone       string
	ArchiveEnabled bool
}

type service struct {
	cfg       Config
	repo      ScheduleRepository
	generator Generator
	archive   Archive
	tokens    TokenCounter
	usage     UsageRecorder
	logger    *slog.Logger
	location  *time.Location
	now       func() time.Time
	newID     func() string
}

// NewService wires the briefing domain.
func NewService(cfg Config, repo ScheduleRepository, generator Generator, archive Archive, tokens TokenCounter, usage UsageRecorder, logger *slog.Logger) Service {
	if tokens == nil {
		tokens = runeCounter{}
	}
	if usage == nil {
		usage = noopUsage{}
	}
	return &service{
		cfg:       cfg,
		repo:      repo,
		generator: generator,
		archive:   archive,
		tokens:    tokens,
		usage:     usage,
		logger:    logger.With("component", "briefing.service"),
		location:  loadLocation(cfg.Timezone),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (s *service) WeeklyBriefing(ctx context.Context, viewer Viewer) (WeeklyResult, error) {
	start, end := util.WeekBounds(s.now().In(s.location))
	schedules, err := s.find(ctx, viewer.FilterFor(start, end))
	if err != nil {
		return WeeklyResult{}, err
	}
	s.logger.Info("weekly briefing requested", "user_id", viewer.ID, "start", start, "end", end, "schedules", len(schedules))

	if len(schedules) == 0 {
		return WeeklyResult{
			Briefing:  emptyWeekBriefing,
			Analysis:  emptyWeekAnalysis,
			Schedules: []Schedule{},
		}, nil
	}

	var briefing, analysis string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := s.generate(gctx, viewer, kindWeekly, start, WeeklyBriefingPrompt(schedules, viewer.Name), weeklyOptions)
		briefing = text
		return err
	})
	g.Go(func() error {
		text, err := s.generate(gctx, viewer, kindAnalysis, start, ScheduleAnalysisPrompt(schedules), analysisOptions)
		analysis = text
		return err
	})
	if err := g.Wait(); err != nil {
		return WeeklyResult{}, err
	}

	return WeeklyResult{
		Briefing:  briefing,
		Analysis:  analysis,
		Schedules: schedules,
		WeekRange: &Range{Start: start, End: end},
	}, nil
}

func (s *service) DailyBriefing(ctx context.Context, viewer Viewer, date string) (DailyResult, error) {
	target, err := s.resolveDay(date)
	if err != nil {
		return DailyResult{}, apperrors.Wrap("invalid_input", "date must be formatted as YYYY-MM-DD", err)
	}
	schedules, err := s.find(ctx, viewer.FilterFor(util.StartOfDay(target), util.EndOfDay(target)))
	if err != nil {
		return DailyResult{}, err
	}
	label := KoreanDateLabel(target)
	s.logger.Info("daily briefing requested", "user_id", viewer.ID, "date", label, "schedules", len(schedules))

	if len(schedules) == 0 {
		return DailyResult{
			Briefing:  fmt.Sprintf(emptyDayFormat, label),
			Schedules: []Schedule{},
			Date:      target,
		}, nil
	}

	briefing, err := s.generate(ctx, viewer, kindDaily, target, DailyBriefingPrompt(schedules, viewer.Name, label), dailyOptions)
	if err != nil {
		return DailyResult{}, err
	}
	return DailyResult{Briefing: briefing, Schedules: schedules, Date: target}, nil
}

func (s *service) MeetingMessage(ctx context.Context, viewer Viewer, scheduleID string) (MeetingResult, error) {
	id := strings.TrimSpace(scheduleID)
	if id == "" {
		return MeetingResult{}, apperrors.Wrap("invalid_input", "schedule id is required", nil)
	}
	schedule, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrScheduleNotFound) {
			return MeetingResult{}, apperrors.Wrap("not_found", "일정을 찾을 수 없습니다.", err)
		}
		return MeetingResult{}, apperrors.Wrap("storage_error", "failed to load schedule", err)
	}
	if !viewer.CanView(schedule) {
		return MeetingResult{}, apperrors.Wrap("forbidden", "이 일정에 접근할 권한이 없습니다.", nil)
	}
	if len(schedule.RelatedCustomers) == 0 {
		return MeetingResult{}, apperrors.Wrap("no_customer", "이 일정에는 관련 고객 정보가 없습니다.", nil)
	}
	schedule = s.localize(schedule)
	customer := schedule.RelatedCustomers[0]

	message, err := s.generate(ctx, viewer, kindMeeting, schedule.Date, MeetingMessagePrompt(schedule, customer), meetingOptions)
	if err != nil {
		return MeetingResult{}, err
	}
	return MeetingResult{Schedule: schedule, Customer: customer, MessageRecommendation: message}, nil
}

func (s *service) ScheduleAnalysis(ctx context.Context, viewer Viewer, req AnalysisRequest) (AnalysisResult, error) {
	start, end, err := s.resolvePeriod(req)
	if err != nil {
		return AnalysisResult{}, err
	}
	schedules, err := s.find(ctx, viewer.FilterFor(start, end))
	if err != nil {
		return AnalysisResult{}, err
	}
	s.logger.Info("schedule analysis requested", "user_id", viewer.ID, "start", start, "end", end, "schedules", len(schedules))

	if len(schedules) == 0 {
		return AnalysisResult{Analysis: emptyRangeAnalysis, Schedules: []Schedule{}}, nil
	}

	analysis, err := s.generate(ctx, viewer, kindAnalysis, start, ScheduleAnalysisPrompt(schedules), analysisOptions)
	if err != nil {
		return AnalysisResult{}, err
	}
	return AnalysisResult{
		Analysis:  analysis,
		Schedules: schedules,
		Period:    &Range{Start: start, End: end},
	}, nil
}

func (s *service) find(ctx context.Context, filter ScheduleFilter) ([]Schedule, error) {
	schedules, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap("storage_error", "failed to load schedules", err)
	}
	for i := range schedules {
		schedules[i] = s.localize(schedules[i])
	}
	return schedules, nil
}

func (s *service) localize(schedule Schedule) Schedule {
	schedule.Date = schedule.Date.In(s.location)
	return schedule
}

func (s *service) generate(ctx context.Context, viewer Viewer, kind string, day time.Time, prompt string, opts []gemini.Option) (string, error) {
	s.usage.AddPromptTokens(kind, s.tokens.Count(prompt))
	text, err := s.generator.Generate(ctx, prompt, opts...)
	if err != nil {
		s.logger.Error("briefing generation failed", "kind", kind, "user_id", viewer.ID, "outcome", gemini.Outcome(err))
		return "", apperrors.Wrap("llm_error", "failed to generate "+strings.ReplaceAll(kind, "_", " "), err)
	}
	s.store(ctx, viewer, kind, day, text)
	return text, nil
}

// store archives generated text. Failures are logged only.
func (s *service) store(ctx context.Context, viewer Viewer, kind string, day time.Time, text string) {
	if !s.cfg.ArchiveEnabled || s.archive == nil {
		return
	}
	key := fmt.Sprintf("briefings/%s/%s/%s-%s.md", viewer.ID, kind, day.Format("2006-01-02"), s.newID())
	if err := s.archive.Put(ctx, key, []byte(text)); err != nil {
		s.logger.Warn("briefing archive failed", "key", key, "error", err)
	}
}

func (s *service) resolveDay(input string) (time.Time, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return s.now().In(s.location), nil
	}
	return parseDate(trimmed, s.location)
}

// resolvePeriod uses the requested range only when both ends are present,
// otherwise the current calendar month.
func (s *service) resolvePeriod(req AnalysisRequest) (time.Time, time.Time, error) {
	startRaw, endRaw := strings.TrimSpace(req.StartDate), strings.TrimSpace(req.EndDate)
	if startRaw == "" || endRaw == "" {
		start, end := util.MonthBounds(s.now().In(s.location))
		return start, end, nil
	}
	start, err := parseDate(startRaw, s.location)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Wrap("invalid_input", "startDate must be formatted as YYYY-MM-DD", err)
	}
	end, err := parseDate(endRaw, s.location)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Wrap("invalid_input", "endDate must be formatted as YYYY-MM-DD", err)
	}
	start, end = util.StartOfDay(start), util.EndOfDay(end)
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperrors.Wrap("invalid_input", "endDate must not be before startDate", nil)
	}
	return start, end, nil
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

func loadLocation(name string) *time.Location {
	if strings.TrimSpace(name) == "" {
		name = "Asia/Seoul"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, 9*60*60)
	}
	return loc
}

type runeCounter struct{}

func (runeCounter) Count(text string) int { return len([]rune(text)) / 2 }

type noopUsage struct{}

func (noopUsage) AddPromptTokens(string, int) {}
