package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/crm-briefing/internal/domain/auth"
	"github.com/yanqian/crm-briefing/internal/domain/briefing"
	"github.com/yanqian/crm-briefing/internal/domain/news"
	"github.com/yanqian/crm-briefing/internal/infra/briefingarchive"
	"github.com/yanqian/crm-briefing/internal/infra/config"
	"github.com/yanqian/crm-briefing/internal/infra/llm/gemini"
	"github.com/yanqian/crm-briefing/internal/infra/newscache"
	"github.com/yanqian/crm-briefing/internal/infra/newsrepo"
	"github.com/yanqian/crm-briefing/internal/infra/schedulerepo"
	"github.com/yanqian/crm-briefing/pkg/metrics"
)

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		TokenTTL: cfg.Auth.TokenTTL,
	}
}

func provideNewsConfig(cfg *config.Config) news.Config {
	return news.Config{
		CacheTTL:        cfg.News.CacheTTL,
		DefaultPageSize: cfg.News.DefaultPageSize,
		MaxPageSize:     cfg.News.MaxPageSize,
		LatestLimit:     cfg.News.LatestLimit,
	}
}

func provideBriefingConfig(cfg *config.Config) briefing.Config {
	return briefing.Config{
		Timezone:       cfg.Briefing.Timezone,
		ArchiveEnabled: cfg.Briefing.Archive.Enabled,
	}
}

func provideGeminiClient(cfg *config.Config, registry *metrics.Registry, logger *slog.Logger) *gemini.Client {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		logger.Warn("gemini api key not set, briefing endpoints will answer 503")
	}
	return gemini.NewClient(gemini.Config{
		APIKey:         cfg.LLM.APIKey,
		PrimaryURL:     cfg.LLM.PrimaryURL,
		FallbackURL:    cfg.LLM.FallbackURL,
		Model:          cfg.LLM.Model,
		Persona:        cfg.LLM.Persona,
		AttemptTimeout: cfg.LLM.AttemptTimeout,
		MaxAttempts:    cfg.LLM.MaxAttempts,
		BaseBackoff:    cfg.LLM.BaseBackoff,
	}, registry, logger)
}

// providePostgresPool returns a nil pool when no DSN is configured or the
// database is unreachable; repositories then fall back to memory.
func providePostgresPool(cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, func()) {
	noop := func() {}
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repositories")
		return nil, noop
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repositories", "error", err)
		return nil, noop
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repositories", "error", err)
		return nil, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repositories", "error", err)
		pool.Close()
		return nil, noop
	}
	logger.Info("postgres repositories enabled")
	return pool, pool.Close
}

func provideNewsRepository(pool *pgxpool.Pool) news.Repository {
	if pool == nil {
		return newsrepo.NewMemoryRepository()
	}
	return newsrepo.NewPostgresRepository(pool)
}

func provideScheduleRepository(pool *pgxpool.Pool) briefing.ScheduleRepository {
	if pool == nil {
		return schedulerepo.NewMemoryRepository()
	}
	return schedulerepo.NewPostgresRepository(pool)
}

func provideNewsCache(cfg *config.Config, logger *slog.Logger) (news.LatestCache, func()) {
	noop := func() {}
	if !cfg.Valkey.Enabled {
		return newscache.NewMemoryCache(), noop
	}
	opt, err := buildValkeyOptions(cfg.Valkey.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
		return newscache.NewMemoryCache(), noop
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
		return newscache.NewMemoryCache(), noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory cache", "error", err)
		client.Close()
		return newscache.NewMemoryCache(), noop
	}
	logger.Info("news valkey cache enabled", "addr", cfg.Valkey.Addr)
	return newscache.NewValkeyCache(client, "news"), client.Close
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideBriefingArchive(cfg *config.Config, logger *slog.Logger) briefing.Archive {
	a := cfg.Briefing.Archive
	if !a.Enabled {
		return nil
	}
	archive, err := briefingarchive.NewR2Archive(a.Endpoint, a.AccessKey, a.SecretKey, a.Bucket, a.Region, logger)
	if err != nil {
		logger.Error("failed to initialize briefing archive, archiving disabled", "error", err)
		return nil
	}
	logger.Info("briefing archive enabled", "bucket", a.Bucket)
	return archive
}
