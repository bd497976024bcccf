//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/crm-briefing/internal/bootstrap"
	"github.com/yanqian/crm-briefing/internal/domain/auth"
	"github.com/yanqian/crm-briefing/internal/domain/briefing"
	"github.com/yanqian/crm-briefing/internal/domain/news"
	"github.com/yanqian/crm-briefing/internal/infra/config"
	"github.com/yanqian/crm-briefing/internal/infra/llm/gemini"
	httpiface "github.com/yanqian/crm-briefing/internal/interface/http"
	"github.com/yanqian/crm-briefing/pkg/logger"
	"github.com/yanqian/crm-briefing/pkg/metrics"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		metrics.NewRegistry,
		metrics.NewTokenCounter,
		provideAuthConfig,
		provideNewsConfig,
		provideBriefingConfig,
		provideGeminiClient,
		providePostgresPool,
		provideNewsRepository,
		provideScheduleRepository,
		provideNewsCache,
		provideBriefingArchive,
		auth.NewService,
		news.NewService,
		briefing.NewService,
		wire.Bind(new(briefing.Generator), new(*gemini.Client)),
		wire.Bind(new(briefing.TokenCounter), new(*metrics.TokenCounter)),
		wire.Bind(new(briefing.UsageRecorder), new(*metrics.Registry)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
