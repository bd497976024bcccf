package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/crm-briefing/internal/domain/auth"
	"github.com/yanqian/crm-briefing/internal/infra/config"
	"github.com/yanqian/crm-briefing/pkg/metrics"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, authSvc auth.Service, registry *metrics.Registry, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	logger = logger.With("component", "http.router")
	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(logger, registry),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, logger),
	)

	router.GET("/healthz", handler.Health)
	if cfg.Metrics.Enabled && registry != nil {
		router.GET(cfg.Metrics.Path, gin.WrapH(registry.Handler()))
	}

	requireAuth := authMiddleware(authSvc)

	api := router.Group("/api/v1")
	{
		newsGroup := api.Group("/news")
		newsGroup.GET("", handler.ListNews)
		newsGroup.GET("/latest", handler.LatestNews)
		newsGroup.GET("/:id", handler.GetNews)
		newsGroup.POST("", requireAuth, handler.CreateNews)
		newsGroup.PUT("/:id", requireAuth, handler.UpdateNews)
		newsGroup.DELETE("/:id", requireAuth, handler.DeactivateNews)
		newsGroup.DELETE("/:id/hard", requireAuth, handler.DeleteNews)

		briefingGroup := api.Group("/schedule-briefing", requireAuth)
		briefingGroup.GET("/weekly-briefing", handler.WeeklyBriefing)
		briefingGroup.GET("/daily-briefing", handler.DailyBriefing)
		briefingGroup.GET("/meeting-message/:scheduleId", handler.MeetingMessage)
		briefingGroup.GET("/analysis", handler.ScheduleAnalysis)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
