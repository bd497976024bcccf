package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/crm-briefing/internal/domain/briefing"
	"github.com/yanqian/crm-briefing/internal/domain/news"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	newsSvc     news.Service
	briefingSvc briefing.Service
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(newsSvc news.Service, briefingSvc briefing.Service, logger *slog.Logger) *Handler {
	return &Handler{
		newsSvc:     newsSvc,
		briefingSvc: briefingSvc,
		logger:      logger.With("component", "http.handler"),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// queryInt returns 0 for absent or malformed values so the service default applies.
func queryInt(c *gin.Context, key string) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}
