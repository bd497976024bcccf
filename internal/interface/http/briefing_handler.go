package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/crm-briefing/internal/domain/briefing"
)

// WeeklyBriefing generates the briefing and analysis of the current week.
func (h *Handler) WeeklyBriefing(c *gin.Context) {
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}
	res, err := h.briefingSvc.WeeklyBriefing(c.Request.Context(), viewer)
	if err != nil {
		abortWithError(c, translateError(err))
		return
	}
	respond(c, http.StatusOK, "", res)
}

// DailyBriefing generates the briefing of one day, today by default.
func (h *Handler) DailyBriefing(c *gin.Context) {
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}
	res, err := h.briefingSvc.DailyBriefing(c.Request.Context(), viewer, c.Query("date"))
	if err != nil {
		abortWithError(c, translateError(err))
		return
	}
	respond(c, http.StatusOK, "", res)
}

// MeetingMessage recommends messages for the first customer of a schedule.
func (h *Handler) MeetingMessage(c *gin.Context) {
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}
	res, err := h.briefingSvc.MeetingMessage(c.Request.Context(), viewer, c.Param("scheduleId"))
	if err != nil {
		abortWithError(c, translateError(err))
		return
	}
	respond(c, http.StatusOK, "", res)
}

// ScheduleAnalysis analyses a date range, the current month by default.
func (h *Handler) ScheduleAnalysis(c *gin.Context) {
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}
	res, err := h.briefingSvc.ScheduleAnalysis(c.Request.Context(), viewer, briefing.AnalysisRequest{
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	})
	if err != nil {
		abortWithError(c, translateError(err))
		return
	}
	respond(c, http.StatusOK, "", res)
}

func (h *Handler) viewer(c *gin.Context) (briefing.Viewer, bool) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "인증 토큰이 필요합니다.", nil))
		return briefing.Viewer{}, false
	}
	return viewerFromClaims(claims), true
}
