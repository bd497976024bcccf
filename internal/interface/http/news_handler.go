package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/crm-briefing/internal/domain/news"
)

// CreateNews publishes a news link.
func (h *Handler) CreateNews(c *gin.Context) {
	var req news.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	item, err := h.newsSvc.Create(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, translateError(err))
		return
	}
	respond(c, http.StatusCreated, "뉴스가 성공적으로 등록되었습니다.", item)
}

// ListNews returns a page of active news.
func (h *Handler) ListNews(c *gin.Context) {
	res, err := h.newsSvc.List(c.Request.Context(), news.ListQuery{
		Page:      queryInt(c, "page"),
		Limit:     queryInt(c, "limit"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Search:    c.Query("search"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	})
	if err != nil {
		abortWithError(c, translateError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       res.Items,
		"pagination": res.Pagination,
	})
}

// LatestNews returns the most recent active news for the dashboard.
func (h *Handler) LatestNews(c *gin.Context) {
	items, err := h.newsSvc.Latest(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		abortWithError(c, translateError(err))
		return
	}
	respond(c, http.StatusOK, "", items)
}

// GetNews returns a single news item.
func (h *Handler) GetNews(c *gin.Context) {
	item, err := h.newsSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, translateError(err))
		return
	}
	respond(c, http.StatusOK, "", item)
}

// UpdateNews applies a partial update.
func (h *Handler) UpdateNews(c *gin.Context) {
	var req news.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	item, err := h.newsSvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abortWithError(c, translateError(err))
		return
	}
	respond(c, http.StatusOK, "뉴스가 성공적으로 수정되었습니다.", item)
}

// DeactivateNews hides a news item from lists.
func (h *Handler) DeactivateNews(c *gin.Context) {
	if err := h.newsSvc.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, translateError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "뉴스가 성공적으로 삭제되었습니다."})
}

// DeleteNews removes a news item permanently.
func (h *Handler) DeleteNews(c *gin.Context) {
	if err := h.newsSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, translateError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "뉴스가 영구적으로 삭제되었습니다."})
}
