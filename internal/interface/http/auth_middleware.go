package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/crm-briefing/internal/domain/auth"
	apperrors "github.com/yanqian/crm-briefing/pkg/errors"
)

func authMiddleware(svc auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "인증 토큰이 필요합니다.", nil))
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "인증 토큰이 필요합니다.", nil))
			return
		}
		claims, err := svc.ValidateToken(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			status := http.StatusForbidden
			code := "invalid_token"
			message := "유효하지 않은 토큰입니다."
			if !apperrors.IsCode(err, "invalid_token") {
				status = http.StatusInternalServerError
				code = "auth_failed"
				message = apperrors.MessageOf(err)
			}
			abortWithError(c, NewHTTPError(status, code, message, err))
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}
