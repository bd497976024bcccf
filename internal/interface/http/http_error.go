package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/crm-briefing/internal/infra/llm/gemini"
	apperrors "github.com/yanqian/crm-briefing/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

// translateError maps domain and generation failures onto a response status and code.
func translateError(err error) *HTTPError {
	var (
		cfgErr     *gemini.ConfigurationError
		timeoutErr *gemini.TimeoutError
	)
	switch {
	case errors.As(err, &cfgErr):
		return NewHTTPError(http.StatusServiceUnavailable, "llm_unavailable", "AI 서비스가 설정되지 않았습니다.", err)
	case errors.As(err, &timeoutErr):
		return NewHTTPError(http.StatusGatewayTimeout, "llm_timeout", "AI 응답 시간이 초과되었습니다. 잠시 후 다시 시도해주세요.", err)
	}

	message := apperrors.MessageOf(err)
	switch code := apperrors.CodeOf(err); code {
	case "invalid_input", "no_customer":
		return NewHTTPError(http.StatusBadRequest, code, message, err)
	case "not_found":
		return NewHTTPError(http.StatusNotFound, code, message, err)
	case "forbidden":
		return NewHTTPError(http.StatusForbidden, code, message, err)
	case "llm_error":
		return NewHTTPError(http.StatusBadGateway, code, message, err)
	case "storage_error":
		return NewHTTPError(http.StatusInternalServerError, code, message, err)
	}
	return NewHTTPError(http.StatusInternalServerError, "internal_error", "something went wrong", err)
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func respond(c *gin.Context, status int, message string, data any) {
	body := gin.H{"success": true, "data": data}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}
