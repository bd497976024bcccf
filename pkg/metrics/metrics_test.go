package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry
	r.ObserveAttempt("primary", "success")
	r.ObserveFallback("failure")
	r.AddPromptTokens("weekly", 10)
	r.ObserveHTTP(http.MethodGet, "/x", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegistryExposesCounters(t *testing.T) {
	r := NewRegistry()
	r.ObserveAttempt("primary", "upstream_error")
	r.ObserveAttempt("primary", "success")
	r.ObserveFallback("success")
	r.AddPromptTokens("weekly", 42)
	r.ObserveHTTP(http.MethodGet, "/api/v1/news", 200, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, `crm_generation_attempts_total{endpoint="primary",outcome="upstream_error"} 1`)
	require.Contains(t, body, `crm_generation_fallbacks_total{outcome="success"} 1`)
	require.Contains(t, body, `crm_prompt_tokens_total{kind="weekly"} 42`)
	require.True(t, strings.Contains(body, `crm_http_requests_total{method="GET",route="/api/v1/news",status="200"} 1`))
}

func TestApproximateTokens(t *testing.T) {
	require.Equal(t, 0, (*TokenCounter)(nil).Count(""))
	require.Equal(t, 3, approximateTokens("안녕하세요"))
}
