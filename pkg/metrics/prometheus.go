package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the service collectors. A nil *Registry is a valid no-op recorder.
type Registry struct {
	reg *prometheus.Registry

	generationAttempts *prometheus.CounterVec
	generationFallback *prometheus.CounterVec
	promptTokens       *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewRegistry registers the process, Go runtime and service collectors on a private registry.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		generationAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_generation_attempts_total",
				Help: "Text generation calls per endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		generationFallback: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_generation_fallbacks_total",
				Help: "Fallback generation calls after the primary endpoint was exhausted",
			},
			[]string{"outcome"},
		),
		promptTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_prompt_tokens_total",
				Help: "Estimated prompt tokens sent per briefing kind",
			},
			[]string{"kind"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"method", "route"},
		),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.generationAttempts,
		r.generationFallback,
		r.promptTokens,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

// ObserveAttempt counts a single generation call.
func (r *Registry) ObserveAttempt(endpoint, outcome string) {
	if r == nil {
		return
	}
	r.generationAttempts.WithLabelValues(endpoint, outcome).Inc()
}

// ObserveFallback counts a fallback generation call.
func (r *Registry) ObserveFallback(outcome string) {
	if r == nil {
		return
	}
	r.generationFallback.WithLabelValues(outcome).Inc()
}

// AddPromptTokens accumulates estimated prompt tokens.
func (r *Registry) AddPromptTokens(kind string, tokens int) {
	if r == nil || tokens <= 0 {
		return
	}
	r.promptTokens.WithLabelValues(kind).Add(float64(tokens))
}

// ObserveHTTP records a finished HTTP request.
func (r *Registry) ObserveHTTP(method, route string, status int, latency time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(latency.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer is used by tests to inspect collected samples.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
