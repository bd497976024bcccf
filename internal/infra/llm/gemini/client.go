package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
)

const (
	defaultPrimaryURL     = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent"
	defaultFallbackURL    = "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions"
	defaultModel          = "gemini-2.5-flash"
	defaultPersona        = "당신은 부동산 CRM 시스템의 AI 어시스턴트입니다. 한국어로 친근하고 전문적인 톤으로 응답해주세요."
	defaultAttemptTimeout = 90 * time.Second
	defaultMaxAttempts    = 3
	defaultBaseBackoff    = 500 * time.Millisecond

	errorBodyLimit = 4 << 10
)

// Config is fixed at construction; the client reads nothing from the environment.
type Config struct {
	APIKey         string
	PrimaryURL     string
	FallbackURL    string
	Model          string
	Persona        string
	AttemptTimeout time.Duration
	MaxAttempts    int
	BaseBackoff    time.Duration
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.PrimaryURL) == "" {
		c.PrimaryURL = defaultPrimaryURL
	}
	if strings.TrimSpace(c.FallbackURL) == "" {
		c.FallbackURL = defaultFallbackURL
	}
	if strings.TrimSpace(c.Model) == "" {
		c.Model = defaultModel
	}
	if strings.TrimSpace(c.Persona) == "" {
		c.Persona = defaultPersona
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = defaultAttemptTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = defaultBaseBackoff
	}
	return c
}

// Recorder receives one observation per endpoint call.
type Recorder interface {
	ObserveAttempt(endpoint, outcome string)
	ObserveFallback(outcome string)
}

type noopRecorder struct{}

func (noopRecorder) ObserveAttempt(string, string) {}
func (noopRecorder) ObserveFallback(string)        {}

// Client generates text against the Gemini generateContent API and falls back
// to the OpenAI compatible chat completions API once the primary is exhausted.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	compat     *openai.Client
	recorder   Recorder
	logger     *slog.Logger
	sleep      func(time.Duration)
}

// NewClient constructs a client. A missing API key is reported by Generate, not here,
// so the service can still start without generation configured.
func NewClient(cfg Config, recorder Recorder, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := &http.Client{}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		compat:     newCompatClient(cfg, httpClient),
		recorder:   recorder,
		logger:     logger.With("component", "llm.gemini"),
		sleep:      time.Sleep,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

// Generate returns the generated text for prompt. The call runs its full
// retry and fallback sequence even if ctx is cancelled; each attempt has its
// own deadline of Config.AttemptTimeout.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	if !c.Configured() {
		return "", &ConfigurationError{Reason: "api key is not configured"}
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", ErrInvalidRequest)
	}
	p := defaultParams()
	for _, opt := range opts {
		opt(&p)
	}
	if err := p.validate(); err != nil {
		return "", err
	}

	ctx = context.WithoutCancel(ctx)
	req := c.nativeRequest(prompt, p)

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		text, err := c.callNative(ctx, req)
		c.recorder.ObserveAttempt(endpointPrimary, Outcome(err))
		if err == nil {
			return text, nil
		}
		lastErr = err
		c.logAttemptFailure(attempt, err)
		if attempt < c.cfg.MaxAttempts-1 {
			c.sleep(c.backoff(attempt))
		}
	}

	c.logger.Info("primary endpoint exhausted, trying fallback", "attempts", c.cfg.MaxAttempts, "last_outcome", Outcome(lastErr))
	text, err := c.callCompat(ctx, prompt, p)
	c.recorder.ObserveFallback(Outcome(err))
	if err == nil {
		return text, nil
	}
	c.logger.Warn("fallback generation failed", "outcome", Outcome(err), "error", err)

	if lastErr != nil {
		return "", lastErr
	}
	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		return "", err
	}
	return "", &MalformedResponseError{Endpoint: endpointFallback, Reason: "fallback response unusable", Err: err}
}

func (c *Client) backoff(attempt int) time.Duration {
	return c.cfg.BaseBackoff * time.Duration(1<<attempt)
}

func (c *Client) logAttemptFailure(attempt int, err error) {
	attrs := []any{
		"attempt", attempt + 1,
		"max_attempts", c.cfg.MaxAttempts,
		"outcome", Outcome(err),
		"error", err,
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		attrs = append(attrs, "status", upstream.StatusCode)
	}
	c.logger.Warn("primary generation attempt failed", attrs...)
}

// post sends payload as JSON and returns the 2xx body, classifying every failure.
func (c *Client) post(ctx context.Context, endpoint, url string, headers map[string]string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s request: %v", ErrInvalidRequest, endpoint, err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.classify(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &UpstreamError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classify(endpoint, err)
	}
	return body, nil
}

func (c *Client) classify(endpoint string, err error) error {
	if isTimeout(err) {
		return &TimeoutError{Endpoint: endpoint, Timeout: c.cfg.AttemptTimeout, Err: err}
	}
	return &TransportError{Endpoint: endpoint, Err: err}
}

func truncateBody(body []byte) string {
	if len(body) > errorBodyLimit {
		return string(body[:errorBodyLimit])
	}
	return string(body)
}
