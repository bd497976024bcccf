package gemini

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	endpointFallback    = "fallback"
	chatCompletionsPath = "chat/completions"
)

// newCompatClient builds the OpenAI SDK client for the fallback endpoint.
// Retries are owned by Generate, so the SDK never retries on its own.
func newCompatClient(cfg Config, httpClient *http.Client) *openai.Client {
	return openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(compatBaseURL(cfg.FallbackURL)),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)
}

// compatBaseURL turns a full chat completions URL into the base the SDK expects.
func compatBaseURL(fallbackURL string) string {
	base := strings.TrimSuffix(strings.TrimSpace(fallbackURL), "/")
	base = strings.TrimSuffix(base, chatCompletionsPath)
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

func (c *Client) compatParams(prompt string, p params) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: openai.F(c.cfg.Model),
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.cfg.Persona),
			openai.UserMessage(prompt),
		}),
		Temperature: openai.F(p.temperature),
		TopP:        openai.F(p.topP),
		MaxTokens:   openai.F(int64(p.maxOutputTokens)),
	}
}

func (c *Client) callCompat(ctx context.Context, prompt string, p params) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	resp, err := c.compat.Chat.Completions.New(attemptCtx, c.compatParams(prompt, p))
	if err != nil {
		return "", c.classifyCompat(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &MalformedResponseError{Endpoint: endpointFallback, Reason: "no choice content"}
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) classifyCompat(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &UpstreamError{Endpoint: endpointFallback, StatusCode: apiErr.StatusCode, Body: truncateBody([]byte(apiErr.Error()))}
	}
	if isTimeout(err) {
		return &TimeoutError{Endpoint: endpointFallback, Timeout: c.cfg.AttemptTimeout, Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &TransportError{Endpoint: endpointFallback, Err: err}
	}
	return &MalformedResponseError{Endpoint: endpointFallback, Reason: "decode chat completion", Err: err}
}
