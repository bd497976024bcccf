package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateFirstAttemptSuccess(t *testing.T) {
	primary := newScriptedServer(t, func(call int, w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"  first"},{"text":"second  "}]}}]}`)
	})
	fallback := newScriptedServer(t, failWith(http.StatusInternalServerError, "unused"))
	client, sleeps := newTestClient(t, primary.URL, fallback.URL)

	text, err := client.Generate(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "first\nsecond", text)
	require.Equal(t, int32(1), primary.calls.Load())
	require.Equal(t, int32(0), fallback.calls.Load())
	require.Empty(t, sleeps.values())

	got := primary.request(t, 0)
	require.Equal(t, "test-key", got.header.Get("x-goog-api-key"))
	require.NotContains(t, got.query, "key=")

	var req nativeRequest
	require.NoError(t, json.Unmarshal(got.body, &req))
	require.Len(t, req.Contents, 1)
	require.Equal(t, "user", req.Contents[0].Role)
	require.Equal(t, "persona\n\nhello", req.Contents[0].Parts[0].Text)
	require.Equal(t, generationConfig{Temperature: 0.7, TopK: 32, TopP: 0.9, MaxOutputTokens: 1200}, req.GenerationConfig)
}

func TestGenerateRetriesWithExponentialBackoff(t *testing.T) {
	primary := newScriptedServer(t, func(call int, w http.ResponseWriter, r *http.Request) {
		if call < 3 {
			writeJSON(w, http.StatusServiceUnavailable, `{"error":"overloaded"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"third time"}]}}]}`)
	})
	fallback := newScriptedServer(t, failWith(http.StatusInternalServerError, "unused"))
	client, sleeps := newTestClient(t, primary.URL, fallback.URL)

	text, err := client.Generate(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "third time", text)
	require.Equal(t, int32(3), primary.calls.Load())
	require.Equal(t, int32(0), fallback.calls.Load())
	require.Equal(t, []time.Duration{500 * time.Millisecond, 1000 * time.Millisecond}, sleeps.values())
}

func TestGenerateFallsBackAfterExhaustion(t *testing.T) {
	primary := newScriptedServer(t, failWith(http.StatusInternalServerError, "primary down"))
	fallback := newScriptedServer(t, func(call int, w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"from fallback"}}]}`)
	})
	client, sleeps := newTestClient(t, primary.URL, fallback.URL)

	text, err := client.Generate(context.Background(), "hello", WithTemperature(0.6), WithMaxOutputTokens(2000))
	require.NoError(t, err)
	require.Equal(t, "from fallback", text)
	require.Equal(t, int32(3), primary.calls.Load())
	require.Equal(t, int32(1), fallback.calls.Load())
	require.Len(t, sleeps.values(), 2)

	got := fallback.request(t, 0)
	require.Equal(t, "Bearer test-key", got.header.Get("Authorization"))
	require.Equal(t, "/chat/completions", got.path)

	var req chatRequest
	require.NoError(t, json.Unmarshal(got.body, &req))
	require.Equal(t, "gemini-test", req.Model)
	require.Len(t, req.Messages, 2)
	require.Equal(t, "system", req.Messages[0].Role)
	require.Equal(t, "persona", messageText(t, req.Messages[0].Content))
	require.Equal(t, "user", req.Messages[1].Role)
	require.Equal(t, "hello", messageText(t, req.Messages[1].Content))
	require.Equal(t, 0.6, req.Temperature)
	require.Equal(t, 0.9, req.TopP)
	require.Equal(t, 2000, req.MaxTokens)
}

func TestGenerateReturnsLastPrimaryErrorWhenBothFail(t *testing.T) {
	primary := newScriptedServer(t, func(call int, w http.ResponseWriter, r *http.Request) {
		if call == 3 {
			writeJSON(w, http.StatusTooManyRequests, `{"error":"third"}`)
			return
		}
		writeJSON(w, http.StatusInternalServerError, `{"error":"early"}`)
	})
	fallback := newScriptedServer(t, failWith(http.StatusBadGateway, "fallback down"))
	client, _ := newTestClient(t, primary.URL, fallback.URL)

	_, err := client.Generate(context.Background(), "hello")
	require.Error(t, err)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	require.Equal(t, endpointPrimary, upstream.Endpoint)
	require.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	require.Contains(t, upstream.Body, "third")
	require.Equal(t, int32(1), fallback.calls.Load())
}

func TestGenerateFallbackWithoutContentSurfacesPrimaryError(t *testing.T) {
	primary := newScriptedServer(t, func(call int, w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"candidates":[]}`)
	})
	fallback := newScriptedServer(t, func(call int, w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"choices":[]}`)
	})
	client, _ := newTestClient(t, primary.URL, fallback.URL)

	_, err := client.Generate(context.Background(), "hello")
	var malformed *MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	require.Equal(t, endpointPrimary, malformed.Endpoint)
	require.Equal(t, "malformed_response", Outcome(err))
}

func TestGenerateMissingAPIKeyMakesNoCalls(t *testing.T) {
	primary := newScriptedServer(t, failWith(http.StatusInternalServerError, "unused"))
	fallback := newScriptedServer(t, failWith(http.StatusInternalServerError, "unused"))
	client := NewClient(Config{PrimaryURL: primary.URL, FallbackURL: fallback.URL}, nil, discardLogger())

	_, err := client.Generate(context.Background(), "hello")
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	require.False(t, client.Configured())
	require.Equal(t, int32(0), primary.calls.Load())
	require.Equal(t, int32(0), fallback.calls.Load())
}

func TestGenerateTreatsEmptyCandidatesAsRetryable(t *testing.T) {
	primary := newScriptedServer(t, func(call int, w http.ResponseWriter, r *http.Request) {
		if call == 1 {
			writeJSON(w, http.StatusOK, `{"candidates":[]}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"recovered"}]}}]}`)
	})
	fallback := newScriptedServer(t, failWith(http.StatusInternalServerError, "unused"))
	client, sleeps := newTestClient(t, primary.URL, fallback.URL)

	text, err := client.Generate(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "recovered", text)
	require.Equal(t, int32(2), primary.calls.Load())
	require.Equal(t, []time.Duration{500 * time.Millisecond}, sleeps.values())
}

func TestGenerateTimeoutIsClassified(t *testing.T) {
	release := make(chan struct{})
	primary := newScriptedServer(t, func(call int, w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	t.Cleanup(func() { close(release) })
	fallback := newScriptedServer(t, failWith(http.StatusInternalServerError, "down"))

	client := NewClient(Config{
		APIKey:         "test-key",
		PrimaryURL:     primary.URL,
		FallbackURL:    fallback.URL,
		AttemptTimeout: 50 * time.Millisecond,
		MaxAttempts:    1,
	}, nil, discardLogger())
	client.sleep = func(time.Duration) {}

	_, err := client.Generate(context.Background(), "hello")
	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	require.Equal(t, endpointPrimary, timeoutErr.Endpoint)
	require.Equal(t, int32(1), fallback.calls.Load())
}

func TestGenerateTransportErrorWhenUnreachable(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()
	fallback := newScriptedServer(t, failWith(http.StatusInternalServerError, "down"))

	client, sleeps := newTestClient(t, closedURL, fallback.URL)
	_, err := client.Generate(context.Background(), "hello")

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	require.Equal(t, "transport_error", Outcome(err))
	require.Len(t, sleeps.values(), 2)
}

func TestGenerateIgnoresCallerCancellation(t *testing.T) {
	primary := newScriptedServer(t, func(call int, w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"done"}]}}]}`)
	})
	fallback := newScriptedServer(t, failWith(http.StatusInternalServerError, "unused"))
	client, _ := newTestClient(t, primary.URL, fallback.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	text, err := client.Generate(ctx, "hello")
	require.NoError(t, err)
	require.Equal(t, "done", text)
}

func TestGenerateRejectsInvalidOptions(t *testing.T) {
	primary := newScriptedServer(t, failWith(http.StatusInternalServerError, "unused"))
	fallback := newScriptedServer(t, failWith(http.StatusInternalServerError, "unused"))
	client, _ := newTestClient(t, primary.URL, fallback.URL)

	cases := []struct {
		name   string
		prompt string
		opts   []Option
	}{
		{name: "empty prompt", prompt: "   "},
		{name: "temperature", prompt: "hi", opts: []Option{WithTemperature(2.5)}},
		{name: "topP", prompt: "hi", opts: []Option{WithTopP(1.2)}},
		{name: "max tokens", prompt: "hi", opts: []Option{WithMaxOutputTokens(0)}},
	}
	for _, tc := range cases {
		_, err := client.Generate(context.Background(), tc.prompt, tc.opts...)
		require.ErrorIs(t, err, ErrInvalidRequest, tc.name)
	}
	require.Equal(t, int32(0), primary.calls.Load())
}

func TestGenerateOmitsTopKWhenDisabled(t *testing.T) {
	primary := newScriptedServer(t, func(call int, w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	})
	fallback := newScriptedServer(t, failWith(http.StatusInternalServerError, "unused"))
	client, _ := newTestClient(t, primary.URL, fallback.URL)

	_, err := client.Generate(context.Background(), "hello", WithTopK(0))
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(primary.request(t, 0).body, &raw))
	var genConfig map[string]any
	require.NoError(t, json.Unmarshal(raw["generationConfig"], &genConfig))
	require.NotContains(t, genConfig, "topK")
	require.Contains(t, genConfig, "topP")
}

func TestGenerateConcurrentCallsAreIndependent(t *testing.T) {
	primary := newScriptedServer(t, func(call int, w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	})
	fallback := newScriptedServer(t, failWith(http.StatusInternalServerError, "unused"))
	client, _ := newTestClient(t, primary.URL, fallback.URL)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Generate(context.Background(), "hello")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(8), primary.calls.Load())
}

func TestGenerateRecordsAttempts(t *testing.T) {
	primary := newScriptedServer(t, failWith(http.StatusInternalServerError, "down"))
	fallback := newScriptedServer(t, func(call int, w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"c2","object":"chat.completion","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"ok"}}]}`)
	})
	rec := &recordingRecorder{}
	client := NewClient(Config{APIKey: "k", PrimaryURL: primary.URL, FallbackURL: fallback.URL}, rec, discardLogger())
	client.sleep = func(time.Duration) {}

	_, err := client.Generate(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, []string{"primary:upstream_error", "primary:upstream_error", "primary:upstream_error"}, rec.attempts)
	require.Equal(t, []string{"success"}, rec.fallbacks)
}

func TestCompatBaseURL(t *testing.T) {
	cases := map[string]string{
		"https://example.test/v1beta/openai/chat/completions":  "https://example.test/v1beta/openai/",
		"https://example.test/v1beta/openai/chat/completions/": "https://example.test/v1beta/openai/",
		"https://example.test/v1beta/openai":                   "https://example.test/v1beta/openai/",
		"http://127.0.0.1:8080":                                "http://127.0.0.1:8080/",
	}
	for in, want := range cases {
		require.Equal(t, want, compatBaseURL(in), in)
	}
}

func TestCallCompatClassifiesStatusErrors(t *testing.T) {
	primary := newScriptedServer(t, failWith(http.StatusInternalServerError, "unused"))
	fallback := newScriptedServer(t, func(call int, w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, `{"message":"fallback down","type":"server_error","code":"bad_gateway","param":""}`)
	})
	client, _ := newTestClient(t, primary.URL, fallback.URL)

	_, err := client.callCompat(context.Background(), "hello", defaultParams())
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	require.Equal(t, endpointFallback, upstream.Endpoint)
	require.Equal(t, http.StatusBadGateway, upstream.StatusCode)
	require.Equal(t, int32(1), fallback.calls.Load())
}

type recordedRequest struct {
	path   string
	query  string
	header http.Header
	body   []byte
}

// scriptedServer answers with handle and keeps every request for assertions
// on the test goroutine.
type scriptedServer struct {
	*httptest.Server
	calls atomic.Int32

	mu       sync.Mutex
	requests []recordedRequest
}

func newScriptedServer(t *testing.T, handle func(call int, w http.ResponseWriter, r *http.Request)) *scriptedServer {
	t.Helper()
	s := &scriptedServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := int(s.calls.Add(1))
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.requests = append(s.requests, recordedRequest{
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			header: r.Header.Clone(),
			body:   body,
		})
		s.mu.Unlock()
		handle(call, w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *scriptedServer) request(t *testing.T, i int) recordedRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.Greater(t, len(s.requests), i)
	return s.requests[i]
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	MaxTokens   int     `json:"max_tokens"`
}

// messageText accepts both the plain string and the text-part array forms of content.
func messageText(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(raw, &parts))
	out := ""
	for _, p := range parts {
		out += p.Text
	}
	return out
}

func failWith(status int, body string) func(int, http.ResponseWriter, *http.Request) {
	return func(_ int, w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, `{"error":"`+body+`"}`)
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

type sleepLog struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepLog) record(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
}

func (s *sleepLog) values() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

type recordingRecorder struct {
	mu        sync.Mutex
	attempts  []string
	fallbacks []string
}

func (r *recordingRecorder) ObserveAttempt(endpoint, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, endpoint+":"+outcome)
}

func (r *recordingRecorder) ObserveFallback(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, outcome)
}

func newTestClient(t *testing.T, primaryURL, fallbackURL string) (*Client, *sleepLog) {
	t.Helper()
	client := NewClient(Config{
		APIKey:      "test-key",
		PrimaryURL:  primaryURL,
		FallbackURL: fallbackURL,
		Model:       "gemini-test",
		Persona:     "persona",
	}, nil, discardLogger())
	sleeps := &sleepLog{}
	client.sleep = sleeps.record
	return client, sleeps
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
