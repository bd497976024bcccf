package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrInvalidRequest is returned for prompts or options rejected before any call is made.
var ErrInvalidRequest = errors.New("gemini: invalid generation request")

// ConfigurationError reports a client that cannot call the API at all.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "gemini: configuration error: " + e.Reason
}

// TimeoutError reports an attempt abandoned at its deadline.
type TimeoutError struct {
	Endpoint string
	Timeout  time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("gemini: %s request timed out after %s", e.Endpoint, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// TransportError reports a connection level failure.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gemini: %s request failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError carries a non-2xx answer from the API.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gemini: %s request failed: status=%d body=%s", e.Endpoint, e.StatusCode, e.Body)
}

// MalformedResponseError reports a 2xx answer that could not be used.
type MalformedResponseError struct {
	Endpoint string
	Reason   string
	Body     string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gemini: %s response malformed: %s: %v", e.Endpoint, e.Reason, e.Err)
	}
	return fmt.Sprintf("gemini: %s response malformed: %s", e.Endpoint, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Outcome classifies err into the label used for logs and metrics.
func Outcome(err error) string {
	var (
		cfgErr       *ConfigurationError
		timeoutErr   *TimeoutError
		transportErr *TransportError
		upstreamErr  *UpstreamError
		malformedErr *MalformedResponseError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &cfgErr):
		return "configuration_error"
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &transportErr):
		return "transport_error"
	case errors.As(err, &upstreamErr):
		return "upstream_error"
	case errors.As(err, &malformedErr):
		return "malformed_response"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return "unknown"
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
