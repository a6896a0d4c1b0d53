// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the chat completions API.
const (
	// DefaultModel is used when the caller does not name a model.
	DefaultModel = "gpt-4o-mini"

	// DefaultTimeout is the timeout for non-streaming requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize caps error response bodies read into memory.
	MaxResponseSize = 1 * 1024 * 1024

	// requestsPerSecond paces outgoing requests client-side so a fast typist
	// cannot trip provider rate limits with back-to-back turns.
	requestsPerSecond = 2
)

var (
	// sharedHTTPClient serves non-streaming requests with connection pooling.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient serves streaming requests. No client timeout:
	// stream lifetime is controlled by the caller's context.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// =============================================================================
// ERRORS
// =============================================================================

// Sentinel errors for common transport failures.
var (
	// ErrNotConfigured indicates the base URL or API key is not set.
	ErrNotConfigured = errors.New("llm client not configured")

	// ErrAuthFailed indicates authentication failed (invalid or expired key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")
)

// TransportError represents a failure reported by the model endpoint or the
// network path to it. It is surfaced to the caller without retry.
type TransportError struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("transport error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("transport error (HTTP %d): %s", e.Status, e.Message)
}

// Is maps well-known HTTP statuses onto the sentinel errors.
func (e *TransportError) Is(target error) bool {
	switch target {
	case ErrAuthFailed:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	case ErrModelNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// RateLimitError carries the server-reported backoff interval.
type RateLimitError struct {
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %v", e.RetryAfter)
	}
	return "rate limited"
}

// Is allows RateLimitError to be compared with ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to an OpenAI-compatible chat completions endpoint. It is safe
// for use from a single interactive loop; it performs no retries and leaves
// retry policy to the caller.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	limiter *rate.Limiter

	// httpClient and streamClient are swappable for tests.
	httpClient   *http.Client
	streamClient *http.Client
}

// NewClient creates a client for the given endpoint. model may be empty, in
// which case DefaultModel is used.
func NewClient(baseURL, apiKey, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		model:        model,
		limiter:      rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		httpClient:   sharedHTTPClient,
		streamClient: sharedStreamingClient,
	}
}

// IsConfigured reports whether the client has a base URL and API key.
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// Model returns the model the client sends requests for.
func (c *Client) Model() string {
	return c.model
}

// SetModel changes the model used for subsequent requests.
func (c *Client) SetModel(model string) {
	if model != "" {
		c.model = model
	}
}

// setHeaders applies the standard headers to an outgoing request.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

// =============================================================================
// ERROR RESPONSE HANDLING
// =============================================================================

// apiError is the error envelope OpenAI-compatible providers return.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// handleErrorResponse converts a non-200 response into a typed error.
func (c *Client) handleErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		if ra := parseRetryAfter(resp.Header.Get("Retry-After")); ra > 0 {
			return &RateLimitError{RetryAfter: ra}
		}
	}

	var parsed apiError
	message := strings.TrimSpace(string(body))
	code := ""
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		message = parsed.Error.Message
		code = parsed.Error.Type
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return &TransportError{
		Status:  resp.StatusCode,
		Code:    code,
		Message: message,
	}
}

// parseRetryAfter parses a Retry-After header as seconds or an HTTP date.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		return time.Until(t)
	}
	return 0
}
