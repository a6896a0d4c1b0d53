// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sseHandler writes the given fragments as an OpenAI-style SSE stream.
func sseHandler(t *testing.T, fragments []string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, frag := range fragments {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q},\"finish_reason\":\"\"}]}\n\n", frag)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}],\"usage\":{\"prompt_tokens\":5,\"completion_tokens\":3,\"total_tokens\":8}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}
}

func newTestClient(serverURL string) *Client {
	return NewClient(serverURL+"/v1", "test-key", "test-model")
}

func TestChatStreamConcatenation(t *testing.T) {
	fragments := []string{"Hel", "lo, ", "wor", "ld!"}
	server := httptest.NewServer(sseHandler(t, fragments))
	defer server.Close()

	client := newTestClient(server.URL)
	acc := NewStreamAccumulator()
	err := client.ChatStream(context.Background(), []ChatMessage{NewUserMessage("hi")}, func(chunk StreamChunk) {
		acc.Add(chunk)
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello, world!", acc.Content())
	assert.Equal(t, "stop", acc.FinishReason)
	require.NotNil(t, acc.Usage)
	assert.Equal(t, 8, acc.Usage.TotalTokens)
}

func TestChatStreamChanConcatenation(t *testing.T) {
	fragments := []string{"one ", "two ", "three"}
	server := httptest.NewServer(sseHandler(t, fragments))
	defer server.Close()

	client := newTestClient(server.URL)
	acc := NewStreamAccumulator()
	for chunk := range client.ChatStreamChan(context.Background(), []ChatMessage{NewUserMessage("hi")}) {
		acc.Add(chunk)
	}

	assert.NoError(t, acc.Err)
	assert.Equal(t, "one two three", acc.Content())
}

func TestChatStreamCancellation(t *testing.T) {
	// Server emits two fragments, then stalls until the client goes away.
	ctx, cancel := context.WithCancel(context.Background())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for i := 0; i < 2; i++ {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"frag\"},\"finish_reason\":\"\"}]}\n\n")
			flusher.Flush()
		}
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	var seen int
	err := client.ChatStream(ctx, []ChatMessage{NewUserMessage("hi")}, func(chunk StreamChunk) {
		seen++
		if seen == 2 {
			cancel()
		}
	})

	assert.ErrorIs(t, err, context.Canceled)
	// No fragment is delivered after the one during which cancel fired.
	assert.Equal(t, 2, seen)
}

func TestChatStreamAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key","code":"invalid_api_key"}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.ChatStream(context.Background(), []ChatMessage{NewUserMessage("hi")}, func(StreamChunk) {})

	assert.ErrorIs(t, err, ErrAuthFailed)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusUnauthorized, transportErr.Status)
	assert.Contains(t, transportErr.Message, "invalid api key")
}

func TestChatStreamRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down"}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.ChatStream(context.Background(), []ChatMessage{NewUserMessage("hi")}, func(StreamChunk) {})

	assert.ErrorIs(t, err, ErrRateLimited)

	var rateErr *RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 7*time.Second, rateErr.RetryAfter)
}

func TestChatStreamModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"message":"no such model"}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.ChatStream(context.Background(), []ChatMessage{NewUserMessage("hi")}, func(StreamChunk) {})

	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestChatStreamMalformedChunksSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {not json}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"},\"finish_reason\":\"\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	acc := NewStreamAccumulator()
	err := client.ChatStream(context.Background(), []ChatMessage{NewUserMessage("hi")}, func(chunk StreamChunk) {
		acc.Add(chunk)
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", acc.Content())
}

func TestChatStreamNotConfigured(t *testing.T) {
	client := NewClient("", "", "")
	err := client.ChatStream(context.Background(), []ChatMessage{NewUserMessage("hi")}, func(StreamChunk) {})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 30*time.Second, parseRetryAfter("30"))
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, time.Duration(0), parseRetryAfter("garbage"))
}

func TestClientModelDefault(t *testing.T) {
	client := NewClient("https://api.example.com/v1", "key", "")
	assert.Equal(t, DefaultModel, client.Model())

	client.SetModel("other-model")
	assert.Equal(t, "other-model", client.Model())
}
