// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a stream.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		reader: bufio.NewReader(r),
	}
}

// ReadEvent reads the next SSE event and returns its event type and data.
// Returns io.EOF when the stream ends.
func (s *SSEReader) ReadEvent() (string, []byte, error) {
	var eventType string
	var dataLines [][]byte

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				// ReadBytes hands back any unterminated final line.
				if trimmed := bytes.TrimRight(line, "\r\n"); bytes.HasPrefix(trimmed, []byte("data:")) {
					dataLines = append(dataLines, bytes.TrimSpace(trimmed[5:]))
				}
				if len(dataLines) > 0 {
					return eventType, bytes.Join(dataLines, []byte("\n")), nil
				}
				return "", nil, io.EOF
			}
			return "", nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Empty line signals end of event.
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		if bytes.HasPrefix(line, []byte("event:")) {
			eventType = string(bytes.TrimSpace(line[6:]))
		} else if bytes.HasPrefix(line, []byte("data:")) {
			dataLines = append(dataLines, bytes.TrimSpace(line[5:]))
		}
		// Ignore other fields (id:, retry:, comments starting with :).
	}
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChatStream sends the message history and calls the callback for each chunk
// received, synchronously and in order. It blocks until the stream completes,
// the context is cancelled, or the transport fails. The callback sees every
// fragment exactly once; no retries happen here.
func (c *Client) ChatStream(ctx context.Context, messages []ChatMessage, callback StreamCallback) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	reqBody := ChatRequest{
		Model:         c.model,
		Messages:      messages,
		Stream:        true,
		StreamOptions: &StreamOptions{IncludeUsage: true},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		return c.handleErrorResponse(resp, body)
	}

	return c.processStream(ctx, resp.Body, callback)
}

// processStream reads and decodes the SSE stream, checking for cancellation
// between events so an interrupt is observed within one fragment's latency.
func (c *Client) processStream(ctx context.Context, body io.Reader, callback StreamCallback) error {
	reader := NewSSEReader(body)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, data, err := reader.ReadEvent()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("stream read failed: %w", err)
		}

		if bytes.Equal(data, []byte("[DONE]")) {
			return nil
		}

		var chunk StreamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			// Skip malformed chunks rather than aborting the turn.
			continue
		}

		callback(chunk)
	}
}

// ChatStreamChan sends the message history and returns a channel of chunks.
// The channel is closed when streaming completes or fails; errors are
// delivered as a final chunk with the Error field set.
func (c *Client) ChatStreamChan(ctx context.Context, messages []ChatMessage) <-chan StreamChunk {
	ch := make(chan StreamChunk, 64)

	go func() {
		defer close(ch)

		err := c.ChatStream(ctx, messages, func(chunk StreamChunk) {
			select {
			case ch <- chunk:
			case <-ctx.Done():
			}
		})

		if err != nil {
			select {
			case ch <- StreamChunk{Error: err}:
			default:
				// Consumer stopped reading (cancelled turn); the close below
				// still signals the end of the stream.
			}
		}
	}()

	return ch
}

// =============================================================================
// STREAM ACCUMULATOR
// =============================================================================

// StreamAccumulator collects streaming chunks into the complete reply plus
// the transport-reported metadata for the turn.
type StreamAccumulator struct {
	content      strings.Builder
	Model        string
	FinishReason string
	Usage        *Usage
	StartTime    time.Time
	FirstTokenAt time.Time
	Done         bool
	Err          error
}

// NewStreamAccumulator creates a new accumulator.
func NewStreamAccumulator() *StreamAccumulator {
	return &StreamAccumulator{
		StartTime: time.Now(),
	}
}

// Add processes a new chunk.
func (a *StreamAccumulator) Add(chunk StreamChunk) {
	if chunk.Error != nil {
		a.Err = chunk.Error
		a.Done = true
		return
	}

	content := chunk.GetContent()
	if content != "" {
		if a.FirstTokenAt.IsZero() {
			a.FirstTokenAt = time.Now()
		}
		a.content.WriteString(content)
	}

	if chunk.Model != "" {
		a.Model = chunk.Model
	}
	if chunk.Usage != nil {
		a.Usage = chunk.Usage
	}
	if chunk.IsDone() {
		a.Done = true
		a.FinishReason = chunk.GetFinishReason()
	}
}

// Content returns the accumulated reply text.
func (a *StreamAccumulator) Content() string {
	return a.content.String()
}

// TimeToFirstToken returns the latency before the first fragment, or zero if
// none arrived.
func (a *StreamAccumulator) TimeToFirstToken() time.Duration {
	if a.FirstTokenAt.IsZero() {
		return 0
	}
	return a.FirstTokenAt.Sub(a.StartTime)
}
