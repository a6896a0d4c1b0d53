// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEReaderSingleEvent(t *testing.T) {
	r := NewSSEReader(strings.NewReader("data: {\"x\":1}\n\n"))

	_, data, err := r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(data))
}

func TestSSEReaderMultipleEvents(t *testing.T) {
	input := "data: first\n\ndata: second\n\ndata: [DONE]\n\n"
	r := NewSSEReader(strings.NewReader(input))

	var events []string
	for {
		_, data, err := r.ReadEvent()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		events = append(events, string(data))
	}

	assert.Equal(t, []string{"first", "second", "[DONE]"}, events)
}

func TestSSEReaderCRLF(t *testing.T) {
	r := NewSSEReader(strings.NewReader("data: payload\r\n\r\n"))

	_, data, err := r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestSSEReaderEventType(t *testing.T) {
	r := NewSSEReader(strings.NewReader("event: ping\ndata: {}\n\n"))

	eventType, data, err := r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "ping", eventType)
	assert.Equal(t, "{}", string(data))
}

func TestSSEReaderIgnoresComments(t *testing.T) {
	r := NewSSEReader(strings.NewReader(": keepalive\nid: 42\ndata: real\n\n"))

	_, data, err := r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "real", string(data))
}

func TestSSEReaderDataBeforeEOF(t *testing.T) {
	// Event terminated by EOF rather than a blank line is still delivered.
	r := NewSSEReader(strings.NewReader("data: tail"))

	_, data, err := r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "tail", string(data))

	_, _, err = r.ReadEvent()
	assert.Equal(t, io.EOF, err)
}

func TestStreamAccumulator(t *testing.T) {
	acc := NewStreamAccumulator()

	acc.Add(makeChunk("Hello", ""))
	acc.Add(makeChunk(", wor", ""))
	acc.Add(makeChunk("ld", "stop"))

	assert.Equal(t, "Hello, world", acc.Content())
	assert.True(t, acc.Done)
	assert.Equal(t, "stop", acc.FinishReason)
	assert.NoError(t, acc.Err)
	assert.Greater(t, acc.TimeToFirstToken().Nanoseconds(), int64(0))
}

func TestStreamAccumulatorUsage(t *testing.T) {
	acc := NewStreamAccumulator()

	chunk := makeChunk("", "")
	chunk.Usage = &Usage{PromptTokens: 12, CompletionTokens: 34, TotalTokens: 46}
	acc.Add(chunk)

	require.NotNil(t, acc.Usage)
	assert.Equal(t, 12, acc.Usage.PromptTokens)
	assert.Equal(t, 34, acc.Usage.CompletionTokens)
}

func TestStreamAccumulatorError(t *testing.T) {
	acc := NewStreamAccumulator()

	acc.Add(makeChunk("partial", ""))
	acc.Add(StreamChunk{Error: ErrAuthFailed})

	assert.True(t, acc.Done)
	assert.ErrorIs(t, acc.Err, ErrAuthFailed)
	// Partial content survives for callers that choose to salvage it.
	assert.Equal(t, "partial", acc.Content())
}

// makeChunk builds a StreamChunk with one choice.
func makeChunk(content, finishReason string) StreamChunk {
	var chunk StreamChunk
	chunk.Choices = make([]struct {
		Delta struct {
			Content string `json:"content"`
			Role    string `json:"role,omitempty"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	}, 1)
	chunk.Choices[0].Delta.Content = content
	chunk.Choices[0].FinishReason = finishReason
	return chunk
}
