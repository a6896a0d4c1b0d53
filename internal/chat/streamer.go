// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/jeranaias/chatterm/internal/llm"
	"github.com/jeranaias/chatterm/internal/render"
	"github.com/jeranaias/chatterm/internal/session"
)

// =============================================================================
// LLM STREAMER
// =============================================================================

// LLMStreamer adapts the llm client to the router's Streamer interface.
type LLMStreamer struct {
	client *llm.Client
}

func NewLLMStreamer(client *llm.Client) *LLMStreamer {
	return &LLMStreamer{client: client}
}

// Stream converts session messages to the wire format and relays the
// chunk stream as render fragments.
func (s *LLMStreamer) Stream(ctx context.Context, messages []session.Message) <-chan render.Fragment {
	chatMsgs := make([]llm.ChatMessage, len(messages))
	for i, msg := range messages {
		chatMsgs[i] = llm.ChatMessage{Role: msg.Role, Content: msg.Content}
	}

	out := make(chan render.Fragment, 64)
	go func() {
		defer close(out)
		for chunk := range s.client.ChatStreamChan(ctx, chatMsgs) {
			if chunk.Error != nil {
				out <- render.Fragment{Err: chunk.Error}
				return
			}
			if text := chunk.GetContent(); text != "" {
				select {
				case out <- render.Fragment{Text: text}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
