// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/chatterm/internal/util"
)

// =============================================================================
// MESSAGE
// =============================================================================

// Message roles. Insertion order is conversation order and is never
// reordered.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage creates a user message stamped with the current time.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now().UTC()}
}

// NewAssistantMessage creates an assistant message stamped with the current time.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: time.Now().UTC()}
}

// NewSystemMessage creates a system message stamped with the current time.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content, Timestamp: time.Now().UTC()}
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one conversation. The message log is append-only: messages are
// never edited or reordered once written, and an assistant reply is appended
// whole only after its stream completes.
type Session struct {
	// ID is a 128-bit random identifier assigned at creation, immutable.
	ID string `json:"id"`

	// CreatedAt is set once at creation.
	CreatedAt time.Time `json:"created_at"`

	// SystemPrompt is optional and immutable after creation.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Messages in conversation order.
	Messages []Message `json:"messages"`

	// dirty tracks unsaved changes; never serialized.
	dirty bool
}

// New creates an empty session with a fresh random ID.
func New(systemPrompt string) *Session {
	return &Session{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		SystemPrompt: systemPrompt,
		Messages:     []Message{},
		dirty:        true,
	}
}

// Append adds a message to the end of the log and marks the session dirty.
func (s *Session) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.dirty = true
}

// MessageCount returns the number of messages in the session.
func (s *Session) MessageCount() int {
	return len(s.Messages)
}

// IsDirty reports whether the session has unsaved changes.
func (s *Session) IsDirty() bool {
	return s.dirty
}

// MarkClean records that the session has been persisted.
func (s *Session) MarkClean() {
	s.dirty = false
}

// MessagesForAPI returns the message log prepared for a model request: the
// system prompt, when set, is prepended as a system message.
func (s *Session) MessagesForAPI() []Message {
	if s.SystemPrompt == "" {
		return s.Messages
	}
	msgs := make([]Message, 0, len(s.Messages)+1)
	msgs = append(msgs, Message{Role: RoleSystem, Content: s.SystemPrompt, Timestamp: s.CreatedAt})
	return append(msgs, s.Messages...)
}

// Preview returns the first user message truncated for one-line display.
// Returns empty string if no user message exists yet.
func (s *Session) Preview() string {
	for _, msg := range s.Messages {
		if msg.Role == RoleUser && msg.Content != "" {
			return util.TruncateRunes(util.Flatten(msg.Content), 80)
		}
	}
	return ""
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// Marshal serializes the session as indented JSON.
func (s *Session) Marshal() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Unmarshal deserializes a session from JSON.
func Unmarshal(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Messages == nil {
		s.Messages = []Message{}
	}
	return &s, nil
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders the conversation as a Markdown document with
// session metadata and role labels.
func (s *Session) ExportMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# Session " + s.ID + "\n\n")
	sb.WriteString("Created: " + s.CreatedAt.Format(time.RFC3339) + "\n\n")
	if s.SystemPrompt != "" {
		sb.WriteString("System prompt: " + s.SystemPrompt + "\n\n")
	}
	sb.WriteString("---\n\n")

	for _, msg := range s.Messages {
		role := "**User**"
		switch msg.Role {
		case RoleAssistant:
			role = "**Assistant**"
		case RoleSystem:
			role = "**System**"
		}
		sb.WriteString(role + " (" + msg.Timestamp.Format("15:04") + "):\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String()
}

// ExportJSON renders the conversation as pretty-printed JSON.
func (s *Session) ExportJSON() ([]byte, error) {
	return s.Marshal()
}
