// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	s := New("be terse")

	if s.ID == "" {
		t.Error("expected non-empty ID")
	}
	if s.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if s.SystemPrompt != "be terse" {
		t.Errorf("SystemPrompt = %q, want %q", s.SystemPrompt, "be terse")
	}
	if len(s.Messages) != 0 {
		t.Errorf("new session has %d messages, want 0", len(s.Messages))
	}
	if !s.IsDirty() {
		t.Error("new session should be dirty until first save")
	}
}

func TestNewGeneratesUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := New("")
		if seen[s.ID] {
			t.Fatalf("duplicate session ID: %s", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	s := New("")
	s.Append(NewUserMessage("first"))
	s.Append(NewAssistantMessage("second"))
	s.Append(NewUserMessage("third"))

	if s.MessageCount() != 3 {
		t.Fatalf("MessageCount = %d, want 3", s.MessageCount())
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if s.Messages[i].Content != w {
			t.Errorf("Messages[%d].Content = %q, want %q", i, s.Messages[i].Content, w)
		}
	}
}

func TestDirtyTracking(t *testing.T) {
	s := New("")
	s.MarkClean()
	if s.IsDirty() {
		t.Error("session should be clean after MarkClean")
	}

	s.Append(NewUserMessage("hi"))
	if !s.IsDirty() {
		t.Error("session should be dirty after Append")
	}
}

func TestMessagesForAPI(t *testing.T) {
	s := New("you are a pirate")
	s.Append(NewUserMessage("ahoy"))

	msgs := s.MessagesForAPI()
	if len(msgs) != 2 {
		t.Fatalf("MessagesForAPI returned %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != RoleSystem || msgs[0].Content != "you are a pirate" {
		t.Errorf("first message = %+v, want system prompt", msgs[0])
	}
	if msgs[1].Content != "ahoy" {
		t.Errorf("second message = %q, want %q", msgs[1].Content, "ahoy")
	}
}

func TestMessagesForAPIWithoutSystemPrompt(t *testing.T) {
	s := New("")
	s.Append(NewUserMessage("hello"))

	msgs := s.MessagesForAPI()
	if len(msgs) != 1 {
		t.Fatalf("MessagesForAPI returned %d messages, want 1", len(msgs))
	}
	if msgs[0].Role != RoleUser {
		t.Errorf("first message role = %q, want %q", msgs[0].Role, RoleUser)
	}
}

func TestRoundTrip(t *testing.T) {
	s := New("prompt")
	s.Append(NewUserMessage("multi\nline\ncontent"))
	s.Append(NewAssistantMessage(""))
	s.Append(NewUserMessage("日本語"))

	data, err := s.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if got.ID != s.ID {
		t.Errorf("ID = %q, want %q", got.ID, s.ID)
	}
	if got.SystemPrompt != s.SystemPrompt {
		t.Errorf("SystemPrompt = %q, want %q", got.SystemPrompt, s.SystemPrompt)
	}
	if len(got.Messages) != len(s.Messages) {
		t.Fatalf("message count = %d, want %d", len(got.Messages), len(s.Messages))
	}
	for i := range s.Messages {
		if got.Messages[i].Role != s.Messages[i].Role {
			t.Errorf("Messages[%d].Role = %q, want %q", i, got.Messages[i].Role, s.Messages[i].Role)
		}
		if got.Messages[i].Content != s.Messages[i].Content {
			t.Errorf("Messages[%d].Content = %q, want %q", i, got.Messages[i].Content, s.Messages[i].Content)
		}
	}
}

func TestUnmarshalNilMessages(t *testing.T) {
	got, err := Unmarshal([]byte(`{"id":"abc","created_at":"2025-01-02T03:04:05Z","messages":null}`))
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.Messages == nil {
		t.Error("Messages should be non-nil after Unmarshal")
	}
}

func TestPreview(t *testing.T) {
	s := New("")
	if s.Preview() != "" {
		t.Errorf("empty session preview = %q, want empty", s.Preview())
	}

	s.Append(NewUserMessage("line one\nline two"))
	if got := s.Preview(); got != "line one line two" {
		t.Errorf("Preview = %q, want flattened content", got)
	}
}

func TestExportMarkdown(t *testing.T) {
	s := New("sys")
	s.Append(NewUserMessage("question"))
	s.Append(NewAssistantMessage("answer"))

	md := s.ExportMarkdown()
	for _, want := range []string{"# Session " + s.ID, "**User**", "**Assistant**", "question", "answer"} {
		if !strings.Contains(md, want) {
			t.Errorf("ExportMarkdown missing %q", want)
		}
	}
}
