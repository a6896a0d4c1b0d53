// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// Markdown wraps a glamour renderer with a plain-text fallback.
type Markdown struct {
	tr *glamour.TermRenderer
}

// NewMarkdown creates a markdown renderer wrapped to the given width.
// If glamour fails to initialize, Render falls back to the raw text.
func NewMarkdown(width int) *Markdown {
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		tr = nil
	}
	return &Markdown{tr: tr}
}

// Render renders markdown content for terminal display. Returns the
// original content if rendering fails or the renderer is unavailable.
func (m *Markdown) Render(content string) string {
	if m.tr == nil {
		return content
	}
	rendered, err := m.tr.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// =============================================================================
// PARTIAL-BUFFER HANDLING
// =============================================================================

// SplitIncomplete splits streaming markdown into a stable prefix that is
// safe to render and a tail holding any unclosed code fence. Rendering a
// half-received fence produces garbage, so the tail is displayed as plain
// text until the closing fence arrives.
func SplitIncomplete(content string) (stable, tail string) {
	lines := strings.Split(content, "\n")

	fenceOpen := false
	fenceLine := 0
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fenceOpen = !fenceOpen
			if fenceOpen {
				fenceLine = i
			}
		}
	}

	if !fenceOpen {
		return content, ""
	}

	stable = strings.Join(lines[:fenceLine], "\n")
	tail = strings.Join(lines[fenceLine:], "\n")
	return stable, tail
}
