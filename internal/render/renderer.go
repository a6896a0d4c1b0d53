// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/jeranaias/chatterm/internal/util"
)

// =============================================================================
// RENDERER INTERFACE
// =============================================================================

// Renderer displays a streaming reply. Update repaints the reply with the
// content accumulated so far; Done paints the final content and leaves the
// cursor ready for the next prompt.
type Renderer interface {
	Update(content string)
	Done(content string)
}

// NewRenderer picks a renderer for the given writer. A TTY gets the live
// repainting renderer; anything else gets incremental plain output so
// piped output is never corrupted by escape sequences.
func NewRenderer(w io.Writer) Renderer {
	if f, ok := w.(*os.File); ok && f == os.Stdout && util.IsStdoutTTY() {
		return NewTermRenderer(w, util.TerminalWidth())
	}
	return NewPlainRenderer(w)
}

// =============================================================================
// TTY RENDERER
// =============================================================================

// TermRenderer repaints a live region of the terminal in place. It tracks
// how many screen lines the previous frame occupied and clears exactly
// that many before drawing the next one.
type TermRenderer struct {
	out        *termenv.Output
	md         *Markdown
	width      int
	linesDrawn int
}

func NewTermRenderer(w io.Writer, width int) *TermRenderer {
	if width < util.MinTerminalWidth {
		width = util.DefaultTerminalWidth
	}
	return &TermRenderer{
		out:   termenv.NewOutput(w),
		md:    NewMarkdown(width),
		width: width,
	}
}

// Update repaints the live region with the accumulated content. The tail
// past any unclosed code fence is drawn as plain text.
func (r *TermRenderer) Update(content string) {
	if content == "" {
		return
	}
	stable, rawTail := SplitIncomplete(content)

	var frame strings.Builder
	if stable != "" {
		frame.WriteString(strings.TrimRight(r.md.Render(stable), "\n"))
		frame.WriteString("\n")
	}
	if rawTail != "" {
		frame.WriteString(rawTail)
	}

	r.repaint(frame.String())
}

// Done paints the fully rendered reply and resets the live region.
func (r *TermRenderer) Done(content string) {
	r.repaint(strings.TrimRight(r.md.Render(content), "\n"))
	r.linesDrawn = 0
}

// repaint clears the previous frame and draws the new one. Every frame
// is drawn with a trailing newline so the cursor always rests at column
// zero on the row below the frame. ClearLines erases the cursor row
// plus n rows above it, so that resting row plus linesDrawn rows is
// exactly the previous frame and nothing of the output above it.
func (r *TermRenderer) repaint(frame string) {
	if !strings.HasSuffix(frame, "\n") {
		frame += "\n"
	}
	if r.linesDrawn > 0 {
		r.out.ClearLines(r.linesDrawn)
		fmt.Fprint(r.out, "\r")
	}
	fmt.Fprint(r.out, frame)
	r.linesDrawn = screenLines(frame, r.width)
}

// screenLines counts how many terminal rows the frame occupies once long
// lines wrap at the given width. Glamour output is pre-wrapped, so
// wrapping mostly matters for the raw fence tail.
func screenLines(frame string, width int) int {
	if frame == "" {
		return 0
	}
	rows := 0
	for _, line := range strings.Split(frame, "\n") {
		w := runewidth.StringWidth(stripANSI(line))
		if w <= width {
			rows++
			continue
		}
		rows += (w + width - 1) / width
	}
	// A trailing newline has already moved the cursor to the next row.
	if strings.HasSuffix(frame, "\n") {
		rows--
	}
	return rows
}

// stripANSI removes CSI escape sequences so cell-width accounting is not
// inflated by styling.
func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// =============================================================================
// PLAIN RENDERER
// =============================================================================

// PlainRenderer appends fragments as they arrive with no escape sequences
// and no repainting. Used when output is piped or redirected.
type PlainRenderer struct {
	w       io.Writer
	written int
}

func NewPlainRenderer(w io.Writer) *PlainRenderer {
	return &PlainRenderer{w: w}
}

// Update writes only the portion of content not yet written.
func (r *PlainRenderer) Update(content string) {
	if len(content) <= r.written {
		return
	}
	fmt.Fprint(r.w, content[r.written:])
	r.written = len(content)
}

// Done flushes any remaining content and a trailing newline.
func (r *PlainRenderer) Done(content string) {
	r.Update(content)
	fmt.Fprintln(r.w)
	r.written = 0
}
