// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"context"
	"strings"
	"time"
)

// =============================================================================
// RENDER LOOP
// =============================================================================

// DefaultRedrawInterval bounds how often the live region repaints. Fast
// streams batch multiple fragments into one repaint.
const DefaultRedrawInterval = 80 * time.Millisecond

// Fragment is one increment of a streaming reply. Err, when set, ends the
// stream; Text is ignored on an error fragment.
type Fragment struct {
	Text string
	Err  error
}

// Loop consumes reply fragments and drives a Renderer.
type Loop struct {
	renderer Renderer
	interval time.Duration
}

func NewLoop(r Renderer) *Loop {
	return &Loop{
		renderer: r,
		interval: DefaultRedrawInterval,
	}
}

// SetRedrawInterval overrides the repaint throttle. Zero repaints on
// every fragment.
func (l *Loop) SetRedrawInterval(d time.Duration) {
	l.interval = d
}

// Run consumes fragments until the channel closes, an error fragment
// arrives, or the context is cancelled. It returns the accumulated text
// in all three cases; on cancellation the error is ctx.Err() and the
// caller decides whether the partial text is kept.
//
// Run always finalizes the renderer before returning so the terminal is
// never left mid-repaint.
func (l *Loop) Run(ctx context.Context, fragments <-chan Fragment) (string, error) {
	var buf strings.Builder
	var lastDraw time.Time

	for {
		select {
		case <-ctx.Done():
			l.renderer.Done(buf.String())
			return buf.String(), ctx.Err()

		case frag, ok := <-fragments:
			if !ok {
				final := buf.String()
				l.renderer.Done(final)
				return final, nil
			}
			if frag.Err != nil {
				l.renderer.Done(buf.String())
				return buf.String(), frag.Err
			}

			buf.WriteString(frag.Text)
			if time.Since(lastDraw) >= l.interval {
				l.renderer.Update(buf.String())
				lastDraw = time.Now()
			}
		}
	}
}
