// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render drives terminal output for streaming chat replies.
//
// A Loop consumes reply fragments from a channel and repaints a live
// region of the terminal as text arrives, throttled so fast streams do
// not overwhelm the terminal. Markdown is rendered with glamour; while
// a reply is still arriving, any trailing unclosed code fence is shown
// as plain text so the live region never flickers through half-parsed
// markup.
//
// Output goes through the Renderer interface. TermRenderer repaints in
// place on a TTY; PlainRenderer appends incrementally for pipes and
// redirected output.
package render
