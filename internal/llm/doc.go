// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm implements the streaming chat client for OpenAI-compatible
// endpoints.
//
// The client sends the full message history to /chat/completions with
// stream=true and parses the Server-Sent Events response into an ordered
// sequence of text fragments. Concatenating the fragments reproduces the
// assistant reply verbatim. Cancellation is driven by the caller's context
// and observed between fragments.
//
// Transport failures surface as typed errors; the client never retries on
// its own.
package llm
