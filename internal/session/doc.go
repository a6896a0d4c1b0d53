// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session defines the in-memory conversation state: an append-only
// message log with metadata and dirty tracking.
//
// # Key Types
//
//   - Session: a single conversation with ordered messages
//   - Message: one message with role, content, and timestamp
//
// Sessions serialize to one JSON document each; see the store package for
// persistence.
package session
