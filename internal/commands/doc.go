// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the chat REPL.
//
// Input starting with / is parsed against a registry of commands with
// aliases and argument validation. Anything else is a chat message and
// is routed to the active session, streamed to the model, and rendered
// live. The Router owns the active session and persists every turn.
package commands
