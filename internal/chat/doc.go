// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs the interactive REPL.
//
// Input goes through liner for readline-style editing and persistent
// history. Each line is dispatched through the command router; Ctrl+C
// cancels an in-flight reply without leaving the REPL, Ctrl+D exits.
package chat
