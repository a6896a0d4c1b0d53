// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists chat sessions to disk, one JSON file per session.
//
// # Key Types
//
//   - Store: filesystem-backed session storage
//   - Summary: lightweight metadata for listing
//
// # Usage
//
// Create a store and a session:
//
//	st, err := store.New()
//	sess, err := st.Create("system prompt")
//
// Load and save:
//
//	sess, err := st.Load(id)
//	err = st.Save(sess)
//
// All writes are atomic: a crash mid-save never corrupts a previously valid
// session file.
//
// # Storage Location
//
// Sessions are stored in ~/.chatterm/sessions/ as <id>.json files.
package store
