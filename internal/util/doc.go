// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for chatterm: atomic file
// writes, rune- and width-aware string handling, and terminal detection.
package util
