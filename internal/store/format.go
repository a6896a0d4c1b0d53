// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"strconv"
	"strings"

	"github.com/jeranaias/chatterm/internal/util"
)

// =============================================================================
// LIST FORMATTING
// =============================================================================

// FormatList renders session summaries as a table for display. The active
// session, when present in the list, is marked with an arrow.
func FormatList(summaries []Summary, activeID string) string {
	if len(summaries) == 0 {
		return "No sessions found.\n"
	}

	var sb strings.Builder
	sb.WriteString("Sessions:\n")
	sb.WriteString(strings.Repeat("-", 62) + "\n")
	sb.WriteString("  " + util.PadRight("ID", 10) + " " +
		util.PadRight("Created", 18) + " " +
		util.PadRight("Messages", 8) + " Preview\n")
	sb.WriteString(strings.Repeat("-", 62) + "\n")

	for _, sum := range summaries {
		marker := "  "
		if activeID != "" && sum.ID == activeID {
			marker = "* "
		}

		sb.WriteString(marker +
			util.PadRight(ShortID(sum.ID), 10) + " " +
			util.PadRight(sum.CreatedAt.Local().Format("2006-01-02 15:04"), 18) + " " +
			util.PadRight(strconv.Itoa(sum.MessageCount), 8) + " " +
			util.TruncateWidth(sum.Preview, 30) + "\n")
	}

	return sb.String()
}

// ShortID returns the first 8 characters of a session ID for display.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
