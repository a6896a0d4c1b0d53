// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatterm/internal/store"
	"github.com/jeranaias/chatterm/internal/util"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	headingStyle = lipgloss.NewStyle().Bold(true)

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	interruptedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Italic(true)
)

// =============================================================================
// HANDLERS
// =============================================================================

func handleHelp(_ context.Context, rt *Router, _ []string) error {
	fmt.Fprintln(rt.out, headingStyle.Render("Commands"))
	for _, cmd := range rt.registry.All() {
		if cmd.Hidden {
			continue
		}
		name := cmd.Name
		if cmd.Usage != "" {
			name = cmd.Usage
		}
		line := fmt.Sprintf("  %s  %s", commandStyle.Render(util.PadRight(name, 28)), cmd.Description)
		if len(cmd.Aliases) > 0 {
			line += mutedStyle.Render(" (" + strings.Join(cmd.Aliases, ", ") + ")")
		}
		fmt.Fprintln(rt.out, line)
	}
	fmt.Fprintln(rt.out, mutedStyle.Render("Anything else is sent to the model. Ctrl+C interrupts a reply."))
	return nil
}

func handleNew(_ context.Context, rt *Router, args []string) error {
	systemPrompt := rt.systemPrompt
	if len(args) > 0 {
		systemPrompt = strings.Join(args, " ")
	}

	sess, err := rt.store.Create(systemPrompt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	rt.active = sess
	fmt.Fprintf(rt.out, "Started session %s\n", store.ShortID(sess.ID))
	return nil
}

func handleList(_ context.Context, rt *Router, _ []string) error {
	summaries, err := rt.store.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	activeID := ""
	if rt.active != nil {
		activeID = rt.active.ID
	}
	fmt.Fprint(rt.out, store.FormatList(summaries, activeID))
	return nil
}

func handleSearch(_ context.Context, rt *Router, args []string) error {
	query := strings.Join(args, " ")
	summaries, err := rt.store.Search(query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	activeID := ""
	if rt.active != nil {
		activeID = rt.active.ID
	}
	fmt.Fprint(rt.out, store.FormatList(summaries, activeID))
	return nil
}

func handleSwitch(_ context.Context, rt *Router, args []string) error {
	if err := rt.SaveActive(); err != nil {
		return err
	}

	id, err := rt.store.Resolve(args[0])
	if err != nil {
		return err
	}

	sess, err := rt.store.Load(id)
	if err != nil {
		return err
	}

	rt.active = sess
	fmt.Fprintf(rt.out, "Switched to session %s (%d messages)\n",
		store.ShortID(sess.ID), sess.MessageCount())
	return nil
}

func handleDelete(_ context.Context, rt *Router, args []string) error {
	id, err := rt.store.Resolve(args[0])
	if err != nil {
		return err
	}

	if err := rt.store.Delete(id); err != nil {
		return err
	}

	if rt.active != nil && rt.active.ID == id {
		// The next message starts a fresh session.
		rt.active = nil
	}
	fmt.Fprintf(rt.out, "Deleted session %s\n", store.ShortID(id))
	return nil
}

func handleExport(_ context.Context, rt *Router, args []string) error {
	id, err := rt.store.Resolve(args[0])
	if err != nil {
		return err
	}

	sess, err := rt.store.Load(id)
	if err != nil {
		return err
	}

	path := args[1]
	var data []byte
	if strings.HasSuffix(path, ".json") {
		data, err = sess.ExportJSON()
		if err != nil {
			return fmt.Errorf("failed to export session: %w", err)
		}
	} else {
		data = []byte(sess.ExportMarkdown())
	}

	if err := util.AtomicWriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(rt.out, "Exported session %s to %s\n", store.ShortID(id), path)
	return nil
}

func handleInfo(_ context.Context, rt *Router, _ []string) error {
	if rt.active == nil {
		fmt.Fprintln(rt.out, "No active session. Send a message or use /new to start one.")
		return nil
	}

	sess := rt.active
	fmt.Fprintln(rt.out, headingStyle.Render("Session ")+commandStyle.Render(sess.ID))
	fmt.Fprintf(rt.out, "  Created:  %s\n", sess.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(rt.out, "  Messages: %d\n", sess.MessageCount())
	fmt.Fprintf(rt.out, "  Model:    %s\n", rt.model)
	if sess.SystemPrompt != "" {
		fmt.Fprintf(rt.out, "  System:   %s\n", util.TruncateRunes(sess.SystemPrompt, 60))
	}
	return nil
}

func handleExit(_ context.Context, rt *Router, _ []string) error {
	if err := rt.SaveActive(); err != nil {
		return err
	}
	return ErrExit
}
