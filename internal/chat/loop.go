// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/chatterm/internal/commands"
	"github.com/jeranaias/chatterm/internal/config"
	"github.com/jeranaias/chatterm/internal/store"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

// =============================================================================
// REPL LOOP
// =============================================================================

// Loop is the interactive REPL. It owns the liner input, the signal
// handler that cancels in-flight replies, and the dispatch cycle.
type Loop struct {
	cfg    *config.Config
	router *commands.Router
	input  *Input

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

// New creates a REPL loop over the given router.
func New(cfg *config.Config, router *commands.Router) *Loop {
	l := &Loop{
		cfg:    cfg,
		router: router,
		input:  NewInput(),
	}
	l.input.SetCompleter(l.complete)
	return l
}

// Run reads and dispatches input until the user exits. Ctrl+C cancels
// the reply in flight, or exits when idle at the prompt. Ctrl+D exits.
func (l *Loop) Run() error {
	defer l.input.Close()

	l.printWelcome()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		for range sigChan {
			l.cancelCurrent()
		}
	}()

	for {
		input, err := l.input.Read(promptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C at the prompt or Ctrl+D both end the session.
			if err == liner.ErrPromptAborted {
				fmt.Println()
			}
			l.shutdown()
			return nil
		}

		if err := l.dispatch(input); err != nil {
			if errors.Is(err, commands.ErrExit) {
				// /exit already persisted the active session.
				l.printGoodbye()
				return nil
			}
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
	}
}

// dispatch runs one line with a cancellable context so the signal
// handler can interrupt a streaming reply.
func (l *Loop) dispatch(input string) error {
	ctx, cancel := context.WithCancel(context.Background())
	l.setCancel(cancel)
	defer func() {
		l.setCancel(nil)
		cancel()
	}()

	return l.router.Dispatch(ctx, input)
}

func (l *Loop) setCancel(cancel context.CancelFunc) {
	l.cancelMu.Lock()
	l.cancel = cancel
	l.cancelMu.Unlock()
}

func (l *Loop) cancelCurrent() {
	l.cancelMu.Lock()
	defer l.cancelMu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// complete offers slash command completion at the start of a line.
func (l *Loop) complete(line string) []string {
	if !strings.HasPrefix(line, "/") || strings.Contains(line, " ") {
		return nil
	}
	var matches []string
	for _, cmd := range l.router.Registry().All() {
		if strings.HasPrefix(cmd.Name, line) {
			matches = append(matches, cmd.Name)
		}
	}
	return matches
}

func (l *Loop) printWelcome() {
	fmt.Println(bannerStyle.Render("chatterm") + dimStyle.Render(" - "+l.cfg.API.Model))
	if active := l.router.Active(); active != nil {
		fmt.Printf("Resumed session %s (%d messages)\n",
			store.ShortID(active.ID), active.MessageCount())
	}
	fmt.Println(dimStyle.Render("Type /help for commands, Ctrl+D to exit."))
	fmt.Println()
}

// shutdown persists unsaved session state before the goodbye message.
// Exit on EOF cannot be blocked, so a failed save is reported and the
// loop still terminates.
func (l *Loop) shutdown() {
	if err := l.router.SaveActive(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
	}
	l.printGoodbye()
}

func (l *Loop) printGoodbye() {
	if active := l.router.Active(); active != nil && active.MessageCount() > 0 && !active.IsDirty() {
		fmt.Printf("Session %s saved (%d messages).\n",
			store.ShortID(active.ID), active.MessageCount())
	}
	fmt.Println(dimStyle.Render("Goodbye."))
}
