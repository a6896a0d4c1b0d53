// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/chatterm/internal/config"
)

// =============================================================================
// INPUT HANDLING
// =============================================================================

// Input provides line editing and input history for the REPL.
type Input struct {
	line        *liner.State
	historyFile string
}

// NewInput creates an Input with history loaded from the config
// directory.
func NewInput() *Input {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	in := &Input{
		line:        line,
		historyFile: filepath.Join(configDir, "history"),
	}
	in.loadHistory()
	return in
}

func (in *Input) loadHistory() {
	if f, err := os.Open(in.historyFile); err == nil {
		in.line.ReadHistory(f)
		f.Close()
	}
}

// Read reads a line of input with the given prompt. Non-blank input is
// added to history.
func (in *Input) Read(prompt string) (string, error) {
	input, err := in.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		in.line.AppendHistory(input)
	}
	return input, nil
}

// SetCompleter installs a completion function for slash commands.
func (in *Input) SetCompleter(complete func(line string) []string) {
	in.line.SetCompleter(complete)
}

func (in *Input) saveHistory() {
	if err := os.MkdirAll(filepath.Dir(in.historyFile), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(in.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	in.line.WriteHistory(f)
}

// Close persists history and restores the terminal.
func (in *Input) Close() {
	in.saveHistory()
	in.line.Close()
}
