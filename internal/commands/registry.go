// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"sort"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help output
	Description string

	// Usage shows argument syntax (e.g., "/switch <session_id>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Handler executes the command against the router's state
	Handler func(ctx context.Context, rt *Router, args []string) error

	// Hidden commands don't appear in help
	Hidden bool
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	Name        string
	Required    bool
	Description string
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show available commands",
		Handler:     handleHelp,
	})

	r.Register(&Command{
		Name:        "/new",
		Aliases:     []string{"/n"},
		Description: "Start a new session",
		Usage:       "/new [system prompt]",
		Args: []ArgDef{
			{Name: "system_prompt", Description: "Optional system prompt for the session"},
		},
		Handler: handleNew,
	})

	r.Register(&Command{
		Name:        "/list",
		Aliases:     []string{"/ls", "/l"},
		Description: "List saved sessions, newest first",
		Handler:     handleList,
	})

	r.Register(&Command{
		Name:        "/switch",
		Aliases:     []string{"/sw", "/load"},
		Description: "Switch to a saved session",
		Usage:       "/switch <session_id>",
		Args: []ArgDef{
			{Name: "session_id", Required: true, Description: "Session ID or unique prefix"},
		},
		Handler: handleSwitch,
	})

	r.Register(&Command{
		Name:        "/delete",
		Aliases:     []string{"/rm", "/del"},
		Description: "Delete a saved session",
		Usage:       "/delete <session_id>",
		Args: []ArgDef{
			{Name: "session_id", Required: true, Description: "Session ID or unique prefix"},
		},
		Handler: handleDelete,
	})

	r.Register(&Command{
		Name:        "/search",
		Description: "Search sessions by content",
		Usage:       "/search <query>",
		Args: []ArgDef{
			{Name: "query", Required: true, Description: "Text to look for in previews and messages"},
		},
		Handler: handleSearch,
	})

	r.Register(&Command{
		Name:        "/export",
		Description: "Export a session to a file",
		Usage:       "/export <session_id> <path>",
		Args: []ArgDef{
			{Name: "session_id", Required: true, Description: "Session ID or unique prefix"},
			{Name: "path", Required: true, Description: "Output file (.md or .json)"},
		},
		Handler: handleExport,
	})

	r.Register(&Command{
		Name:        "/info",
		Aliases:     []string{"/i"},
		Description: "Show details of the active session",
		Handler:     handleInfo,
	})

	r.Register(&Command{
		Name:        "/exit",
		Aliases:     []string{"/quit", "/q"},
		Description: "Exit the chat",
		Handler:     handleExit,
	})
}
