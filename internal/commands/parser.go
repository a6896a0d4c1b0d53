// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
	"unicode"
)

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult is one parsed input line. Command is nil when the name
// matched nothing in the registry.
type ParseResult struct {
	IsCommand   bool
	Command     *Command
	CommandName string
	Args        []string

	RawInput string
	RawArgs  string
}

// =============================================================================
// PARSER
// =============================================================================

// Parser handles parsing of slash commands and their arguments.
type Parser struct {
	registry *Registry
}

// NewParser creates a new parser with the given registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse parses user input and returns the parse result.
// Returns IsCommand=false if the input doesn't start with /
func (p *Parser) Parse(input string) ParseResult {
	input = strings.TrimSpace(input)

	result := ParseResult{
		RawInput: input,
	}

	if !strings.HasPrefix(input, "/") {
		return result
	}

	result.IsCommand = true

	parts := splitCommandLine(input)
	if len(parts) == 0 {
		return result
	}

	result.CommandName = parts[0]
	if len(parts) > 1 {
		result.Args = parts[1:]
		afterCmd := input[len(result.CommandName):]
		result.RawArgs = strings.TrimSpace(afterCmd)
	}

	result.Command = p.registry.Get(result.CommandName)

	return result
}

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

// splitCommandLine tokenizes an input line. Single and double quotes
// group words containing spaces; inside quotes a backslash escapes a
// quote or another backslash. Iterates runes so multi-byte arguments
// pass through intact.
func splitCommandLine(input string) []string {
	var tokens []string
	var current strings.Builder
	var inSingle, inDouble bool

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle

		case r == '"' && !inSingle:
			inDouble = !inDouble

		case r == '\\' && i+1 < len(runes) && (inSingle || inDouble):
			next := runes[i+1]
			if next == '"' || next == '\'' || next == '\\' {
				current.WriteRune(next)
				i++
			} else {
				current.WriteRune(r)
			}

		case unicode.IsSpace(r) && !inSingle && !inDouble:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}

		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// IsCommand returns true if the input appears to be a command.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// ValidateArgs validates arguments against a command's argument definitions.
func ValidateArgs(cmd *Command, args []string) error {
	if cmd == nil {
		return nil
	}

	for i, argDef := range cmd.Args {
		if argDef.Required && i >= len(args) {
			return &ValidationError{
				Command: cmd.Name,
				Arg:     argDef.Name,
				Message: "required argument missing",
				Usage:   cmd.Usage,
			}
		}
	}

	return nil
}

// =============================================================================
// VALIDATION ERROR
// =============================================================================

// ValidationError represents an argument validation error.
type ValidationError struct {
	Command string
	Arg     string
	Message string
	Usage   string
}

func (e *ValidationError) Error() string {
	msg := e.Command + ": " + e.Message
	if e.Arg != "" {
		msg += " for argument '" + e.Arg + "'"
	}
	if e.Usage != "" {
		msg += " - usage: " + e.Usage
	}
	return msg
}
