// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/chatterm/internal/render"
	"github.com/jeranaias/chatterm/internal/session"
	"github.com/jeranaias/chatterm/internal/store"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrExit is returned by /exit to signal the REPL to stop.
	ErrExit = errors.New("exit requested")

	// ErrUnknownCommand matches any UnknownCommandError via errors.Is.
	ErrUnknownCommand = errors.New("unknown command")
)

// UnknownCommandError reports input that looked like a command but
// matched nothing in the registry.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %s (try /help)", e.Name)
}

func (e *UnknownCommandError) Is(target error) bool {
	return target == ErrUnknownCommand
}

// =============================================================================
// STREAMER
// =============================================================================

// Streamer produces a reply fragment stream for a message history. The
// channel closes when the reply completes; a transport failure arrives
// as a final fragment with Err set.
type Streamer interface {
	Stream(ctx context.Context, messages []session.Message) <-chan render.Fragment
}

// =============================================================================
// ROUTER
// =============================================================================

// Options configures a Router.
type Options struct {
	Store    *store.Store
	Streamer Streamer
	Out      io.Writer

	// SystemPrompt seeds sessions created implicitly by the first message.
	SystemPrompt string

	// Model is the model name shown by /info.
	Model string

	// NewRenderer builds the renderer for one streamed reply. Defaults to
	// render.NewRenderer over Out.
	NewRenderer func() render.Renderer
}

// Router dispatches user input to slash command handlers or to the
// active chat session. It owns the active session for the lifetime of
// the REPL and persists every completed turn.
type Router struct {
	registry *Registry
	parser   *Parser
	store    *store.Store
	streamer Streamer
	out      io.Writer

	newRenderer  func() render.Renderer
	systemPrompt string
	model        string

	active *session.Session
}

// NewRouter creates a router with the built-in command set.
func NewRouter(opts Options) *Router {
	registry := NewRegistry()
	rt := &Router{
		registry:     registry,
		parser:       NewParser(registry),
		store:        opts.Store,
		streamer:     opts.Streamer,
		out:          opts.Out,
		newRenderer:  opts.NewRenderer,
		systemPrompt: opts.SystemPrompt,
		model:        opts.Model,
	}
	if rt.newRenderer == nil {
		rt.newRenderer = func() render.Renderer { return render.NewRenderer(rt.out) }
	}
	return rt
}

// Active returns the active session, or nil when none exists yet.
func (rt *Router) Active() *session.Session {
	return rt.active
}

// SetActive makes a loaded session the active one. Used to resume a
// session at startup.
func (rt *Router) SetActive(sess *session.Session) {
	rt.active = sess
}

// SaveActive persists the active session if it has unsaved changes.
// Called before the active session is replaced or the REPL exits, so a
// turn whose mid-conversation save failed is not silently lost.
func (rt *Router) SaveActive() error {
	if rt.active == nil || !rt.active.IsDirty() {
		return nil
	}
	if err := rt.store.Save(rt.active); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Registry exposes the command registry for completion support.
func (rt *Router) Registry() *Registry {
	return rt.registry
}

// Dispatch routes one line of user input. Blank input is a no-op.
// Returns ErrExit when the user asked to quit.
func (rt *Router) Dispatch(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	if !IsCommand(input) {
		return rt.Chat(ctx, input)
	}

	result := rt.parser.Parse(input)
	if result.Command == nil {
		return &UnknownCommandError{Name: result.CommandName}
	}
	if err := ValidateArgs(result.Command, result.Args); err != nil {
		return err
	}

	return result.Command.Handler(ctx, rt, result.Args)
}

// Chat sends a message on the active session, creating one on first use.
// The user message is persisted before the request so it survives a
// crash mid-reply; the assistant reply is appended and persisted only
// when the stream completes. An interrupted reply is discarded.
func (rt *Router) Chat(ctx context.Context, input string) error {
	if rt.active == nil {
		sess, err := rt.store.Create(rt.systemPrompt)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		rt.active = sess
		fmt.Fprintf(rt.out, "Started session %s\n", store.ShortID(sess.ID))
	}

	rt.active.Append(session.NewUserMessage(input))
	if err := rt.store.Save(rt.active); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fragments := rt.streamer.Stream(ctx, rt.active.MessagesForAPI())
	loop := render.NewLoop(rt.newRenderer())

	reply, err := loop.Run(ctx, fragments)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(rt.out, interruptedStyle.Render("[interrupted]"))
			return nil
		}
		return err
	}

	rt.active.Append(session.NewAssistantMessage(reply))
	if err := rt.store.Save(rt.active); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
