// chatterm - a terminal chat client for OpenAI-compatible APIs.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jeranaias/chatterm/internal/chat"
	"github.com/jeranaias/chatterm/internal/commands"
	"github.com/jeranaias/chatterm/internal/config"
	"github.com/jeranaias/chatterm/internal/llm"
	"github.com/jeranaias/chatterm/internal/store"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		modelFlag   = flag.String("model", "", "model name (overrides config)")
		sessionFlag = flag.String("session", "", "resume a session by ID or unique prefix")
		systemFlag  = flag.String("system", "", "system prompt for new sessions (overrides config)")
		sessionsDir = flag.String("sessions-dir", "", "directory for session files (overrides config)")
		versionFlag = flag.Bool("version", false, "print version and exit")
		listFlag    = flag.Bool("list", false, "list saved sessions and exit")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("chatterm %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*modelFlag, *sessionFlag, *systemFlag, *sessionsDir, *listFlag); err != nil {
		fmt.Fprintf(os.Stderr, "chatterm: %v\n", err)
		os.Exit(1)
	}
}

func run(model, sessionID, systemPrompt, sessionsDir string, list bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if model != "" {
		cfg.API.Model = model
	}
	if systemPrompt != "" {
		cfg.Chat.SystemPrompt = systemPrompt
	}
	if sessionsDir != "" {
		cfg.SessionsDir = sessionsDir
	}

	var st *store.Store
	if cfg.SessionsDir != "" {
		st, err = store.NewWithDir(cfg.SessionsDir)
	} else {
		st, err = store.New()
	}
	if err != nil {
		return err
	}

	if list {
		summaries, err := st.List()
		if err != nil {
			return err
		}
		fmt.Print(store.FormatList(summaries, ""))
		return nil
	}

	client := llm.NewClient(cfg.API.BaseURL, cfg.API.Key, cfg.API.Model)
	router := commands.NewRouter(commands.Options{
		Store:        st,
		Streamer:     chat.NewLLMStreamer(client),
		Out:          os.Stdout,
		SystemPrompt: cfg.Chat.SystemPrompt,
		Model:        cfg.API.Model,
	})

	if sessionID != "" {
		id, err := st.Resolve(sessionID)
		if err != nil {
			return err
		}
		sess, err := st.Load(id)
		if err != nil {
			return err
		}
		router.SetActive(sess)
	}

	return chat.New(cfg, router).Run()
}
