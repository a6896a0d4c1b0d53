// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for chatterm.
//
// Configuration comes from ~/.chatterm/config.toml with environment
// variable overrides applied on top, and validation last. The API base
// URL and key are required; everything else has a default.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chatterm configuration.
type Config struct {
	// API contains the OpenAI-compatible endpoint settings.
	API APIConfig `toml:"api"`

	// Chat contains conversation behavior settings.
	Chat ChatConfig `toml:"chat"`

	// SessionsDir overrides where session files are stored.
	// Empty means ~/.chatterm/sessions.
	SessionsDir string `toml:"sessions_dir"`
}

// APIConfig contains the model endpoint configuration.
type APIConfig struct {
	// BaseURL is the OpenAI-compatible API root (e.g. "https://api.openai.com/v1").
	BaseURL string `toml:"base_url"`
	// Key is the API key sent as a bearer token.
	Key string `toml:"key"`
	// Model is the model name requested for completions.
	Model string `toml:"model"`
}

// ChatConfig contains conversation behavior configuration.
type ChatConfig struct {
	// SystemPrompt seeds every new session unless /new overrides it.
	SystemPrompt string `toml:"system_prompt"`
}

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Model: DefaultModel,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the chatterm configuration directory (~/.chatterm).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatterm"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ensureSecurePermissions tightens config file permissions to protect
// the API key.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().Perm() != 0o600 {
		if err := os.Chmod(path, 0o600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions: %w", err)
		}
	}
	return nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads the config file, applies environment overrides,
// and validates. A missing config file is not an error; the environment
// alone can carry a complete configuration.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from the given TOML file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if err := ensureSecurePermissions(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
		}
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported variables:
//   - CHATTERM_BASE_URL / OPENAI_BASE_URL: overrides api.base_url
//   - CHATTERM_API_KEY / OPENAI_API_KEY: overrides api.key
//   - CHATTERM_MODEL: overrides api.model
//   - CHATTERM_SYSTEM_PROMPT: overrides chat.system_prompt
//   - CHATTERM_SESSIONS_DIR: overrides sessions_dir
func (c *Config) ApplyEnvOverrides() {
	if baseURL := firstEnv("CHATTERM_BASE_URL", "OPENAI_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if key := firstEnv("CHATTERM_API_KEY", "OPENAI_API_KEY"); key != "" {
		c.API.Key = key
	}
	if model := os.Getenv("CHATTERM_MODEL"); model != "" {
		c.API.Model = model
	}
	if prompt := os.Getenv("CHATTERM_SYSTEM_PROMPT"); prompt != "" {
		c.Chat.SystemPrompt = prompt
	}
	if dir := os.Getenv("CHATTERM_SESSIONS_DIR"); dir != "" {
		c.SessionsDir = dir
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// SetDefaults fills in defaults for fields left empty by file and
// environment.
func (c *Config) SetDefaults() {
	if c.API.Model == "" {
		c.API.Model = DefaultModel
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError reports a configuration field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Validate checks that the configuration is usable. The base URL and
// API key are fatal when missing; the caller should exit with the
// returned message.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return &ValidationError{
			Field:   "api.base_url",
			Message: "required (set in config.toml or via OPENAI_BASE_URL)",
		}
	}
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return &ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("invalid URL %q", c.API.BaseURL),
		}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("unsupported scheme %q", parsed.Scheme),
		}
	}

	if c.API.Key == "" {
		return &ValidationError{
			Field:   "api.key",
			Message: "required (set in config.toml or via OPENAI_API_KEY)",
		}
	}

	return nil
}
