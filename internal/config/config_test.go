// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable the loader reads so tests are hermetic.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"CHATTERM_BASE_URL", "OPENAI_BASE_URL",
		"CHATTERM_API_KEY", "OPENAI_API_KEY",
		"CHATTERM_MODEL", "CHATTERM_SYSTEM_PROMPT", "CHATTERM_SESSIONS_DIR",
	} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[api]
base_url = "https://api.example.com/v1"
key = "sk-test"
model = "gpt-4o"

[chat]
system_prompt = "You are terse."
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v1", cfg.API.BaseURL)
	assert.Equal(t, "sk-test", cfg.API.Key)
	assert.Equal(t, "gpt-4o", cfg.API.Model)
	assert.Equal(t, "You are terse.", cfg.Chat.SystemPrompt)
}

func TestLoadDefaultsModel(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[api]
base_url = "https://api.example.com/v1"
key = "sk-test"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, cfg.API.Model)
}

func TestLoadFromEnvironmentOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_BASE_URL", "https://api.example.com/v1")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	// Config file absent.
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.API.Key)
	assert.Equal(t, DefaultModel, cfg.API.Model)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[api]
base_url = "https://file.example.com/v1"
key = "sk-file"
model = "file-model"
`)
	t.Setenv("CHATTERM_BASE_URL", "https://env.example.com/v1")
	t.Setenv("CHATTERM_MODEL", "env-model")

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/v1", cfg.API.BaseURL)
	assert.Equal(t, "env-model", cfg.API.Model)
	// Untouched fields keep their file values.
	assert.Equal(t, "sk-file", cfg.API.Key)
}

func TestChattermEnvWinsOverOpenAI(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_BASE_URL", "https://openai.example.com/v1")
	t.Setenv("CHATTERM_BASE_URL", "https://chatterm.example.com/v1")
	t.Setenv("OPENAI_API_KEY", "sk-x")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, "https://chatterm.example.com/v1", cfg.API.BaseURL)
}

func TestValidateMissingBaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-x")

	_, err := LoadFromPath(filepath.Join(t.TempDir(), "config.toml"))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "api.base_url", validationErr.Field)
}

func TestValidateMissingKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_BASE_URL", "https://api.example.com/v1")

	_, err := LoadFromPath(filepath.Join(t.TempDir(), "config.toml"))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "api.key", validationErr.Field)
}

func TestValidateBadURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_BASE_URL", "not a url")
	t.Setenv("OPENAI_API_KEY", "sk-x")

	_, err := LoadFromPath(filepath.Join(t.TempDir(), "config.toml"))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "api.base_url", validationErr.Field)
}

func TestBaseURLTrailingSlashTrimmed(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_BASE_URL", "https://api.example.com/v1/")
	t.Setenv("OPENAI_API_KEY", "sk-x")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v1", cfg.API.BaseURL)
}

func TestMalformedTOML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[api\nbroken")

	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestInsecurePermissionsFixed(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[api]
base_url = "https://api.example.com/v1"
key = "sk-test"
`)
	require.NoError(t, os.Chmod(path, 0o644))

	_, err := LoadFromPath(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
