// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/chatterm/internal/session"
	"github.com/jeranaias/chatterm/internal/util"
)

// =============================================================================
// SUMMARY
// =============================================================================

// Summary contains metadata for listing sessions without keeping the full
// message bodies around.
type Summary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"`
}

// =============================================================================
// STORE
// =============================================================================

// Store persists sessions as one JSON file per session under BaseDir. It is
// the single source of truth for which session IDs exist. It is designed for
// a single interactive process; concurrent writers to the same id are not
// supported beyond the atomicity of individual file replaces.
type Store struct {
	// BaseDir is the directory holding session files.
	// Default: ~/.chatterm/sessions/
	BaseDir string
}

// New creates a store rooted at the default sessions directory.
func New() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewWithDir(filepath.Join(homeDir, ".chatterm", "sessions"))
}

// NewWithDir creates a store rooted at a custom directory, creating it if
// absent.
func NewWithDir(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return &Store{BaseDir: baseDir}, nil
}

// =============================================================================
// CREATE / SAVE
// =============================================================================

// Create makes a new empty session with the given system prompt, writes its
// file immediately, and returns it.
func (s *Store) Create(systemPrompt string) (*session.Session, error) {
	sess := session.New(systemPrompt)
	if err := s.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Save serializes the full session and writes it atomically: the data goes
// to a temp file in the same directory which is then renamed over the
// target, so a crash mid-write leaves the previous file intact.
func (s *Store) Save(sess *session.Session) error {
	data, err := sess.Marshal()
	if err != nil {
		return err
	}

	if err := util.AtomicWriteFile(s.filePath(sess.ID), data, 0o644); err != nil {
		return err
	}

	sess.MarkClean()
	return nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads and deserializes a session by exact ID. Returns
// ErrSessionNotFound if no file exists, or a CorruptSessionError if the file
// exists but fails to parse.
func (s *Store) Load(id string) (*session.Session, error) {
	path := s.filePath(id)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	sess, err := session.Unmarshal(data)
	if err != nil {
		return nil, &CorruptSessionError{ID: id, Path: path, Err: err}
	}
	if sess.ID != id {
		// The file name is authoritative; a mismatched body is corruption.
		return nil, &CorruptSessionError{ID: id, Path: path, Err: errIDMismatch}
	}

	sess.MarkClean()
	return sess, nil
}

var errIDMismatch = &StoreError{Message: "session id does not match file name"}

// =============================================================================
// LIST
// =============================================================================

// List enumerates stored sessions, newest first by creation time. Corrupt
// files are skipped here; they surface when loaded directly.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Summary{}, nil
		}
		return nil, err
	}

	summaries := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		sess, err := s.Load(id)
		if err != nil {
			continue
		}

		summaries = append(summaries, Summary{
			ID:           sess.ID,
			CreatedAt:    sess.CreatedAt,
			MessageCount: sess.MessageCount(),
			Preview:      sess.Preview(),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})

	return summaries, nil
}

// Search returns summaries of sessions whose preview or message content
// contains the query, case-insensitive.
func (s *Store) Search(query string) ([]Summary, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	if query == "" {
		return all, nil
	}

	query = strings.ToLower(query)
	var results []Summary

	for _, sum := range all {
		if strings.Contains(strings.ToLower(sum.Preview), query) {
			results = append(results, sum)
			continue
		}

		sess, err := s.Load(sum.ID)
		if err != nil {
			continue
		}
		for _, msg := range sess.Messages {
			if strings.Contains(strings.ToLower(msg.Content), query) {
				results = append(results, sum)
				break
			}
		}
	}

	return results, nil
}

// =============================================================================
// DELETE
// =============================================================================

// Delete removes a session file by exact ID. Deleting an unknown id fails
// with ErrSessionNotFound so callers can report it.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

// =============================================================================
// PREFIX RESOLUTION
// =============================================================================

// Resolve expands an ID prefix to the full session ID. An exact match always
// wins. Otherwise the first unambiguous prefix match is returned; zero
// matches fail with ErrSessionNotFound and two or more with
// ErrAmbiguousSessionID.
func (s *Store) Resolve(prefix string) (string, error) {
	if prefix == "" {
		return "", ErrSessionNotFound
	}

	summaries, err := s.List()
	if err != nil {
		return "", err
	}

	var matches []string
	for _, sum := range summaries {
		if sum.ID == prefix {
			return sum.ID, nil
		}
		if strings.HasPrefix(sum.ID, prefix) {
			matches = append(matches, sum.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", ErrSessionNotFound
	case 1:
		return matches[0], nil
	default:
		return "", ErrAmbiguousSessionID
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// filePath returns the file path for a session ID.
func (s *Store) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}
