// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

// =============================================================================
// ERRORS
// =============================================================================

// ErrSessionNotFound is returned when a session ID (or prefix) matches no
// stored session. Use errors.Is(err, ErrSessionNotFound) to check.
var ErrSessionNotFound = &StoreError{Message: "session not found"}

// ErrAmbiguousSessionID is returned when an ID prefix matches more than one
// stored session.
var ErrAmbiguousSessionID = &StoreError{Message: "ambiguous session id"}

// StoreError represents a store-level error. It can be compared using
// errors.Is.
type StoreError struct {
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing store errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// CorruptSessionError indicates a session file exists but failed to parse.
// The file is surfaced as-is and never deleted automatically.
type CorruptSessionError struct {
	ID   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *CorruptSessionError) Error() string {
	return "corrupt session " + e.ID + ": " + e.Err.Error()
}

// Unwrap returns the underlying parse error.
func (e *CorruptSessionError) Unwrap() error {
	return e.Err
}
