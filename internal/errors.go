package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable is returned when a backing state.vscdb cannot be opened.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrRecordParse marks a record whose JSON value could not be decoded.
	ErrRecordParse = errors.New("record parse failure")

	// ErrMalformedKey marks a record whose key does not have the
	// <prefix>:<conversationId>:<recordId> shape.
	ErrMalformedKey = errors.New("malformed record key")

	// ErrNoActiveConversation is returned when no conversation in the recent
	// window scores above zero. It is an empty result, not a failure.
	ErrNoActiveConversation = errors.New("no active conversation found")

	ErrWorkspaceNotFound    = errors.New("workspace not found")
	ErrConversationNotFound = errors.New("conversation not found")
)

// StorageError represents errors accessing storage files
type StorageError struct {
	Path string
	Op   string // "open", "query", "scan"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors parsing a single record
type ParseError struct {
	Source string // "globalStorage", "workspaceStorage"
	Key    string // storage key or file path
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WorkspaceError represents errors reading a workspace directory
type WorkspaceError struct {
	WorkspaceID string
	Err         error
}

func (e *WorkspaceError) Error() string {
	return fmt.Sprintf("workspace error [%s]: %v", e.WorkspaceID, e.Err)
}

func (e *WorkspaceError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// ParseStats counts per-record failures absorbed while processing a batch.
type ParseStats struct {
	Parsed        int `json:"parsed"`
	ParseFailures int `json:"parseFailures"`
	MalformedKeys int `json:"malformedKeys"`
}

// Record classifies err and bumps the matching counter.
func (s *ParseStats) Record(err error) {
	switch {
	case err == nil:
		s.Parsed++
	case errors.Is(err, ErrMalformedKey):
		s.MalformedKeys++
	default:
		s.ParseFailures++
	}
}

// Skipped returns the number of records dropped.
func (s ParseStats) Skipped() int {
	return s.ParseFailures + s.MalformedKeys
}
