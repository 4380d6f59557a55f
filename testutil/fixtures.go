package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// ItemTable keys of a workspace store.
const (
	ChatDataKey     = "workbench.panel.aichat.view.aichat.chatdata"
	ComposerDataKey = "composer.composerData"
)

// SampleChatData holds two chat tabs; tab1 is newer.
const SampleChatData = `{"tabs":[
	{"tabId":"tab1","chatTitle":"Fix the parser\nmore","lastSendTime":1700000000000,"bubbles":[
		{"type":"user","text":"Why does the parser fail?","selections":[{"text":"func parse() error"}]},
		{"type":"ai","text":"The tokenizer drops the last byte.","modelType":"gpt-4"}
	]},
	{"tabId":"tab2","chatTitle":"","lastSendTime":1600000000000,"bubbles":[
		{"type":"user","text":"hello world"}
	]}
]}`

// SampleComposerData lists one composer.
const SampleComposerData = `{"allComposers":[{"composerId":"chat1","name":"Listed Name","lastUpdatedAt":1650000000000}]}`

// CreateSQLiteFixture creates a file store at dbPath holding records.
func CreateSQLiteFixture(t *testing.T, dbPath string, records []Record) {
	t.Helper()
	db := openFileDB(t, dbPath)
	defer func() { _ = db.Close() }()
	InsertRecords(t, db, records)
}

// CreateGlobalDB creates globalStorage/state.vscdb under base with the sample
// records and returns its path.
func CreateGlobalDB(t *testing.T, base string) string {
	t.Helper()
	dbPath := filepath.Join(base, "globalStorage", "state.vscdb")
	CreateSQLiteFixture(t, dbPath, SampleRecords())
	return dbPath
}

// CreateWorkspaceFixture creates workspaceStorage/<hash> under base with a
// workspace.json for folder and a store holding the given ItemTable values.
// Empty values are not written. It returns the workspace directory.
func CreateWorkspaceFixture(t *testing.T, basePath, workspaceHash, folder, chatData, composerData string) string {
	t.Helper()
	workspaceDir := filepath.Join(basePath, "workspaceStorage", workspaceHash)
	if err := os.MkdirAll(workspaceDir, 0755); err != nil {
		t.Fatalf("Failed to create workspace directory: %v", err)
	}

	if folder != "" {
		data := JSONMarshal(t, map[string]string{"folder": folder})
		if err := os.WriteFile(filepath.Join(workspaceDir, "workspace.json"), data, 0644); err != nil {
			t.Fatalf("Failed to write workspace.json: %v", err)
		}
	}

	db := openFileDB(t, filepath.Join(workspaceDir, "state.vscdb"))
	defer func() { _ = db.Close() }()
	if chatData != "" {
		InsertItem(t, db, ChatDataKey, chatData)
	}
	if composerData != "" {
		InsertItem(t, db, ComposerDataKey, composerData)
	}
	return workspaceDir
}

// CreateMockCursorDir creates a Cursor User directory with one populated
// workspace, one empty workspace, a stray directory without a store, and the
// global store. It returns the base path.
func CreateMockCursorDir(t *testing.T) string {
	t.Helper()
	base := CreateTempDir(t)

	CreateWorkspaceFixture(t, base, "workspace-hash-123", "file:///path/to/project", SampleChatData, SampleComposerData)
	CreateWorkspaceFixture(t, base, "workspace-empty", "", "", "")
	if err := os.MkdirAll(filepath.Join(base, "workspaceStorage", "no-store"), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	CreateGlobalDB(t, base)
	return base
}

func openFileDB(t *testing.T, dbPath string) *sql.DB {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create tables: %v", err)
	}
	return db
}
