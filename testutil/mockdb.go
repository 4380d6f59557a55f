package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS cursorDiskKV (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	CREATE TABLE IF NOT EXISTS ItemTable (
		key TEXT PRIMARY KEY,
		value TEXT
	)`

// Record is a key/value pair inserted into cursorDiskKV in order, so the
// slice index decides the rowid.
type Record struct {
	Key   string
	Value string
}

// CreateInMemoryDB creates an in-memory SQLite database for testing. The pool
// is pinned to one connection so every query sees the same database.
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create tables: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateTestDB creates a test database with two conversations, two composers
// and one message context.
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)
	InsertRecords(t, db, SampleRecords())
	return db
}

// SampleRecords returns the records CreateTestDB inserts.
func SampleRecords() []Record {
	return []Record{
		{Key: "composerData:chat1", Value: `{"composerId":"chat1","name":"Test Conversation","createdAt":1000,"lastUpdatedAt":2000,"fullConversationHeadersOnly":[{"bubbleId":"b1","type":1},{"bubbleId":"b2","type":2}]}`},
		{Key: "bubbleId:chat1:b1", Value: `{"bubbleId":"b1","type":1,"text":"Hello\nsecond line"}`},
		{Key: "bubbleId:chat1:b2", Value: `{"bubbleId":"b2","type":2,"text":"Hi there","codeBlocks":[{"language":"go","content":"package main"}]}`},
		{Key: "bubbleId:chat2:b3", Value: `{"bubbleId":"b3","type":1,"text":"How are you?"}`},
		{Key: "composerData:chat2", Value: `{"composerId":"chat2","name":"Another Conversation","createdAt":3000,"lastUpdatedAt":4000}`},
		{Key: "messageRequestContext:chat1:ctx1", Value: `{"bubbleId":"b1","composerId":"chat1","contextId":"ctx1","projectLayouts":["/path/to/project"]}`},
		{Key: "codeBlockDiff:chat1:d1", Value: `{"diff":"+a"}`},
	}
}

// InsertRecord inserts a cursorDiskKV row.
func InsertRecord(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	if _, err := db.Exec("INSERT INTO cursorDiskKV (key, value) VALUES (?, ?)", key, value); err != nil {
		t.Fatalf("Failed to insert record %s: %v", key, err)
	}
}

// InsertRecords inserts rows in slice order.
func InsertRecords(t *testing.T, db *sql.DB, records []Record) {
	t.Helper()
	for _, r := range records {
		InsertRecord(t, db, r.Key, r.Value)
	}
}

// InsertNullRecord inserts a cursorDiskKV row with a NULL value.
func InsertNullRecord(t *testing.T, db *sql.DB, key string) {
	t.Helper()
	if _, err := db.Exec("INSERT INTO cursorDiskKV (key, value) VALUES (?, NULL)", key); err != nil {
		t.Fatalf("Failed to insert record %s: %v", key, err)
	}
}

// InsertItem inserts an ItemTable row.
func InsertItem(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	if _, err := db.Exec("INSERT INTO ItemTable (key, value) VALUES (?, ?)", key, value); err != nil {
		t.Fatalf("Failed to insert item %s: %v", key, err)
	}
}
