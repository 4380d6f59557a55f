package internal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Key prefixes used in cursorDiskKV.
const (
	BubblePrefix   = "bubbleId:"
	ComposerPrefix = "composerData:"
	ContextPrefix  = "messageRequestContext:"
	DiffPrefix     = "codeBlockDiff:"
)

// ItemTable keys used in per-workspace stores.
const (
	ChatDataKey     = "workbench.panel.aichat.view.aichat.chatdata"
	ComposerDataKey = "composer.composerData"
)

// maxKeysPerQuery keeps IN (...) lists under SQLite's variable limit.
const maxKeysPerQuery = 500

// RecordStore is a read-only view over one state.vscdb file.
// It is opened per request or command and must be closed by the caller.
type RecordStore struct {
	db   *sql.DB
	path string
}

// OpenRecordStore opens the store at path in read-only mode.
func OpenRecordStore(ctx context.Context, path string) (*RecordStore, error) {
	db, err := OpenDatabase(ctx, path)
	if err != nil {
		return nil, err
	}
	return &RecordStore{db: db, path: path}, nil
}

// NewRecordStore wraps an already-open database, mainly for tests.
func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db, path: ":memory:"}
}

// Path returns the file the store was opened from.
func (s *RecordStore) Path() string {
	return s.path
}

// Close releases the underlying connection.
func (s *RecordStore) Close() error {
	return s.db.Close()
}

// ListRecentByPrefix returns at most n records whose key starts with prefix,
// most recent (highest rowid) first.
func (s *RecordStore) ListRecentByPrefix(ctx context.Context, prefix string, n int) ([]RawRecord, error) {
	if n <= 0 {
		return []RawRecord{}, nil
	}
	records, err := queryRecords(ctx, s.db,
		`SELECT rowid, key, value FROM cursorDiskKV WHERE key LIKE ? ESCAPE '\' AND value IS NOT NULL ORDER BY rowid DESC LIMIT ?`,
		likePrefix(prefix), n)
	if err != nil {
		return nil, s.wrap("query", err)
	}
	return records, nil
}

// ListByPrefix returns every record whose key starts with prefix in ascending
// rowid order.
func (s *RecordStore) ListByPrefix(ctx context.Context, prefix string) ([]RawRecord, error) {
	records, err := queryRecords(ctx, s.db,
		`SELECT rowid, key, value FROM cursorDiskKV WHERE key LIKE ? ESCAPE '\' AND value IS NOT NULL ORDER BY rowid ASC`,
		likePrefix(prefix))
	if err != nil {
		return nil, s.wrap("query", err)
	}
	return records, nil
}

// GetByKey returns the record stored under key. The boolean is false when no
// such key exists.
func (s *RecordStore) GetByKey(ctx context.Context, key string) (RawRecord, bool, error) {
	records, err := queryRecords(ctx, s.db,
		`SELECT rowid, key, value FROM cursorDiskKV WHERE key = ? AND value IS NOT NULL`, key)
	if err != nil {
		return RawRecord{}, false, s.wrap("query", err)
	}
	if len(records) == 0 {
		return RawRecord{}, false, nil
	}
	return records[0], true, nil
}

// ListByKeys returns the records for keys that exist, in ascending rowid order.
func (s *RecordStore) ListByKeys(ctx context.Context, keys []string) ([]RawRecord, error) {
	out := make([]RawRecord, 0, len(keys))
	for start := 0; start < len(keys); start += maxKeysPerQuery {
		end := min(start+maxKeysPerQuery, len(keys))
		chunk := keys[start:end]

		args := make([]any, len(chunk))
		for i, k := range chunk {
			args[i] = k
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		records, err := queryRecords(ctx, s.db,
			fmt.Sprintf(`SELECT rowid, key, value FROM cursorDiskKV WHERE key IN (%s) AND value IS NOT NULL ORDER BY rowid ASC`, placeholders),
			args...)
		if err != nil {
			return nil, s.wrap("query", err)
		}
		out = append(out, records...)
	}
	sortByRowID(out)
	return out, nil
}

// ReadItem returns the ItemTable value stored under key.
func (s *RecordStore) ReadItem(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := queryItem(ctx, s.db, key)
	if err != nil {
		return "", false, s.wrap("query", err)
	}
	return value, ok, nil
}

// LoadComposers loads every composerData record.
func (s *RecordStore) LoadComposers(ctx context.Context) ([]*RawComposer, error) {
	records, err := s.ListByPrefix(ctx, ComposerPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query composers: %w", err)
	}

	composers := make([]*RawComposer, 0, len(records))
	for _, rec := range records {
		composer, err := ParseRawComposer(rec.Key, rec.Value)
		if err != nil {
			LogDebug("skipping composer %s: %v", rec.Key, err)
			continue
		}
		composers = append(composers, composer)
	}
	return composers, nil
}

// LoadMessageContexts loads message request contexts grouped by composer id.
func (s *RecordStore) LoadMessageContexts(ctx context.Context) (map[string][]*MessageContext, error) {
	records, err := s.ListByPrefix(ctx, ContextPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query message contexts: %w", err)
	}

	contextMap := make(map[string][]*MessageContext)
	for _, rec := range records {
		mc, err := ParseMessageContext(rec.Key, rec.Value)
		if err != nil {
			LogDebug("skipping message context %s: %v", rec.Key, err)
			continue
		}
		contextMap[mc.ComposerID] = append(contextMap[mc.ComposerID], mc)
	}
	return contextMap, nil
}

// CountCodeBlockDiffs counts codeBlockDiff records per conversation id.
func (s *RecordStore) CountCodeBlockDiffs(ctx context.Context) (map[string]int, error) {
	records, err := s.ListByPrefix(ctx, DiffPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query code block diffs: %w", err)
	}

	counts := make(map[string]int)
	for _, rec := range records {
		key, err := ParseRecordKey(rec.Key)
		if err != nil {
			continue
		}
		counts[key.ConversationID]++
	}
	return counts, nil
}

func (s *RecordStore) wrap(op string, err error) error {
	return &StorageError{Path: s.path, Op: op, Err: fmt.Errorf("%w: %v", ErrStoreUnavailable, err)}
}
