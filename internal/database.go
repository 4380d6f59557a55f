package internal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// OpenDatabase opens a SQLite database in read-only mode. The returned error
// wraps ErrStoreUnavailable when the file is missing or unreadable.
func OpenDatabase(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: fmt.Errorf("%w: %v", ErrStoreUnavailable, err)}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &StorageError{Path: path, Op: "open", Err: fmt.Errorf("%w: %v", ErrStoreUnavailable, err)}
	}

	return db, nil
}

// queryRecords runs a cursorDiskKV query selecting (rowid, key, value) and
// skips rows with a NULL value.
func queryRecords(ctx context.Context, db *sql.DB, query string, args ...any) ([]RawRecord, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var records []RawRecord
	for rows.Next() {
		var rec RawRecord
		var value sql.NullString
		if err := rows.Scan(&rec.RowID, &rec.Key, &value); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if value.Valid {
			rec.Value = value.String
			records = append(records, rec)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}

// queryItem reads a single ItemTable value.
func queryItem(ctx context.Context, db *sql.DB, key string) (string, bool, error) {
	var value sql.NullString
	err := db.QueryRowContext(ctx, "SELECT value FROM ItemTable WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("item query failed: %w", err)
	}
	return value.String, value.Valid, nil
}

// likePrefix escapes LIKE wildcards in prefix and appends '%'.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
