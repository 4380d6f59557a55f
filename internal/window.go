package internal

import (
	"strings"
	"time"
)

const (
	// DefaultLimit is used when a caller passes no limit.
	DefaultLimit = 10
	// MaxLimit caps limits accepted from callers.
	MaxLimit = 50
)

// ClampLimit applies the default for non-positive values and caps at ceiling.
func ClampLimit(limit, ceiling int) int {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if ceiling > 0 && limit > ceiling {
		limit = ceiling
	}
	return limit
}

// Cursor is a parsed "since" value: either a timestamp or a record id.
type Cursor struct {
	Time     time.Time
	RecordID string
}

// IsZero reports whether the cursor filters nothing.
func (c Cursor) IsZero() bool {
	return c.Time.IsZero() && c.RecordID == ""
}

// IsTime reports whether the cursor is a timestamp.
func (c Cursor) IsTime() bool {
	return !c.Time.IsZero()
}

var cursorLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// ParseCursor interprets s as an ISO-8601 timestamp when it contains a 'T'
// and parses as one; otherwise s is a record id.
func ParseCursor(s string) Cursor {
	s = strings.TrimSpace(s)
	if s == "" {
		return Cursor{}
	}
	if strings.Contains(s, "T") {
		for _, layout := range cursorLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return Cursor{Time: t}
			}
		}
	}
	return Cursor{RecordID: s}
}

// WindowOptions controls DedupeAndWindow.
type WindowOptions struct {
	Limit        int
	Since        string
	IncludeEmpty bool
}

// DedupeAndWindow deduplicates records, keeps the Limit records with the
// largest rowids in ascending order, then applies the Since cursor.
//
// A timestamp cursor is compared with ObservedAt, which is read time; it only
// separates records read before and after the cursor, not authored times.
func DedupeAndWindow(records []*NormalizedRecord, opts WindowOptions) []*NormalizedRecord {
	unique := NewDeduplicator(opts.IncludeEmpty).Deduplicate(records)
	return tailSince(unique, ClampLimit(opts.Limit, 0), ParseCursor(opts.Since),
		func(r *NormalizedRecord) string { return r.RecordID },
		func(r *NormalizedRecord) time.Time { return r.ObservedAt },
	)
}

// tailSince keeps the last limit items, then drops everything up to and
// including the last item carrying the cursor id. An id cursor that is not in
// the window filters nothing.
func tailSince[T any](items []T, limit int, since Cursor, id func(T) string, at func(T) time.Time) []T {
	if limit > 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}

	switch {
	case since.IsTime():
		out := make([]T, 0, len(items))
		for _, it := range items {
			if at(it).After(since.Time) {
				out = append(out, it)
			}
		}
		return out
	case since.RecordID != "":
		for i := len(items) - 1; i >= 0; i-- {
			if id(items[i]) == since.RecordID {
				return items[i+1:]
			}
		}
	}
	return items
}
