package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Deduplicator collapses records that repeat the same role and text.
type Deduplicator struct {
	includeEmpty bool
}

// NewDeduplicator creates a new Deduplicator. When includeEmpty is false,
// records without text are dropped.
func NewDeduplicator(includeEmpty bool) *Deduplicator {
	return &Deduplicator{includeEmpty: includeEmpty}
}

// Deduplicate keeps, for each (role, trimmed text) key, the record with the
// largest rowid; on equal rowids the first one wins. Empty records are never
// merged, not even with an empty record of the same rowid. The result is
// sorted by ascending rowid, ties in input order.
func (d *Deduplicator) Deduplicate(records []*NormalizedRecord) []*NormalizedRecord {
	unique := make([]*NormalizedRecord, 0, len(records))
	index := make(map[string]int, len(records))
	for _, rec := range records {
		text := strings.TrimSpace(rec.Text)
		if text == "" {
			if d.includeEmpty {
				unique = append(unique, rec)
			}
			continue
		}
		key := string(rec.Role) + ":" + text
		if i, seen := index[key]; seen {
			if rec.RowID > unique[i].RowID {
				unique[i] = rec
			}
			continue
		}
		index[key] = len(unique)
		unique = append(unique, rec)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].RowID < unique[j].RowID
	})
	return unique
}

// DeduplicateTranscripts removes transcripts whose messages hash identically,
// keeping the first occurrence.
func DeduplicateTranscripts(transcripts []*Transcript) []*Transcript {
	seen := make(map[string]bool)
	var unique []*Transcript

	for _, t := range transcripts {
		hash := hashTranscriptContent(t)
		if !seen[hash] {
			seen[hash] = true
			unique = append(unique, t)
		}
	}

	return unique
}

func hashTranscriptContent(t *Transcript) string {
	h := sha256.New()
	for _, msg := range t.Messages {
		h.Write([]byte(msg.Role))
		h.Write([]byte{0})
		h.Write([]byte(msg.Content))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
