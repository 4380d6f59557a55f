package internal

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// PrefixLister reads every record under a key prefix.
type PrefixLister interface {
	ListByPrefix(ctx context.Context, prefix string) ([]RawRecord, error)
}

// diffCounter is implemented by stores that can count codeBlockDiff records.
type diffCounter interface {
	CountCodeBlockDiffs(ctx context.Context) (map[string]int, error)
}

// ConversationSummary describes one conversation of the global store.
type ConversationSummary struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Records     int          `json:"records"`
	TextRecords int          `json:"textRecords"`
	Score       int          `json:"score"`
	FirstRowID  int64        `json:"firstRowId"`
	LastRowID   int64        `json:"lastRowId"`
	Roles       map[Role]int `json:"roles"`
	// CodeBlockDiffs counts the conversation's codeBlockDiff records.
	CodeBlockDiffs int          `json:"codeBlockDiffs"`
	Workspace      *Attribution `json:"workspace,omitempty"`
}

// History is the full bubble history of the global store, grouped.
type History struct {
	Groups         *ConversationGroups
	CodeBlockDiffs map[string]int
	Stats          ParseStats
	ObservedAt     time.Time
}

// LoadHistory reads every bubble record and groups it by conversation. Stores
// that can count codeBlockDiff records also fill CodeBlockDiffs; a failed
// count leaves it empty.
func LoadHistory(ctx context.Context, src PrefixLister, now time.Time) (*History, error) {
	raws, err := src.ListByPrefix(ctx, BubblePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to read bubbles: %w", err)
	}
	records, stats := NormalizeBatch(raws, now)
	h := &History{
		Groups:         GroupByConversation(records),
		CodeBlockDiffs: map[string]int{},
		Stats:          stats,
		ObservedAt:     now,
	}
	if dc, ok := src.(diffCounter); ok {
		counts, err := dc.CountCodeBlockDiffs(ctx)
		if err != nil {
			LogDebug("code block diffs: %v", err)
		} else {
			h.CodeBlockDiffs = counts
		}
	}
	return h, nil
}

// Summaries returns one summary per conversation, most recently written first.
func (h *History) Summaries(strategy ScoreStrategy) []ConversationSummary {
	out := make([]ConversationSummary, 0, h.Groups.Len())
	for _, id := range h.Groups.Order {
		recs := h.Groups.Groups[id]
		s := ConversationSummary{
			ID:             id,
			Title:          ConversationTitle(id, recs, "Conversation "),
			Records:        len(recs),
			Score:          Score(recs, strategy),
			Roles:          map[Role]int{},
			CodeBlockDiffs: h.CodeBlockDiffs[id],
		}
		for _, r := range recs {
			if r.Text != "" {
				s.TextRecords++
			}
			s.Roles[r.Role]++
		}
		if len(recs) > 0 {
			s.FirstRowID = recs[0].RowID
			s.LastRowID = recs[len(recs)-1].RowID
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastRowID > out[j].LastRowID
	})
	return out
}

// Transcript returns the conversation with id as a transcript.
func (h *History) Transcript(id string) (*Transcript, error) {
	recs, ok := h.Groups.Get(id)
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, ErrConversationNotFound)
	}
	return ConversationTranscript(id, recs), nil
}
