package internal

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultActiveWindow is how many recent bubbles are scanned to find the
	// active conversation.
	DefaultActiveWindow = 200
	// maxRecentWindow caps the scan for recent messages.
	maxRecentWindow = 1000
	// recentWindowFactor scales the scan with the requested limit so that
	// enough records survive deduplication.
	recentWindowFactor = 20
	titleMaxRunes      = 100
)

// RecentLister reads the most recent records under a key prefix.
type RecentLister interface {
	ListRecentByPrefix(ctx context.Context, prefix string, n int) ([]RawRecord, error)
}

// Summary describes how a result was produced.
type Summary struct {
	Returned            int           `json:"returned"`
	TotalInConversation int           `json:"totalInConversation"`
	ConversationCount   int           `json:"conversationCount"`
	ScannedRecords      int           `json:"scannedRecords"`
	LastRecordID        string        `json:"lastRecordId,omitempty"`
	Score               int           `json:"score"`
	ScoreStrategy       ScoreStrategy `json:"scoreStrategy"`
	IncludeEmpty        bool          `json:"includeEmpty"`
	// ObservedAt is the read time shared by every record in the result.
	ObservedAt time.Time  `json:"observedAt"`
	ParseStats ParseStats `json:"parseStats"`
}

// ActiveResult is the active conversation and its records in ascending rowid
// order.
type ActiveResult struct {
	ConversationID string
	Title          string
	Records        []*NormalizedRecord
	Summary        Summary
}

// ActiveOptions configures FindActiveChat.
type ActiveOptions struct {
	Window   int
	Strategy ScoreStrategy
}

// RecentOptions configures RecentMessages.
type RecentOptions struct {
	Limit        int
	Since        string
	IncludeEmpty bool
	Strategy     ScoreStrategy
}

// RecentWindow returns how many bubbles to scan for a given limit.
func RecentWindow(limit int) int {
	return min(ClampLimit(limit, 0)*recentWindowFactor, maxRecentWindow)
}

// FindActiveChat scans the most recent bubbles and returns every record of the
// most active conversation. When nothing scores above zero it returns a
// result with no records together with ErrNoActiveConversation.
func FindActiveChat(ctx context.Context, src RecentLister, opts ActiveOptions, now time.Time) (*ActiveResult, error) {
	window := opts.Window
	if window <= 0 {
		window = DefaultActiveWindow
	}

	res, err := selectFromRecent(ctx, src, window, opts.Strategy, now)
	if err != nil {
		return res, err
	}
	res.Title = ConversationTitle(res.ConversationID, res.Records, "Active Chat ")
	res.Summary.Returned = len(res.Records)
	res.Summary.LastRecordID = lastRecordID(res.Records)
	return res, nil
}

// RecentMessages finds the active conversation, then deduplicates and windows
// its records.
func RecentMessages(ctx context.Context, src RecentLister, opts RecentOptions, now time.Time) (*ActiveResult, error) {
	res, err := selectFromRecent(ctx, src, RecentWindow(opts.Limit), opts.Strategy, now)
	res.Summary.IncludeEmpty = opts.IncludeEmpty
	if err != nil {
		return res, err
	}

	res.Title = ConversationTitle(res.ConversationID, res.Records, "Active Chat ")
	res.Records = DedupeAndWindow(res.Records, WindowOptions{
		Limit:        opts.Limit,
		Since:        opts.Since,
		IncludeEmpty: opts.IncludeEmpty,
	})
	res.Summary.Returned = len(res.Records)
	res.Summary.LastRecordID = lastRecordID(res.Records)
	return res, nil
}

func selectFromRecent(ctx context.Context, src RecentLister, window int, strategy ScoreStrategy, now time.Time) (*ActiveResult, error) {
	if strategy == "" {
		strategy = ScoreContent
	}
	res := &ActiveResult{
		Records: []*NormalizedRecord{},
		Summary: Summary{ScoreStrategy: strategy, ObservedAt: now},
	}

	raws, err := src.ListRecentByPrefix(ctx, BubblePrefix, window)
	if err != nil {
		return res, fmt.Errorf("failed to read recent bubbles: %w", err)
	}
	res.Summary.ScannedRecords = len(raws)

	records, stats := NormalizeBatch(raws, now)
	res.Summary.ParseStats = stats
	if stats.Skipped() > 0 {
		LogDebug("skipped %d of %d recent bubbles", stats.Skipped(), len(raws))
	}

	groups := GroupByConversation(records)
	res.Summary.ConversationCount = groups.Len()

	sel, ok := SelectActive(groups, strategy)
	if !ok {
		return res, ErrNoActiveConversation
	}

	res.ConversationID = sel.ConversationID
	res.Records = sel.Records
	res.Summary.Score = sel.Score
	res.Summary.TotalInConversation = len(sel.Records)
	return res, nil
}

// ConversationTitle uses the first line of the first user message, cut to 100
// runes, or prefix plus the first 8 characters of the id.
func ConversationTitle(id string, records []*NormalizedRecord, prefix string) string {
	for _, rec := range records {
		if rec.Role != RoleUser {
			continue
		}
		line, _, _ := strings.Cut(strings.TrimSpace(rec.Text), "\n")
		if line = strings.TrimSpace(line); line != "" {
			return truncateRunes(line, titleMaxRunes)
		}
		break
	}
	return prefix + shortID(id)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func lastRecordID(records []*NormalizedRecord) string {
	if len(records) == 0 {
		return ""
	}
	return records[len(records)-1].RecordID
}
