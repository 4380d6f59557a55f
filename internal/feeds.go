package internal

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultFeedLimit is the default number of feed entries.
	DefaultFeedLimit = 20
	feedWindowFactor = 50
	maxFeedWindow    = 2000
)

// File context entry types.
const (
	FileContextAttached = "attached"
	FileContextGit      = "git"
	FileContextViewed   = "viewed"
	FileContextPiece    = "context"
)

// FeedOptions configures the code block, tool result and file context feeds.
type FeedOptions struct {
	Limit  int
	Since  string
	Filter string
	// Type restricts the file context feed; empty or "all" keeps every type.
	Type           string
	IncludeContent bool
}

// FeedWindow returns how many bubbles to scan for a feed of limit entries.
func FeedWindow(limit int) int {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	return min(limit*feedWindowFactor, maxFeedWindow)
}

// FeedSummary describes how a feed was produced.
type FeedSummary struct {
	Returned       int        `json:"returned"`
	ScannedRecords int        `json:"scannedRecords"`
	LastRecordID   string     `json:"lastRecordId,omitempty"`
	Filter         string     `json:"filter,omitempty"`
	ObservedAt     time.Time  `json:"observedAt"`
	ParseStats     ParseStats `json:"parseStats"`
}

// feedEntry is the part every feed entry shares.
type feedEntry struct {
	ID             string    `json:"id"`
	RecordID       string    `json:"recordId"`
	ConversationID string    `json:"conversationId"`
	RowID          int64     `json:"rowId"`
	Role           Role      `json:"role"`
	IsAgentic      bool      `json:"isAgentic"`
	ObservedAt     time.Time `json:"observedAt"`
}

func newFeedEntry(rec *NormalizedRecord, id string) feedEntry {
	return feedEntry{
		ID:             id,
		RecordID:       rec.RecordID,
		ConversationID: rec.ConversationID,
		RowID:          rec.RowID,
		Role:           rec.Role,
		IsAgentic:      rec.IsAgentic,
		ObservedAt:     rec.ObservedAt,
	}
}

// CodeBlockEntry is one code block found in a record.
type CodeBlockEntry struct {
	feedEntry
	Language       string `json:"language"`
	Filename       string `json:"filename,omitempty"`
	Content        string `json:"content,omitempty"`
	LineCount      int    `json:"lineCount"`
	CharacterCount int    `json:"characterCount"`
}

// CodeBlockStats aggregates a code block feed.
type CodeBlockStats struct {
	TotalBlocks          int            `json:"totalBlocks"`
	TotalLines           int            `json:"totalLines"`
	TotalCharacters      int            `json:"totalCharacters"`
	AverageLinesPerBlock int            `json:"averageLinesPerBlock"`
	LanguageStats        map[string]int `json:"languageStats"`
	UserBlocks           int            `json:"userBlocks"`
	AssistantBlocks      int            `json:"assistantBlocks"`
}

// CodeBlockFeed is the result of CodeBlocks.
type CodeBlockFeed struct {
	Entries []CodeBlockEntry `json:"codeBlocks"`
	Stats   CodeBlockStats   `json:"stats"`
	Summary FeedSummary      `json:"summary"`
}

// ToolResultEntry is one tool invocation found in a record.
type ToolResultEntry struct {
	feedEntry
	Tool     string  `json:"tool"`
	Success  bool    `json:"success"`
	Duration float64 `json:"duration,omitempty"`
	Command  string  `json:"command,omitempty"`
	Output   string  `json:"output"`
	Error    string  `json:"error,omitempty"`
}

// ToolResultStats aggregates a tool result feed.
type ToolResultStats struct {
	TotalResults int            `json:"totalResults"`
	SuccessCount int            `json:"successCount"`
	ErrorCount   int            `json:"errorCount"`
	SuccessRate  string         `json:"successRate"`
	ToolStats    map[string]int `json:"toolStats"`
}

// ToolResultFeed is the result of ToolResults.
type ToolResultFeed struct {
	Entries []ToolResultEntry `json:"toolResults"`
	Stats   ToolResultStats   `json:"stats"`
	Summary FeedSummary       `json:"summary"`
}

// FileContextEntry is one file reference found in a record.
type FileContextEntry struct {
	feedEntry
	Type       string `json:"type"`
	Filename   string `json:"filename,omitempty"`
	Content    string `json:"content,omitempty"`
	StartLine  int    `json:"startLine,omitempty"`
	EndLine    int    `json:"endLine,omitempty"`
	ChangeType string `json:"changeType,omitempty"`
	PieceType  string `json:"pieceType,omitempty"`
}

// FileContextStats aggregates a file context feed.
type FileContextStats struct {
	TotalContexts int            `json:"totalContexts"`
	UniqueFiles   int            `json:"uniqueFiles"`
	TypeStats     map[string]int `json:"typeStats"`
}

// FileContextFeed is the result of FileContext.
type FileContextFeed struct {
	Entries []FileContextEntry `json:"fileContexts"`
	Stats   FileContextStats   `json:"stats"`
	Summary FeedSummary        `json:"summary"`
}

// scanFeed reads the recent bubble window and normalizes it.
func scanFeed(ctx context.Context, src RecentLister, limit int, now time.Time) ([]*NormalizedRecord, FeedSummary, error) {
	summary := FeedSummary{ObservedAt: now}
	raws, err := src.ListRecentByPrefix(ctx, BubblePrefix, FeedWindow(limit))
	if err != nil {
		return nil, summary, fmt.Errorf("failed to read recent bubbles: %w", err)
	}
	summary.ScannedRecords = len(raws)

	records, stats := NormalizeBatch(raws, now)
	summary.ParseStats = stats
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RowID < records[j].RowID
	})
	return records, summary, nil
}

func windowFeed[T any](entries []T, opts FeedOptions, entry func(T) feedEntry) []T {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	return tailSince(entries, limit, ParseCursor(opts.Since),
		func(t T) string { return entry(t).RecordID },
		func(t T) time.Time { return entry(t).ObservedAt },
	)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// CodeBlocks lists code blocks from recent bubbles, optionally filtered by
// language substring.
func CodeBlocks(ctx context.Context, src RecentLister, opts FeedOptions, now time.Time) (*CodeBlockFeed, error) {
	records, summary, err := scanFeed(ctx, src, opts.Limit, now)
	if err != nil {
		return nil, err
	}

	var entries []CodeBlockEntry
	for _, rec := range records {
		for i, cb := range rec.CodeBlocks {
			if opts.Filter != "" && !containsFold(cb.Language, opts.Filter) {
				continue
			}
			e := CodeBlockEntry{
				feedEntry:      newFeedEntry(rec, fmt.Sprintf("%s-%d", rec.RecordID, i)),
				Language:       cb.Language,
				Filename:       cb.Filename,
				LineCount:      lineCount(cb.Code),
				CharacterCount: utf8.RuneCountInString(cb.Code),
			}
			if opts.IncludeContent {
				e.Content = cb.Code
			}
			entries = append(entries, e)
		}
	}
	entries = windowFeed(entries, opts, func(e CodeBlockEntry) feedEntry { return e.feedEntry })

	stats := CodeBlockStats{TotalBlocks: len(entries), LanguageStats: map[string]int{}}
	for _, e := range entries {
		stats.TotalLines += e.LineCount
		stats.TotalCharacters += e.CharacterCount
		stats.LanguageStats[e.Language]++
		switch e.Role {
		case RoleUser:
			stats.UserBlocks++
		case RoleAssistant:
			stats.AssistantBlocks++
		}
	}
	if len(entries) > 0 {
		stats.AverageLinesPerBlock = (stats.TotalLines + len(entries)/2) / len(entries)
	}

	summary.Filter = opts.Filter
	summary.Returned = len(entries)
	if n := len(entries); n > 0 {
		summary.LastRecordID = entries[n-1].RecordID
	}
	if entries == nil {
		entries = []CodeBlockEntry{}
	}
	return &CodeBlockFeed{Entries: entries, Stats: stats, Summary: summary}, nil
}

// ToolResults lists tool invocations from recent bubbles, optionally filtered
// by tool name substring.
func ToolResults(ctx context.Context, src RecentLister, opts FeedOptions, now time.Time) (*ToolResultFeed, error) {
	records, summary, err := scanFeed(ctx, src, opts.Limit, now)
	if err != nil {
		return nil, err
	}

	var entries []ToolResultEntry
	for _, rec := range records {
		for i, tr := range rec.ToolResults {
			if opts.Filter != "" && !containsFold(tr.Tool, opts.Filter) {
				continue
			}
			entries = append(entries, ToolResultEntry{
				feedEntry: newFeedEntry(rec, fmt.Sprintf("%s-%d", rec.RecordID, i)),
				Tool:      tr.Tool,
				Success:   tr.Success,
				Duration:  tr.Duration,
				Command:   tr.Command,
				Output:    tr.Output,
				Error:     tr.Error,
			})
		}
	}
	entries = windowFeed(entries, opts, func(e ToolResultEntry) feedEntry { return e.feedEntry })

	stats := ToolResultStats{TotalResults: len(entries), ToolStats: map[string]int{}, SuccessRate: "0%"}
	for _, e := range entries {
		if e.Success {
			stats.SuccessCount++
		} else {
			stats.ErrorCount++
		}
		stats.ToolStats[e.Tool]++
	}
	if len(entries) > 0 {
		stats.SuccessRate = fmt.Sprintf("%.1f%%", float64(stats.SuccessCount)/float64(len(entries))*100)
	}

	summary.Filter = opts.Filter
	summary.Returned = len(entries)
	if n := len(entries); n > 0 {
		summary.LastRecordID = entries[n-1].RecordID
	}
	if entries == nil {
		entries = []ToolResultEntry{}
	}
	return &ToolResultFeed{Entries: entries, Stats: stats, Summary: summary}, nil
}

// FileContext lists attached chunks, git diffs, recently viewed files and
// context pieces from recent bubbles. Filter matches the filename; entries
// without a filename always pass it.
func FileContext(ctx context.Context, src RecentLister, opts FeedOptions, now time.Time) (*FileContextFeed, error) {
	switch opts.Type {
	case "", "all", FileContextAttached, FileContextGit, FileContextViewed, FileContextPiece:
	default:
		return nil, fmt.Errorf("unknown file context type %q", opts.Type)
	}

	records, summary, err := scanFeed(ctx, src, opts.Limit, now)
	if err != nil {
		return nil, err
	}

	want := func(kind string) bool {
		return opts.Type == "" || opts.Type == "all" || opts.Type == kind
	}
	content := func(s string) string {
		if opts.IncludeContent {
			return s
		}
		return ""
	}

	var entries []FileContextEntry
	add := func(e FileContextEntry) {
		if opts.Filter != "" && e.Filename != "" && !containsFold(e.Filename, opts.Filter) {
			return
		}
		entries = append(entries, e)
	}

	for _, rec := range records {
		if want(FileContextAttached) {
			for i, f := range rec.AttachedFiles {
				add(FileContextEntry{
					feedEntry: newFeedEntry(rec, fmt.Sprintf("%s-attached-%d", rec.RecordID, i)),
					Type:      FileContextAttached,
					Filename:  f.Filename,
					Content:   content(f.Content),
					StartLine: f.StartLine,
					EndLine:   f.EndLine,
				})
			}
		}
		if want(FileContextGit) {
			for i, d := range rec.GitDiffs {
				add(FileContextEntry{
					feedEntry:  newFeedEntry(rec, fmt.Sprintf("%s-git-%d", rec.RecordID, i)),
					Type:       FileContextGit,
					Filename:   d.Filename,
					Content:    content(d.Diff),
					ChangeType: d.Type,
				})
			}
		}
		if want(FileContextViewed) {
			for i, name := range rec.RecentlyViewedFiles {
				add(FileContextEntry{
					feedEntry: newFeedEntry(rec, fmt.Sprintf("%s-viewed-%d", rec.RecordID, i)),
					Type:      FileContextViewed,
					Filename:  name,
				})
			}
		}
		if want(FileContextPiece) {
			for i, p := range rec.ContextPieces {
				add(FileContextEntry{
					feedEntry: newFeedEntry(rec, fmt.Sprintf("%s-context-%d", rec.RecordID, i)),
					Type:      FileContextPiece,
					Filename:  p.Filename,
					Content:   content(p.Content),
					PieceType: p.Type,
				})
			}
		}
	}
	entries = windowFeed(entries, opts, func(e FileContextEntry) feedEntry { return e.feedEntry })

	stats := FileContextStats{TotalContexts: len(entries), TypeStats: map[string]int{}}
	files := make(map[string]bool)
	for _, e := range entries {
		stats.TypeStats[e.Type]++
		if e.Filename != "" {
			files[e.Filename] = true
		}
	}
	stats.UniqueFiles = len(files)

	summary.Filter = opts.Filter
	summary.Returned = len(entries)
	if n := len(entries); n > 0 {
		summary.LastRecordID = entries[n-1].RecordID
	}
	if entries == nil {
		entries = []FileContextEntry{}
	}
	return &FileContextFeed{Entries: entries, Stats: stats, Summary: summary}, nil
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
