package internal

import (
	"context"
	"testing"

	"github.com/iksnae/cursor-chat-browser/testutil"
)

func feedStore(t *testing.T) *RecordStore {
	t.Helper()
	db := testutil.CreateInMemoryDB(t)
	testutil.InsertRecords(t, db, []testutil.Record{
		{Key: "bubbleId:c:1", Value: `{"type":1,"text":"q","codeBlocks":[{"language":"go","code":"a\nb"}],
			"attachedCodeChunks":[{"filename":"main.go","content":"package main","startLine":1,"endLine":3}]}`},
		{Key: "bubbleId:c:2", Value: `{"type":2,"codeBlocks":[{"language":"python","code":"print()"},{"language":"golang","code":"c"}],
			"toolResults":[{"tool":"run_terminal","output":"ok","success":true},{"tool":"read_file","output":"","success":false}],
			"gitDiffs":[{"filename":"main.go","diff":"+x","type":"added"}]}`},
		{Key: "bubbleId:c:3", Value: `{"type":2,"toolResults":[{"tool":"run_terminal","output":"again"}],
			"recentlyViewedFiles":["util.go"],"contextPieces":[{"type":"doc","content":"notes"}]}`},
	})
	return NewRecordStore(db)
}

func TestFeedWindow(t *testing.T) {
	tests := []struct{ limit, want int }{
		{0, DefaultFeedLimit * feedWindowFactor},
		{10, 500},
		{100, maxFeedWindow},
	}
	for _, tt := range tests {
		if got := FeedWindow(tt.limit); got != tt.want {
			t.Errorf("FeedWindow(%d) = %d, want %d", tt.limit, got, tt.want)
		}
	}
}

func TestCodeBlocks(t *testing.T) {
	store := feedStore(t)
	ctx := context.Background()

	feed, err := CodeBlocks(ctx, store, FeedOptions{}, testObservedAt)
	if err != nil {
		t.Fatalf("CodeBlocks() error = %v", err)
	}
	if len(feed.Entries) != 3 {
		t.Fatalf("CodeBlocks() returned %d entries, want 3", len(feed.Entries))
	}
	first := feed.Entries[0]
	if first.ID != "1-0" || first.LineCount != 2 || first.CharacterCount != 3 || first.Content != "" {
		t.Errorf("first entry = %+v", first)
	}
	if feed.Stats.UserBlocks != 1 || feed.Stats.AssistantBlocks != 2 || feed.Stats.LanguageStats["go"] != 1 {
		t.Errorf("stats = %+v", feed.Stats)
	}
	if feed.Summary.LastRecordID != "2" || feed.Summary.ScannedRecords != 3 {
		t.Errorf("summary = %+v", feed.Summary)
	}

	filtered, err := CodeBlocks(ctx, store, FeedOptions{Filter: "GO", IncludeContent: true}, testObservedAt)
	if err != nil {
		t.Fatalf("CodeBlocks() error = %v", err)
	}
	if len(filtered.Entries) != 2 || filtered.Entries[1].Language != "golang" || filtered.Entries[1].Content != "c" {
		t.Errorf("filtered entries = %+v", filtered.Entries)
	}

	limited, _ := CodeBlocks(ctx, store, FeedOptions{Limit: 1}, testObservedAt)
	if len(limited.Entries) != 1 || limited.Entries[0].Language != "golang" {
		t.Errorf("limited entries = %+v, want the newest block", limited.Entries)
	}
}

func TestToolResults(t *testing.T) {
	store := feedStore(t)
	ctx := context.Background()

	feed, err := ToolResults(ctx, store, FeedOptions{}, testObservedAt)
	if err != nil {
		t.Fatalf("ToolResults() error = %v", err)
	}
	if feed.Stats.TotalResults != 3 || feed.Stats.SuccessCount != 2 || feed.Stats.ErrorCount != 1 {
		t.Errorf("stats = %+v", feed.Stats)
	}
	if feed.Stats.SuccessRate != "66.7%" {
		t.Errorf("SuccessRate = %q, want 66.7%%", feed.Stats.SuccessRate)
	}
	if feed.Stats.ToolStats["run_terminal"] != 2 {
		t.Errorf("ToolStats = %v", feed.Stats.ToolStats)
	}

	since, err := ToolResults(ctx, store, FeedOptions{Since: "2"}, testObservedAt)
	if err != nil {
		t.Fatalf("ToolResults() error = %v", err)
	}
	if len(since.Entries) != 1 || since.Entries[0].Output != "again" {
		t.Errorf("since entries = %+v", since.Entries)
	}

	none, _ := ToolResults(ctx, store, FeedOptions{Filter: "nothing"}, testObservedAt)
	if none.Entries == nil || len(none.Entries) != 0 || none.Stats.SuccessRate != "0%" {
		t.Errorf("empty feed = %+v", none)
	}
}

func TestFileContext(t *testing.T) {
	store := feedStore(t)
	ctx := context.Background()

	feed, err := FileContext(ctx, store, FeedOptions{}, testObservedAt)
	if err != nil {
		t.Fatalf("FileContext() error = %v", err)
	}
	if feed.Stats.TotalContexts != 4 || feed.Stats.UniqueFiles != 2 {
		t.Errorf("stats = %+v", feed.Stats)
	}
	for _, kind := range []string{FileContextAttached, FileContextGit, FileContextViewed, FileContextPiece} {
		if feed.Stats.TypeStats[kind] != 1 {
			t.Errorf("TypeStats[%s] = %d, want 1", kind, feed.Stats.TypeStats[kind])
		}
	}

	git, _ := FileContext(ctx, store, FeedOptions{Type: FileContextGit, IncludeContent: true}, testObservedAt)
	if len(git.Entries) != 1 || git.Entries[0].ChangeType != "added" || git.Entries[0].Content != "+x" {
		t.Errorf("git entries = %+v", git.Entries)
	}

	// The context piece has no filename and always passes the filter.
	byName, _ := FileContext(ctx, store, FeedOptions{Filter: "main"}, testObservedAt)
	if len(byName.Entries) != 3 {
		t.Errorf("filtered entries = %d, want 3", len(byName.Entries))
	}

	if _, err := FileContext(ctx, store, FeedOptions{Type: "bogus"}, testObservedAt); err == nil {
		t.Error("FileContext() with unknown type returned no error")
	}
}
