package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/iksnae/cursor-chat-browser/testutil"
)

type failingLister struct{ err error }

func (f failingLister) ListRecentByPrefix(context.Context, string, int) ([]RawRecord, error) {
	return nil, f.err
}

type recordingLister struct {
	records []RawRecord
	gotN    int
}

func (r *recordingLister) ListRecentByPrefix(_ context.Context, _ string, n int) ([]RawRecord, error) {
	r.gotN = n
	return r.records, nil
}

func activeStore(t *testing.T) *RecordStore {
	t.Helper()
	db := testutil.CreateInMemoryDB(t)
	testutil.InsertRecords(t, db, []testutil.Record{
		{Key: "bubbleId:old:1", Value: `{"type":1,"text":"older chat"}`},
		{Key: "bubbleId:busy:1", Value: `{"type":1,"text":"Fix the build\nIt fails on CI"}`},
		{Key: "bubbleId:busy:2", Value: `{"type":2,"text":"Try this","codeBlocks":[{"code":"go build"}]}`},
		{Key: "bubbleId:busy:3", Value: `{"type":2}`},
		{Key: "bubbleId:busy:4", Value: `{"type":1,"text":"Fix the build\nIt fails on CI"}`},
		{Key: "bubbleId:busy:5", Value: `not json`},
		{Key: "bubbleId:quiet:1", Value: `{"type":2}`},
	})
	return NewRecordStore(db)
}

func TestFindActiveChat(t *testing.T) {
	store := activeStore(t)

	res, err := FindActiveChat(context.Background(), store, ActiveOptions{}, testObservedAt)
	if err != nil {
		t.Fatalf("FindActiveChat() error = %v", err)
	}
	if res.ConversationID != "busy" {
		t.Errorf("ConversationID = %q, want busy", res.ConversationID)
	}
	if res.Title != "Fix the build" {
		t.Errorf("Title = %q, want %q", res.Title, "Fix the build")
	}
	if len(res.Records) != 4 {
		t.Errorf("Records = %d, want 4 (every parsed record)", len(res.Records))
	}
	for i := 1; i < len(res.Records); i++ {
		if res.Records[i-1].RowID >= res.Records[i].RowID {
			t.Error("Records not in ascending rowid order")
		}
	}

	s := res.Summary
	if s.ConversationCount != 3 || s.ScannedRecords != 7 || s.ParseStats.ParseFailures != 1 {
		t.Errorf("Summary = %+v", s)
	}
	if s.Returned != 4 || s.LastRecordID != "4" || s.ScoreStrategy != ScoreContent {
		t.Errorf("Summary = %+v", s)
	}
	if !s.ObservedAt.Equal(testObservedAt) {
		t.Errorf("Summary.ObservedAt = %v, want %v", s.ObservedAt, testObservedAt)
	}
}

func TestFindActiveChat_DefaultWindow(t *testing.T) {
	lister := &recordingLister{}
	_, _ = FindActiveChat(context.Background(), lister, ActiveOptions{}, testObservedAt)
	if lister.gotN != DefaultActiveWindow {
		t.Errorf("window = %d, want %d", lister.gotN, DefaultActiveWindow)
	}
}

func TestFindActiveChat_NoActiveConversation(t *testing.T) {
	lister := &recordingLister{records: []RawRecord{
		{Key: "bubbleId:a:1", RowID: 1, Value: `{"type":1}`},
	}}

	res, err := FindActiveChat(context.Background(), lister, ActiveOptions{}, testObservedAt)
	if !errors.Is(err, ErrNoActiveConversation) {
		t.Fatalf("FindActiveChat() error = %v, want ErrNoActiveConversation", err)
	}
	if res == nil || res.Records == nil || len(res.Records) != 0 {
		t.Errorf("FindActiveChat() result = %+v, want empty records", res)
	}
	if res.Summary.ConversationCount != 1 {
		t.Errorf("Summary.ConversationCount = %d, want 1", res.Summary.ConversationCount)
	}
}

func TestFindActiveChat_StoreError(t *testing.T) {
	boom := fmt.Errorf("%w: disk gone", ErrStoreUnavailable)
	_, err := FindActiveChat(context.Background(), failingLister{err: boom}, ActiveOptions{}, testObservedAt)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("FindActiveChat() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestRecentMessages(t *testing.T) {
	store := activeStore(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		opts    RecentOptions
		wantIDs []string
	}{
		{
			name:    "deduplicated, empty dropped",
			opts:    RecentOptions{Limit: 10},
			wantIDs: []string{"2", "4"},
		},
		{
			name:    "include empty",
			opts:    RecentOptions{Limit: 10, IncludeEmpty: true},
			wantIDs: []string{"2", "3", "4"},
		},
		{
			name:    "limit",
			opts:    RecentOptions{Limit: 1},
			wantIDs: []string{"4"},
		},
		{
			name:    "since id",
			opts:    RecentOptions{Limit: 10, Since: "2"},
			wantIDs: []string{"4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := RecentMessages(ctx, store, tt.opts, testObservedAt)
			if err != nil {
				t.Fatalf("RecentMessages() error = %v", err)
			}
			if got := recordIDs(res.Records); strings.Join(got, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("RecentMessages() ids = %v, want %v", got, tt.wantIDs)
			}
			if res.Summary.Returned != len(tt.wantIDs) {
				t.Errorf("Summary.Returned = %d, want %d", res.Summary.Returned, len(tt.wantIDs))
			}
			if res.Summary.IncludeEmpty != tt.opts.IncludeEmpty {
				t.Errorf("Summary.IncludeEmpty = %v, want %v", res.Summary.IncludeEmpty, tt.opts.IncludeEmpty)
			}
		})
	}
}

func TestRecentWindow(t *testing.T) {
	tests := []struct{ limit, want int }{
		{0, DefaultLimit * recentWindowFactor},
		{5, 100},
		{50, maxRecentWindow},
		{1000, maxRecentWindow},
	}
	for _, tt := range tests {
		if got := RecentWindow(tt.limit); got != tt.want {
			t.Errorf("RecentWindow(%d) = %d, want %d", tt.limit, got, tt.want)
		}
	}
}

func TestConversationTitle(t *testing.T) {
	long := strings.Repeat("é", 150)
	tests := []struct {
		name    string
		records []*NormalizedRecord
		want    string
	}{
		{
			name:    "first line of first user message",
			records: []*NormalizedRecord{NewTestRecord("c", "1", 1, RoleAssistant, "hi"), NewTestRecord("c", "2", 2, RoleUser, "  Title line\nbody")},
			want:    "Title line",
		},
		{
			name:    "truncated to 100 runes",
			records: []*NormalizedRecord{NewTestRecord("c", "1", 1, RoleUser, long)},
			want:    strings.Repeat("é", 100),
		},
		{
			name:    "no user message",
			records: []*NormalizedRecord{NewTestRecord("c", "1", 1, RoleAssistant, "hi")},
			want:    "Active Chat 12345678",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConversationTitle("1234567890", tt.records, "Active Chat "); got != tt.want {
				t.Errorf("ConversationTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}
