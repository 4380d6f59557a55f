package internal

import (
	"context"
	"strings"
	"testing"
)

func TestSearch(t *testing.T) {
	root, _ := mockRoot(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		query     string
		wantIDs   []string
		wantMatch string
	}{
		{name: "bubble text", query: "TOKENIZER", wantIDs: []string{"tab1"}, wantMatch: "The tokenizer drops the last byte."},
		{name: "selection", query: "func parse", wantIDs: []string{"tab1"}, wantMatch: "Selection: func parse() error"},
		{name: "composer name", query: "listed", wantIDs: []string{"chat1"}, wantMatch: "Listed Name"},
		{name: "newest first", query: "e", wantIDs: []string{"tab1", "chat1", "tab2"}},
		{name: "no match", query: "zzzz", wantIDs: []string{}},
		{name: "blank query", query: "  ", wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := Search(ctx, root, tt.query)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			var ids []string
			for _, r := range results {
				ids = append(ids, r.ChatID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("Search() ids = %v, want %v", ids, tt.wantIDs)
			}
			if tt.wantMatch != "" && len(results) > 0 && results[0].MatchingText != tt.wantMatch {
				t.Errorf("MatchingText = %q, want %q", results[0].MatchingText, tt.wantMatch)
			}
		})
	}
}

func TestSnippet(t *testing.T) {
	long := strings.Repeat("a", 60) + "NEEDLE" + strings.Repeat("b", 60)

	tests := []struct {
		name   string
		text   string
		query  string
		want   string
		wantOK bool
	}{
		{name: "short text", text: "find the needle here", query: "needle", want: "find the needle here", wantOK: true},
		{
			name:   "both ends cut",
			text:   long,
			query:  "needle",
			want:   "..." + strings.Repeat("a", 50) + "NEEDLE" + strings.Repeat("b", 50) + "...",
			wantOK: true,
		},
		{name: "multibyte context", text: "ééé needle ééé", query: "NEEDLE", want: "ééé needle ééé", wantOK: true},
		{name: "missing", text: "haystack", query: "needle", wantOK: false},
		{name: "empty text", text: "", query: "x", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Snippet(tt.text, tt.query)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Snippet() = %q, %v, want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
