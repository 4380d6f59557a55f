package internal

import "testing"

func TestScoreRecord(t *testing.T) {
	rec := NewTestRecord("c", "1", 1, RoleAssistant, "text")
	rec.ToolResults = []ToolResult{{Tool: "t"}}
	rec.CodeBlocks = []CodeBlock{{Code: "x"}}
	rec.AttachedFiles = []AttachedFile{{Filename: "f"}}
	rec.GitDiffs = []GitDiff{{Filename: "f"}}
	rec.Lints = []Lint{{Message: "m"}}
	rec.Capabilities = []string{"edit"}

	if got := ScoreRecord(rec); got != 29 {
		t.Errorf("ScoreRecord() = %d, want 29", got)
	}
	if got := ScoreRecord(NewTestRecord("c", "2", 2, RoleUser, "")); got != 0 {
		t.Errorf("ScoreRecord(empty) = %d, want 0", got)
	}
}

func TestSelectActive(t *testing.T) {
	tests := []struct {
		name     string
		records  []*NormalizedRecord
		strategy ScoreStrategy
		wantID   string
		wantOK   bool
	}{
		{
			name: "all zero scores",
			records: []*NormalizedRecord{
				NewTestRecord("a", "1", 1, RoleUser, ""),
				NewTestRecord("b", "2", 2, RoleUser, ""),
			},
			strategy: ScoreContent,
			wantOK:   false,
		},
		{
			name: "higher content score wins",
			records: func() []*NormalizedRecord {
				// a: two text records with a lint = 22; b: one text with a diff = 13.
				a1 := NewTestRecord("a", "1", 1, RoleUser, "q")
				a2 := NewTestRecord("a", "2", 2, RoleAssistant, "r")
				a2.Lints = []Lint{{Message: "m"}}
				b1 := NewTestRecord("b", "3", 3, RoleUser, "s")
				b1.GitDiffs = []GitDiff{{Filename: "f"}}
				return []*NormalizedRecord{a1, a2, b1}
			}(),
			strategy: ScoreContent,
			wantID:   "a",
			wantOK:   true,
		},
		{
			name: "tie keeps first seen",
			records: []*NormalizedRecord{
				NewTestRecord("x", "1", 1, RoleUser, "one"),
				NewTestRecord("y", "2", 2, RoleUser, "two"),
			},
			strategy: ScoreContent,
			wantID:   "x",
			wantOK:   true,
		},
		{
			name: "text count strategy",
			records: func() []*NormalizedRecord {
				a := NewTestRecord("a", "1", 1, RoleUser, "")
				a.CodeBlocks = []CodeBlock{{Code: "x"}}
				a.ToolResults = []ToolResult{{Tool: "t"}}
				return []*NormalizedRecord{
					a,
					NewTestRecord("b", "2", 2, RoleUser, "hi"),
				}
			}(),
			strategy: ScoreTextCount,
			wantID:   "b",
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectActive(GroupByConversation(tt.records), tt.strategy)
			if ok != tt.wantOK {
				t.Fatalf("SelectActive() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.ConversationID != tt.wantID {
				t.Errorf("SelectActive() = %q, want %q", got.ConversationID, tt.wantID)
			}
		})
	}
}

func TestSelectActive_ScoresTwelveOverSeven(t *testing.T) {
	// One conversation scores 12 and the other 7.
	x := NewTestRecord("x", "1", 1, RoleUser, "")
	x.CodeBlocks = []CodeBlock{{Code: "a"}}
	x.Capabilities = []string{"c"}
	x2 := NewTestRecord("x", "2", 2, RoleUser, "")
	x2.AttachedFiles = []AttachedFile{{Filename: "f"}}
	x2.Lints = []Lint{{Message: "m"}}
	x2.Capabilities = []string{"c"}

	y := NewTestRecord("y", "3", 3, RoleUser, "")
	y.CodeBlocks = []CodeBlock{{Code: "b"}}
	y.Lints = []Lint{{Message: "m"}}

	groups := GroupByConversation([]*NormalizedRecord{y, x, x2})
	got, ok := SelectActive(groups, ScoreContent)
	if !ok {
		t.Fatal("SelectActive() ok = false, want true")
	}
	if got.ConversationID != "x" || got.Score != 12 {
		t.Errorf("SelectActive() = %s/%d, want x/12", got.ConversationID, got.Score)
	}
	if s := Score(groups.Groups["y"], ScoreContent); s != 7 {
		t.Errorf("Score(y) = %d, want 7", s)
	}
}

func TestParseScoreStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    ScoreStrategy
		wantErr bool
	}{
		{in: "", want: ScoreContent},
		{in: "content", want: ScoreContent},
		{in: "text-count", want: ScoreTextCount},
		{in: "other", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseScoreStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseScoreStrategy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseScoreStrategy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
