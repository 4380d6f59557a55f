package internal

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestNormalize_Basic(t *testing.T) {
	raw := RawRecord{
		Key:   "bubbleId:conv1:rec1",
		RowID: 42,
		Value: `{"type":2,"text":"hi","isAgentic":true,"capabilities":["edit",{"type":7}],"tokenCount":{"inputTokens":3,"outputTokens":4}}`,
	}

	rec, err := Normalize(raw, testObservedAt)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if rec.ConversationID != "conv1" || rec.RecordID != "rec1" || rec.RowID != 42 {
		t.Errorf("Normalize() ids = %s/%s/%d, want conv1/rec1/42", rec.ConversationID, rec.RecordID, rec.RowID)
	}
	if rec.Role != RoleAssistant {
		t.Errorf("Role = %v, want %v", rec.Role, RoleAssistant)
	}
	if rec.Text != "hi" || !rec.Flags.HasText {
		t.Errorf("Text = %q HasText = %v, want hi/true", rec.Text, rec.Flags.HasText)
	}
	if !rec.IsAgentic {
		t.Error("IsAgentic = false, want true")
	}
	if !reflect.DeepEqual(rec.Capabilities, []string{"edit", "7"}) {
		t.Errorf("Capabilities = %v, want [edit 7]", rec.Capabilities)
	}
	if rec.TokenCount != 7 {
		t.Errorf("TokenCount = %d, want 7", rec.TokenCount)
	}
	if !rec.ObservedAt.Equal(testObservedAt) {
		t.Errorf("ObservedAt = %v, want %v", rec.ObservedAt, testObservedAt)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	raw := RawRecord{
		Key:   "bubbleId:c:r",
		RowID: 1,
		Value: `{"type":1,"richText":"{\"a\":{\"text\":\"x\"},\"b\":{\"text\":\"y\"}}","codeBlocks":[{"lang":"go","code":"x"}]}`,
	}

	first, err := Normalize(raw, testObservedAt)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	for range 5 {
		again, err := Normalize(raw, testObservedAt)
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Normalize() not deterministic:\n%+v\n%+v", first, again)
		}
	}
}

func TestNormalize_TextFallback(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{
			name:  "code blocks joined by blank line",
			value: `{"type":2,"text":"","codeBlocks":[{"code":"a"},{"content":"b"}]}`,
			want:  "a\n\nb",
		},
		{
			name:  "tool outputs after code",
			value: `{"type":2,"toolResults":[{"output":"ran"},{"result":"done"}]}`,
			want:  "ran\n\ndone",
		},
		{
			name:  "nothing to show",
			value: `{"type":2}`,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Normalize(RawRecord{Key: "bubbleId:c:r", Value: tt.value}, testObservedAt)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if rec.Text != tt.want {
				t.Errorf("Text = %q, want %q", rec.Text, tt.want)
			}
			if rec.Flags.HasText {
				t.Error("HasText = true for a record without direct text")
			}
		})
	}
}

func TestNormalize_RoleCoercion(t *testing.T) {
	tests := []struct {
		value string
		want  Role
	}{
		{`{"type":1}`, RoleUser},
		{`{"type":2}`, RoleAssistant},
		{`{"type":"user"}`, RoleUser},
		{`{"type":"assistant"}`, RoleAssistant},
		{`{"type":"ai"}`, RoleUnknown},
		{`{"type":"1"}`, RoleUnknown},
		{`{"type":3}`, RoleUnknown},
		{`{"type":null}`, RoleUnknown},
		{`{}`, RoleUnknown},
	}

	for _, tt := range tests {
		rec, err := Normalize(RawRecord{Key: "bubbleId:c:r", Value: tt.value}, testObservedAt)
		if err != nil {
			t.Fatalf("Normalize(%s) error = %v", tt.value, err)
		}
		if rec.Role != tt.want {
			t.Errorf("Normalize(%s).Role = %v, want %v", tt.value, rec.Role, tt.want)
		}
	}
}

func TestNormalize_FieldChains(t *testing.T) {
	value := `{
		"type": 2,
		"codeBlocks": [{"lang": "py", "text": "print()", "path": "a.py"}, {}, "skip"],
		"toolResults": [{"name": "grep", "result": "3 hits", "success": false}, {}],
		"attachedCodeChunks": [{"uri": "b.go", "text": "x", "startLine": 4, "endLine": 9}],
		"gitDiffs": [{"path": "c.go", "content": "+x"}],
		"lints": [{"message": "unused", "line": 7}],
		"contextPieces": [{"text": "note"}],
		"recentlyViewedFiles": ["d.go", {"uri": "e.go"}, {}]
	}`

	rec, err := Normalize(RawRecord{Key: "bubbleId:c:r", Value: value}, testObservedAt)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	wantBlocks := []CodeBlock{
		{Language: "py", Code: "print()", Filename: "a.py"},
		{Language: "text"},
	}
	if !reflect.DeepEqual(rec.CodeBlocks, wantBlocks) {
		t.Errorf("CodeBlocks = %+v, want %+v", rec.CodeBlocks, wantBlocks)
	}

	wantTools := []ToolResult{
		{Tool: "grep", Output: "3 hits", Success: false},
		{Tool: "unknown", Success: true},
	}
	if !reflect.DeepEqual(rec.ToolResults, wantTools) {
		t.Errorf("ToolResults = %+v, want %+v", rec.ToolResults, wantTools)
	}

	wantFiles := []AttachedFile{{Filename: "b.go", Content: "x", StartLine: 4, EndLine: 9}}
	if !reflect.DeepEqual(rec.AttachedFiles, wantFiles) {
		t.Errorf("AttachedFiles = %+v, want %+v", rec.AttachedFiles, wantFiles)
	}

	wantDiffs := []GitDiff{{Filename: "c.go", Diff: "+x", Type: "modified"}}
	if !reflect.DeepEqual(rec.GitDiffs, wantDiffs) {
		t.Errorf("GitDiffs = %+v, want %+v", rec.GitDiffs, wantDiffs)
	}

	wantLints := []Lint{{Filename: "unknown", Message: "unused", Severity: "info", Line: 7}}
	if !reflect.DeepEqual(rec.Lints, wantLints) {
		t.Errorf("Lints = %+v, want %+v", rec.Lints, wantLints)
	}

	wantPieces := []ContextPiece{{Type: "unknown", Content: "note"}}
	if !reflect.DeepEqual(rec.ContextPieces, wantPieces) {
		t.Errorf("ContextPieces = %+v, want %+v", rec.ContextPieces, wantPieces)
	}

	wantViewed := []string{"d.go", "e.go", "unknown"}
	if !reflect.DeepEqual(rec.RecentlyViewedFiles, wantViewed) {
		t.Errorf("RecentlyViewedFiles = %v, want %v", rec.RecentlyViewedFiles, wantViewed)
	}

	wantFlags := Flags{HasCode: true, HasToolResults: true, HasAttachedFiles: true, HasGitDiffs: true, HasLints: true}
	if rec.Flags != wantFlags {
		t.Errorf("Flags = %+v, want %+v", rec.Flags, wantFlags)
	}
	if rec.Text != "print()" {
		t.Errorf("Text = %q, want code block content", rec.Text)
	}
}

func TestNormalize_MissingArraysAreEmpty(t *testing.T) {
	rec, err := Normalize(RawRecord{Key: "bubbleId:c:r", Value: `{"codeBlocks":null,"lints":"nope"}`}, testObservedAt)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if rec.CodeBlocks == nil || len(rec.CodeBlocks) != 0 {
		t.Errorf("CodeBlocks = %#v, want empty slice", rec.CodeBlocks)
	}
	if rec.Lints == nil || len(rec.Lints) != 0 {
		t.Errorf("Lints = %#v, want empty slice", rec.Lints)
	}
	if rec.Capabilities == nil {
		t.Error("Capabilities = nil, want empty slice")
	}
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		raw     RawRecord
		wantErr error
	}{
		{name: "malformed key", raw: RawRecord{Key: "bubbleId:only", Value: `{}`}, wantErr: ErrMalformedKey},
		{name: "invalid JSON", raw: RawRecord{Key: "bubbleId:c:r", Value: `{`}, wantErr: ErrRecordParse},
		{name: "JSON array", raw: RawRecord{Key: "bubbleId:c:r", Value: `[1,2]`}, wantErr: ErrRecordParse},
		{name: "JSON null", raw: RawRecord{Key: "bubbleId:c:r", Value: `null`}, wantErr: ErrRecordParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw, testObservedAt)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Normalize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeBatch_DropsMalformed(t *testing.T) {
	records := []RawRecord{
		{Key: "bubbleId:c:1", RowID: 1, Value: `{"type":1,"text":"a"}`},
		{Key: "bubbleId:c:2", RowID: 2, Value: `not json`},
		{Key: "bubbleId:c:3", RowID: 3, Value: `{"type":2,"text":"b"}`},
		{Key: "bubbleId:bad", RowID: 4, Value: `{}`},
		{Key: "bubbleId:c:5", RowID: 5, Value: `{"type":1,"text":"c"}`},
	}

	out, stats := NormalizeBatch(records, time.Unix(0, 0))
	if len(out) != 3 {
		t.Fatalf("NormalizeBatch() returned %d records, want 3", len(out))
	}
	for i, want := range []int64{1, 3, 5} {
		if out[i].RowID != want {
			t.Errorf("NormalizeBatch()[%d].RowID = %d, want %d", i, out[i].RowID, want)
		}
	}
	want := ParseStats{Parsed: 3, ParseFailures: 1, MalformedKeys: 1}
	if stats != want {
		t.Errorf("NormalizeBatch() stats = %+v, want %+v", stats, want)
	}
}
