package internal

import (
	"fmt"
	"strings"
	"time"
)

// MetadataLevel selects how much per-record detail a view carries.
type MetadataLevel string

const (
	MetadataBasic MetadataLevel = "basic"
	MetadataFull  MetadataLevel = "full"
	MetadataRaw   MetadataLevel = "raw"
)

// ParseMetadataLevel validates a level name. Empty selects MetadataFull.
func ParseMetadataLevel(s string) (MetadataLevel, error) {
	switch MetadataLevel(s) {
	case "", MetadataFull:
		return MetadataFull, nil
	case MetadataBasic:
		return MetadataBasic, nil
	case MetadataRaw:
		return MetadataRaw, nil
	}
	return "", fmt.Errorf("unknown metadata level %q (want basic, full or raw)", s)
}

// RecordMetadata is the metadata block of a record view.
type RecordMetadata struct {
	HasContent   Flags    `json:"hasContent"`
	IsAgentic    bool     `json:"isAgentic"`
	TokenCount   int      `json:"tokenCount"`
	Capabilities []string `json:"capabilities"`

	CodeBlocks          []CodeBlock    `json:"codeBlocks,omitempty"`
	ToolResults         []ToolResult   `json:"toolResults,omitempty"`
	AttachedFiles       []AttachedFile `json:"attachedFiles,omitempty"`
	GitDiffs            []GitDiff      `json:"gitDiffs,omitempty"`
	Lints               []Lint         `json:"lints,omitempty"`
	RecentlyViewedFiles []string       `json:"recentlyViewedFiles,omitempty"`
	ContextPieces       []ContextPiece `json:"contextPieces,omitempty"`
}

// RecordView is the response shape of one record.
type RecordView struct {
	ID         string          `json:"id"`
	Key        string          `json:"key"`
	RowID      int64           `json:"rowId"`
	Role       Role            `json:"role"`
	Text       string          `json:"text"`
	ObservedAt time.Time       `json:"observedAt"`
	Metadata   *RecordMetadata `json:"metadata,omitempty"`
	Raw        map[string]any  `json:"raw,omitempty"`
}

// NewRecordView shapes rec for level. basic carries flags and counters, full
// adds the rich payloads, raw adds the decoded source object.
func NewRecordView(rec *NormalizedRecord, level MetadataLevel) RecordView {
	v := RecordView{
		ID:         rec.RecordID,
		Key:        rec.Key,
		RowID:      rec.RowID,
		Role:       rec.Role,
		Text:       rec.Text,
		ObservedAt: rec.ObservedAt,
		Metadata: &RecordMetadata{
			HasContent:   rec.Flags,
			IsAgentic:    rec.IsAgentic,
			TokenCount:   rec.TokenCount,
			Capabilities: rec.Capabilities,
		},
	}

	switch level {
	case MetadataFull:
		m := v.Metadata
		m.CodeBlocks = rec.CodeBlocks
		m.ToolResults = rec.ToolResults
		m.AttachedFiles = rec.AttachedFiles
		m.GitDiffs = rec.GitDiffs
		m.Lints = rec.Lints
		m.RecentlyViewedFiles = rec.RecentlyViewedFiles
		m.ContextPieces = rec.ContextPieces
	case MetadataRaw:
		v.Raw = rec.Raw
	}
	return v
}

// NewRecordViews shapes every record.
func NewRecordViews(records []*NormalizedRecord, level MetadataLevel) []RecordView {
	views := make([]RecordView, 0, len(records))
	for _, rec := range records {
		views = append(views, NewRecordView(rec, level))
	}
	return views
}

// RecordSeparator separates records in text output.
const RecordSeparator = "\n\n---\n\n"

// RenderText renders records as "[ROLE] text" blocks. At the full level each
// block is followed by one indented line per payload kind present.
func RenderText(records []*NormalizedRecord, level MetadataLevel) string {
	blocks := make([]string, 0, len(records))
	for _, rec := range records {
		var b strings.Builder
		fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(string(rec.Role)), rec.Text)

		if level == MetadataFull {
			if n := len(rec.CodeBlocks); n > 0 {
				fmt.Fprintf(&b, "\n  📝 Code blocks: %d", n)
			}
			if n := len(rec.ToolResults); n > 0 {
				fmt.Fprintf(&b, "\n  🔧 Tool results: %d", n)
			}
			if n := len(rec.AttachedFiles); n > 0 {
				fmt.Fprintf(&b, "\n  📎 Attached files: %d", n)
			}
			if n := len(rec.GitDiffs); n > 0 {
				fmt.Fprintf(&b, "\n  📊 Git diffs: %d", n)
			}
			if n := len(rec.Lints); n > 0 {
				fmt.Fprintf(&b, "\n  ⚠️  Lint issues: %d", n)
			}
			if rec.IsAgentic {
				b.WriteString("\n  🤖 Agentic: true")
			}
			if rec.TokenCount > 0 {
				fmt.Fprintf(&b, "\n  📊 Tokens: %d", rec.TokenCount)
			}
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, RecordSeparator)
}
