package internal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Role is the author of a record.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleUnknown   Role = "unknown"
)

// Flags summarizes which rich payloads a record carries.
type Flags struct {
	HasText          bool `json:"text"`
	HasCode          bool `json:"codeBlocks"`
	HasToolResults   bool `json:"toolResults"`
	HasAttachedFiles bool `json:"attachedFiles"`
	HasGitDiffs      bool `json:"gitDiffs"`
	HasLints         bool `json:"lints"`
}

// CodeBlock is a code snippet embedded in a record.
type CodeBlock struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	Filename string `json:"filename,omitempty"`
}

// ToolResult is the outcome of a tool invocation.
type ToolResult struct {
	Tool     string  `json:"tool"`
	Output   string  `json:"output"`
	Success  bool    `json:"success"`
	Duration float64 `json:"duration,omitempty"`
	Command  string  `json:"command,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// AttachedFile is a code chunk the user attached to a message.
type AttachedFile struct {
	Filename  string `json:"filename"`
	Content   string `json:"content"`
	StartLine int    `json:"startLine,omitempty"`
	EndLine   int    `json:"endLine,omitempty"`
}

// GitDiff is a diff included as context.
type GitDiff struct {
	Filename string `json:"filename"`
	Diff     string `json:"diff"`
	Type     string `json:"type"`
}

// Lint is a diagnostic included as context.
type Lint struct {
	Filename string `json:"filename"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Line     int    `json:"line,omitempty"`
}

// ContextPiece is any other context fragment.
type ContextPiece struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Filename string `json:"filename,omitempty"`
}

// NormalizedRecord is the canonical form of one conversation record.
type NormalizedRecord struct {
	ConversationID string   `json:"conversationId"`
	RecordID       string   `json:"id"`
	RowID          int64    `json:"rowId"`
	Key            string   `json:"key"`
	Role           Role     `json:"role"`
	Text           string   `json:"text"`
	Flags          Flags    `json:"hasContent"`
	IsAgentic      bool     `json:"isAgentic"`
	Capabilities   []string `json:"capabilities"`
	TokenCount     int      `json:"tokenCount"`
	HasRichText    bool     `json:"hasRichText"`

	CodeBlocks          []CodeBlock    `json:"codeBlocks"`
	ToolResults         []ToolResult   `json:"toolResults"`
	AttachedFiles       []AttachedFile `json:"attachedFiles"`
	GitDiffs            []GitDiff      `json:"gitDiffs"`
	Lints               []Lint         `json:"lints"`
	ContextPieces       []ContextPiece `json:"contextPieces"`
	RecentlyViewedFiles []string       `json:"recentlyViewedFiles"`

	// ObservedAt is when the record was read, not when it was authored.
	ObservedAt time.Time `json:"observedAt"`

	Raw map[string]any `json:"-"`
}

// field names a logical field whose source key drifted across schema versions.
type field int

const (
	codeLanguage field = iota
	codeContent
	codeFilename
	toolName
	toolOutput
	toolCommand
	toolError
	attachedFilename
	attachedContent
	diffFilename
	diffContent
	diffType
	lintFilename
	lintMessage
	lintSeverity
	pieceType
	pieceContent
	pieceFilename
	viewedFilename
)

// fieldChain lists source keys in priority order and the value used when none
// of them holds a non-empty string.
type fieldChain struct {
	keys     []string
	fallback string
}

var fieldChains = map[field]fieldChain{
	codeLanguage:     {keys: []string{"language", "lang"}, fallback: "text"},
	codeContent:      {keys: []string{"code", "text", "content"}},
	codeFilename:     {keys: []string{"filename", "path", "uri"}},
	toolName:         {keys: []string{"tool", "name"}, fallback: "unknown"},
	toolOutput:       {keys: []string{"output", "text", "result"}},
	toolCommand:      {keys: []string{"command"}},
	toolError:        {keys: []string{"error"}},
	attachedFilename: {keys: []string{"filename", "path", "uri"}, fallback: "unknown"},
	attachedContent:  {keys: []string{"content", "text"}},
	diffFilename:     {keys: []string{"filename", "path", "uri"}, fallback: "unknown"},
	diffContent:      {keys: []string{"diff", "content"}},
	diffType:         {keys: []string{"type"}, fallback: "modified"},
	lintFilename:     {keys: []string{"filename", "path", "uri"}, fallback: "unknown"},
	lintMessage:      {keys: []string{"message", "text"}},
	lintSeverity:     {keys: []string{"severity"}, fallback: "info"},
	pieceType:        {keys: []string{"type"}, fallback: "unknown"},
	pieceContent:     {keys: []string{"content", "text"}},
	pieceFilename:    {keys: []string{"filename", "path", "uri"}},
	viewedFilename:   {keys: []string{"filename", "path", "uri"}, fallback: "unknown"},
}

// lookup resolves f against obj using its fallback chain.
func lookup(obj map[string]any, f field) string {
	chain := fieldChains[f]
	for _, k := range chain.keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return chain.fallback
}

// Normalize decodes one raw record. It fails only for a malformed key or a
// value that is not a JSON object; every other field degrades to its default.
// observedAt is recorded as-is so the same inputs always give the same output.
func Normalize(raw RawRecord, observedAt time.Time) (*NormalizedRecord, error) {
	key, err := ParseRecordKey(raw.Key)
	if err != nil {
		return nil, err
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw.Value), &obj); err != nil || obj == nil {
		if err == nil {
			err = fmt.Errorf("value is not a JSON object")
		}
		return nil, &ParseError{Source: "globalStorage", Key: raw.Key, Err: fmt.Errorf("%w: %v", ErrRecordParse, err)}
	}

	rec := &NormalizedRecord{
		ConversationID: key.ConversationID,
		RecordID:       key.RecordID,
		RowID:          raw.RowID,
		Key:            raw.Key,
		Role:           coerceRole(obj["type"]),
		Capabilities:   capabilities(obj["capabilities"]),
		TokenCount:     tokenCount(obj["tokenCount"]),
		ObservedAt:     observedAt,
		Raw:            obj,
	}

	rec.CodeBlocks = mapObjects(obj["codeBlocks"], func(m map[string]any) CodeBlock {
		return CodeBlock{
			Language: lookup(m, codeLanguage),
			Code:     lookup(m, codeContent),
			Filename: lookup(m, codeFilename),
		}
	})
	rec.ToolResults = mapObjects(obj["toolResults"], func(m map[string]any) ToolResult {
		success, isBool := m["success"].(bool)
		return ToolResult{
			Tool:     lookup(m, toolName),
			Output:   lookup(m, toolOutput),
			Success:  !isBool || success,
			Duration: number(m["duration"]),
			Command:  lookup(m, toolCommand),
			Error:    lookup(m, toolError),
		}
	})
	rec.AttachedFiles = mapObjects(obj["attachedCodeChunks"], func(m map[string]any) AttachedFile {
		return AttachedFile{
			Filename:  lookup(m, attachedFilename),
			Content:   lookup(m, attachedContent),
			StartLine: int(number(m["startLine"])),
			EndLine:   int(number(m["endLine"])),
		}
	})
	rec.GitDiffs = mapObjects(obj["gitDiffs"], func(m map[string]any) GitDiff {
		return GitDiff{
			Filename: lookup(m, diffFilename),
			Diff:     lookup(m, diffContent),
			Type:     lookup(m, diffType),
		}
	})
	rec.Lints = mapObjects(obj["lints"], func(m map[string]any) Lint {
		return Lint{
			Filename: lookup(m, lintFilename),
			Message:  lookup(m, lintMessage),
			Severity: lookup(m, lintSeverity),
			Line:     int(number(m["line"])),
		}
	})
	rec.ContextPieces = mapObjects(obj["contextPieces"], func(m map[string]any) ContextPiece {
		return ContextPiece{
			Type:     lookup(m, pieceType),
			Content:  lookup(m, pieceContent),
			Filename: lookup(m, pieceFilename),
		}
	})
	rec.RecentlyViewedFiles = viewedFiles(obj["recentlyViewedFiles"])

	if rt, ok := obj["richText"]; ok && rt != nil && rt != "" {
		rec.HasRichText = true
	}

	direct, _ := obj["text"].(string)
	agentic, _ := obj["isAgentic"].(bool)
	rec.Flags = Flags{
		HasText:          direct != "",
		HasCode:          len(rec.CodeBlocks) > 0,
		HasToolResults:   len(rec.ToolResults) > 0,
		HasAttachedFiles: len(rec.AttachedFiles) > 0,
		HasGitDiffs:      len(rec.GitDiffs) > 0,
		HasLints:         len(rec.Lints) > 0,
	}
	rec.IsAgentic = agentic

	rec.Text = extractText(obj, rec.CodeBlocks, rec.ToolResults)
	return rec, nil
}

// NormalizeBatch normalizes records in order, dropping and counting the ones
// that fail. It never returns an error for individual records.
func NormalizeBatch(records []RawRecord, observedAt time.Time) ([]*NormalizedRecord, ParseStats) {
	var stats ParseStats
	out := make([]*NormalizedRecord, 0, len(records))
	for _, raw := range records {
		rec, err := Normalize(raw, observedAt)
		stats.Record(err)
		if err != nil {
			LogDebug("skipping record %s: %v", raw.Key, err)
			continue
		}
		out = append(out, rec)
	}
	return out, stats
}

// coerceRole maps 1/"user" and 2/"assistant" to roles. Numeric strings are
// not coerced.
func coerceRole(v any) Role {
	switch t := v.(type) {
	case float64:
		switch t {
		case 1:
			return RoleUser
		case 2:
			return RoleAssistant
		}
	case string:
		switch t {
		case "user":
			return RoleUser
		case "assistant":
			return RoleAssistant
		}
	}
	return RoleUnknown
}

// mapObjects converts the object elements of an array. Absent, null and
// non-array values yield an empty slice; non-object elements are skipped.
func mapObjects[T any](v any, fn func(map[string]any) T) []T {
	arr, _ := v.([]any)
	out := make([]T, 0, len(arr))
	for _, el := range arr {
		if m, ok := el.(map[string]any); ok {
			out = append(out, fn(m))
		}
	}
	return out
}

func capabilities(v any) []string {
	arr, _ := v.([]any)
	out := make([]string, 0, len(arr))
	for _, el := range arr {
		switch t := el.(type) {
		case string:
			out = append(out, t)
		case float64:
			out = append(out, strconv.FormatFloat(t, 'f', -1, 64))
		case map[string]any:
			if name := capabilityName(t); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func capabilityName(m map[string]any) string {
	for _, k := range []string{"type", "name"} {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// tokenCount accepts a plain number or an {inputTokens, outputTokens} object.
func tokenCount(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case map[string]any:
		return int(number(t["inputTokens"]) + number(t["outputTokens"]))
	}
	return 0
}

func viewedFiles(v any) []string {
	arr, _ := v.([]any)
	out := make([]string, 0, len(arr))
	for _, el := range arr {
		switch t := el.(type) {
		case string:
			out = append(out, t)
		case map[string]any:
			out = append(out, lookup(t, viewedFilename))
		}
	}
	return out
}

func number(v any) float64 {
	f, _ := v.(float64)
	return f
}
