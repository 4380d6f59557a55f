package internal

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// RawRecord is one row of cursorDiskKV as read from the store.
// RowID is the SQLite rowid and the only trusted ordering signal.
type RawRecord struct {
	Key   string `json:"key"`
	RowID int64  `json:"rowId"`
	Value string `json:"value"`
}

// RecordKey is a parsed <prefix>:<conversationId>:<recordId> key.
type RecordKey struct {
	Prefix         string
	ConversationID string
	RecordID       string
}

// ParseRecordKey splits a three-segment record key. Keys with fewer than
// three segments, or with an empty conversation or record id, are malformed.
// Colons after the second separator belong to the record id, so
// "bubbleId:c:r:extra" has record id "r:extra".
func ParseRecordKey(key string) (RecordKey, error) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 3 || parts[1] == "" || parts[2] == "" {
		return RecordKey{}, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}
	return RecordKey{Prefix: parts[0], ConversationID: parts[1], RecordID: parts[2]}, nil
}

// BubbleKey builds the cursorDiskKV key of a bubble.
func BubbleKey(conversationID, recordID string) string {
	return BubblePrefix + conversationID + ":" + recordID
}

// RawComposer represents composer data from the database
type RawComposer struct {
	ComposerID                  string               `json:"composerId"`
	Name                        string               `json:"name,omitempty"`
	Text                        string               `json:"text,omitempty"`
	FullConversationHeadersOnly []ConversationHeader `json:"fullConversationHeadersOnly,omitempty"`
	Conversation                []json.RawMessage    `json:"conversation,omitempty"`
	LastUpdatedAt               int64                `json:"lastUpdatedAt,omitempty"`
	CreatedAt                   int64                `json:"createdAt,omitempty"`
}

// ConversationHeader represents a header in a conversation
type ConversationHeader struct {
	BubbleID string `json:"bubbleId"`
	Type     int    `json:"type"` // 1=user, 2=assistant
}

// MessageContext represents context data for a message
type MessageContext struct {
	BubbleID       string   `json:"bubbleId"`
	ComposerID     string   `json:"composerId"`
	ContextID      string   `json:"contextId"`
	GitStatusRaw   string   `json:"gitStatusRaw,omitempty"`
	TerminalFiles  []string `json:"terminalFiles,omitempty"`
	ProjectLayouts []string `json:"projectLayouts,omitempty"`
}

// ParseRawComposer parses a composerData:<composerId> record.
func ParseRawComposer(key, value string) (*RawComposer, error) {
	id, ok := strings.CutPrefix(key, ComposerPrefix)
	if !ok || id == "" || strings.Contains(id, ":") {
		return nil, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}

	var composer RawComposer
	if err := json.Unmarshal([]byte(value), &composer); err != nil {
		return nil, &ParseError{Source: "globalStorage", Key: key, Err: fmt.Errorf("%w: %v", ErrRecordParse, err)}
	}

	composer.ComposerID = id
	return &composer, nil
}

// ParseMessageContext parses a messageRequestContext:<composerId>:<contextId> record.
func ParseMessageContext(key, value string) (*MessageContext, error) {
	rk, err := ParseRecordKey(key)
	if err != nil {
		return nil, err
	}

	var mc MessageContext
	if err := json.Unmarshal([]byte(value), &mc); err != nil {
		return nil, &ParseError{Source: "globalStorage", Key: key, Err: fmt.Errorf("%w: %v", ErrRecordParse, err)}
	}

	mc.ComposerID = rk.ConversationID
	mc.ContextID = rk.RecordID
	return &mc, nil
}

// Headers returns the composer's ordered bubble headers. Older composers
// inline their bubbles in conversation[] instead of listing headers.
func (rc *RawComposer) Headers() []ConversationHeader {
	if len(rc.FullConversationHeadersOnly) > 0 {
		return rc.FullConversationHeadersOnly
	}
	headers := make([]ConversationHeader, 0, len(rc.Conversation))
	for _, raw := range rc.Conversation {
		var h ConversationHeader
		if err := json.Unmarshal(raw, &h); err != nil || h.BubbleID == "" {
			continue
		}
		headers = append(headers, h)
	}
	return headers
}

// MessageCount returns the number of bubbles the composer references.
func (rc *RawComposer) MessageCount() int {
	if n := len(rc.FullConversationHeadersOnly); n > 0 {
		return n
	}
	return len(rc.Conversation)
}

// GetCreatedAt returns the creation time, zero if unknown.
func (rc *RawComposer) GetCreatedAt() time.Time {
	return millisToTime(rc.CreatedAt)
}

// GetLastUpdatedAt returns the last update time, falling back to creation time.
func (rc *RawComposer) GetLastUpdatedAt() time.Time {
	if rc.LastUpdatedAt == 0 {
		return rc.GetCreatedAt()
	}
	return millisToTime(rc.LastUpdatedAt)
}

func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func sortByRowID(records []RawRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RowID < records[j].RowID
	})
}
