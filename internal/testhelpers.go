package internal

import (
	"time"
)

// testObservedAt is the read time used by test records.
var testObservedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// CreateTestTranscript creates a composer transcript with one exchange.
func CreateTestTranscript(id string) *Transcript {
	return &Transcript{
		ID:              id,
		Kind:            KindComposer,
		Title:           "Test Conversation",
		WorkspaceID:     "test-workspace",
		WorkspaceFolder: "/path/to/project",
		CreatedAt:       testObservedAt,
		Messages: []TranscriptMessage{
			{ID: "b1", Role: RoleUser, Content: "Hello, how are you?", Selections: []string{"func main() {}"}},
			{ID: "b2", Role: RoleAssistant, Model: "gpt-4", Content: "I'm doing well, thank you!"},
		},
	}
}

// CreateTestTranscriptWithMessages creates a transcript with custom messages.
func CreateTestTranscriptWithMessages(id string, messages []TranscriptMessage) *Transcript {
	return &Transcript{
		ID:       id,
		Kind:     KindConversation,
		Messages: messages,
	}
}

// NewTestRecord creates a normalized record with the given text.
func NewTestRecord(conversationID, recordID string, rowID int64, role Role, text string) *NormalizedRecord {
	return &NormalizedRecord{
		ConversationID: conversationID,
		RecordID:       recordID,
		RowID:          rowID,
		Key:            BubbleKey(conversationID, recordID),
		Role:           role,
		Text:           text,
		Flags:          Flags{HasText: text != ""},
		Capabilities:   []string{},
		CodeBlocks:     []CodeBlock{},
		ToolResults:    []ToolResult{},
		AttachedFiles:  []AttachedFile{},
		GitDiffs:       []GitDiff{},
		Lints:          []Lint{},
		ContextPieces:  []ContextPiece{},
		ObservedAt:     testObservedAt,
	}
}

// CreateTestRawComposer creates a composer listing entry.
func CreateTestRawComposer(composerID, name string) *RawComposer {
	return &RawComposer{
		ComposerID:    composerID,
		Name:          name,
		CreatedAt:     testObservedAt.UnixMilli(),
		LastUpdatedAt: testObservedAt.UnixMilli(),
	}
}
