package internal

import "time"

// Transcript kinds.
const (
	KindChat         = "chat"
	KindComposer     = "composer"
	KindConversation = "conversation"
)

// Transcript is an exportable, ordered conversation: a chat tab, a composer,
// or a group of global bubbles.
type Transcript struct {
	ID              string              `json:"id" yaml:"id"`
	Kind            string              `json:"kind" yaml:"kind"`
	Title           string              `json:"title" yaml:"title"`
	WorkspaceID     string              `json:"workspaceId,omitempty" yaml:"workspace_id,omitempty"`
	WorkspaceFolder string              `json:"workspaceFolder,omitempty" yaml:"workspace_folder,omitempty"`
	CreatedAt       time.Time           `json:"createdAt,omitzero" yaml:"created_at,omitempty"`
	UpdatedAt       time.Time           `json:"updatedAt,omitzero" yaml:"updated_at,omitempty"`
	Messages        []TranscriptMessage `json:"messages" yaml:"messages"`
}

// TranscriptMessage is one turn of a transcript.
type TranscriptMessage struct {
	ID         string   `json:"id,omitempty" yaml:"id,omitempty"`
	Role       Role     `json:"role" yaml:"role"`
	Model      string   `json:"model,omitempty" yaml:"model,omitempty"`
	Content    string   `json:"content" yaml:"content"`
	Selections []string `json:"selections,omitempty" yaml:"selections,omitempty"`
	RowID      int64    `json:"rowId,omitempty" yaml:"row_id,omitempty"`
}

// DisplayTitle returns the title, or a generated one from the kind and id.
func (t *Transcript) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	switch t.Kind {
	case KindComposer:
		return "Composer " + shortID(t.ID)
	case KindConversation:
		return "Conversation " + shortID(t.ID)
	default:
		return "Chat " + shortID(t.ID)
	}
}

// Timestamp returns the most meaningful time of the transcript.
func (t *Transcript) Timestamp() time.Time {
	if !t.UpdatedAt.IsZero() {
		return t.UpdatedAt
	}
	return t.CreatedAt
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
