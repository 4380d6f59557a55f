package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/cursor-chat-browser/internal"
)

// JSONLExporter exports transcripts in JSONL format (one message per line)
type JSONLExporter struct{}

type jsonlLine struct {
	ConversationID string        `json:"conversationId"`
	ID             string        `json:"id,omitempty"`
	Role           internal.Role `json:"role"`
	Model          string        `json:"model,omitempty"`
	Content        string        `json:"content"`
	Selections     []string      `json:"selections,omitempty"`
}

// Export exports a transcript to JSONL format
func (e *JSONLExporter) Export(t *internal.Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range t.Messages {
		line := jsonlLine{
			ConversationID: t.ID,
			ID:             msg.ID,
			Role:           msg.Role,
			Model:          msg.Model,
			Content:        msg.Content,
			Selections:     msg.Selections,
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}

// ContentType returns the MIME type for this format
func (e *JSONLExporter) ContentType() string {
	return "application/x-ndjson"
}
