package tui

import (
	"context"
	"time"

	"github.com/iksnae/cursor-chat-browser/internal"
)

// Item is one browsable transcript.
type Item struct {
	Ref          internal.TranscriptRef
	Title        string
	Folder       string
	Updated      time.Time
	MessageCount int
}

// LoadItems lists chat tabs and composers of every workspace under root,
// newest first.
func LoadItems(ctx context.Context, root string) ([]Item, error) {
	logs, err := internal.Logs(ctx, root)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(logs))
	for _, l := range logs {
		items = append(items, Item{
			Ref:          internal.TranscriptRef{Kind: l.Type, ID: l.ID, WorkspaceID: l.WorkspaceID},
			Title:        l.Title,
			Folder:       l.WorkspaceFolder,
			Updated:      l.Timestamp,
			MessageCount: l.MessageCount,
		})
	}
	return items, nil
}
