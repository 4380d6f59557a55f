package internal

import (
	"context"
	"sort"
	"time"
)

// LogEntry is one chat tab or composer in the activity log.
type LogEntry struct {
	ID              string    `json:"id"`
	WorkspaceID     string    `json:"workspaceId"`
	WorkspaceFolder string    `json:"workspaceFolder,omitempty"`
	Title           string    `json:"title"`
	Timestamp       time.Time `json:"timestamp,omitzero"`
	Type            string    `json:"type"`
	MessageCount    int       `json:"messageCount"`
}

// Logs lists chat tabs and composers of every workspace under root, newest
// first. Entries without a known time sort last.
func Logs(ctx context.Context, root string) ([]LogEntry, error) {
	workspaces, err := ListWorkspaces(ctx, root)
	if err != nil {
		return nil, err
	}

	logs := []LogEntry{}
	for _, ws := range workspaces {
		store, err := OpenRecordStore(ctx, ws.Path)
		if err != nil {
			continue
		}

		if tabs, err := LoadTabs(ctx, store); err == nil {
			for _, tab := range tabs {
				logs = append(logs, LogEntry{
					ID:              tab.ID,
					WorkspaceID:     ws.ID,
					WorkspaceFolder: ws.Folder,
					Title:           tab.Title,
					Timestamp:       tab.Timestamp,
					Type:            KindChat,
					MessageCount:    len(tab.Bubbles),
				})
			}
		}

		if composers, err := LoadComposerList(ctx, store); err == nil {
			for _, c := range composers {
				title := c.Text
				if title == "" {
					title = c.Name
				}
				if title == "" {
					title = "Composer " + shortID(c.ComposerID)
				}
				logs = append(logs, LogEntry{
					ID:              c.ComposerID,
					WorkspaceID:     ws.ID,
					WorkspaceFolder: ws.Folder,
					Title:           title,
					Timestamp:       c.GetLastUpdatedAt(),
					Type:            KindComposer,
					MessageCount:    c.MessageCount(),
				})
			}
		}
		store.Close()
	}

	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
	return logs, nil
}
