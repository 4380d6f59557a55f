package internal

import (
	"context"
	"path/filepath"
)

// Attribution methods, from most to least reliable.
const (
	AttributedByListing       = "composer-listing"
	AttributedByProjectLayout = "project-layout"
	Unattributed              = "unattributed"
)

// Attribution ties a conversation to a workspace and says how.
type Attribution struct {
	WorkspaceID string `json:"workspaceId,omitempty"`
	Folder      string `json:"folder,omitempty"`
	Method      string `json:"method"`
}

// Attributor maps conversation ids to workspaces. The authoritative source is
// each workspace's composer listing; project layout paths recorded in message
// contexts are a secondary match on the workspace folder. Anything else stays
// unattributed.
type Attributor struct {
	byComposer map[string]WorkspaceInfo
	byFolder   map[string]WorkspaceInfo
	contexts   map[string][]*MessageContext
}

// NewAttributor builds an Attributor over workspaces. contexts may be nil.
func NewAttributor(ctx context.Context, workspaces []WorkspaceInfo, contexts map[string][]*MessageContext) *Attributor {
	a := &Attributor{
		byComposer: make(map[string]WorkspaceInfo),
		byFolder:   make(map[string]WorkspaceInfo),
		contexts:   contexts,
	}
	for _, ws := range workspaces {
		if ws.Folder != "" {
			a.byFolder[filepath.Clean(folderPath(ws.Folder))] = ws
		}
		store, err := OpenRecordStore(ctx, ws.Path)
		if err != nil {
			continue
		}
		composers, err := LoadComposerList(ctx, store)
		store.Close()
		if err != nil {
			continue
		}
		for _, c := range composers {
			a.byComposer[c.ComposerID] = ws
		}
	}
	return a
}

// Attribute returns the workspace of a conversation.
func (a *Attributor) Attribute(conversationID string) Attribution {
	if ws, ok := a.byComposer[conversationID]; ok {
		return Attribution{WorkspaceID: ws.ID, Folder: ws.Folder, Method: AttributedByListing}
	}
	for _, mc := range a.contexts[conversationID] {
		for _, layout := range mc.ProjectLayouts {
			if ws, ok := a.byFolder[filepath.Clean(folderPath(layout))]; ok {
				return Attribution{WorkspaceID: ws.ID, Folder: ws.Folder, Method: AttributedByProjectLayout}
			}
		}
	}
	return Attribution{Method: Unattributed}
}
