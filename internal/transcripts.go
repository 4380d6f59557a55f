package internal

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TranscriptRef names an exportable transcript. WorkspaceID is required for
// chat tabs, which live in a workspace store.
type TranscriptRef struct {
	Kind        string
	ID          string
	WorkspaceID string
}

// Sources locates the stores transcripts are read from.
type Sources struct {
	WorkspaceRoot string
	GlobalDB      string
}

// LoadTranscript reads the transcript ref points at.
func LoadTranscript(ctx context.Context, src Sources, ref TranscriptRef, now time.Time) (*Transcript, error) {
	if ref.ID == "" {
		return nil, errors.New("missing transcript id")
	}

	switch ref.Kind {
	case KindChat, "":
		if ref.WorkspaceID == "" {
			return nil, errors.New("chat tabs need a workspace id")
		}
		data, err := LoadWorkspaceData(ctx, src.WorkspaceRoot, ref.WorkspaceID, "")
		if err != nil {
			return nil, err
		}
		tab, ok := FindTab(data.Tabs, ref.ID)
		if !ok {
			return nil, fmt.Errorf("chat %s: %w", ref.ID, ErrConversationNotFound)
		}
		return TabTranscript(data.Workspace, tab), nil

	case KindComposer:
		store, err := OpenRecordStore(ctx, src.GlobalDB)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		r := NewReconstructor(store, now)
		composer, err := r.LoadComposer(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		t, stats, err := r.ReconstructConversation(ctx, composer)
		if err != nil {
			return nil, err
		}
		if stats.Skipped() > 0 {
			LogDebug("composer %s: skipped %d records", ref.ID, stats.Skipped())
		}
		if ref.WorkspaceID != "" {
			if ws, err := GetWorkspace(ctx, src.WorkspaceRoot, ref.WorkspaceID); err == nil {
				t.WorkspaceID, t.WorkspaceFolder = ws.ID, ws.Folder
			}
		}
		return t, nil

	case KindConversation:
		store, err := OpenRecordStore(ctx, src.GlobalDB)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		raws, err := store.ListByPrefix(ctx, BubblePrefix+ref.ID+":")
		if err != nil {
			return nil, err
		}
		records, _ := NormalizeBatch(raws, now)
		if len(records) == 0 {
			return nil, fmt.Errorf("conversation %s: %w", ref.ID, ErrConversationNotFound)
		}
		return ConversationTranscript(ref.ID, records), nil
	}
	return nil, fmt.Errorf("unknown transcript kind %q", ref.Kind)
}

// AttributeConversations builds an Attributor over every workspace under root
// using the message contexts of the global store.
func AttributeConversations(ctx context.Context, root string, global *RecordStore) (*Attributor, error) {
	workspaces, err := ListWorkspaces(ctx, root)
	if err != nil {
		return nil, err
	}
	contexts, err := global.LoadMessageContexts(ctx)
	if err != nil {
		LogDebug("message contexts unavailable: %v", err)
		contexts = nil
	}
	return NewAttributor(ctx, workspaces, contexts), nil
}
