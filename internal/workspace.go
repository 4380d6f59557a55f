package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const stateDBName = "state.vscdb"

// WorkspaceInfo represents one workspaceStorage/<hash> directory.
type WorkspaceInfo struct {
	ID            string    `json:"id"`
	Path          string    `json:"path"`
	Folder        string    `json:"folder,omitempty"`
	Name          string    `json:"name,omitempty"`
	LastModified  time.Time `json:"lastModified"`
	ChatCount     int       `json:"chatCount"`
	ComposerCount int       `json:"composerCount"`
}

// TabSelection is a code selection attached to a chat bubble.
type TabSelection struct {
	Text string `json:"text"`
}

// TabBubble is one message of a chat tab. Type is "user" or "ai".
type TabBubble struct {
	Type       string         `json:"type"`
	Text       string         `json:"text,omitempty"`
	ModelType  string         `json:"modelType,omitempty"`
	Selections []TabSelection `json:"selections,omitempty"`
}

// ChatTab is one "ask" conversation stored in a workspace.
type ChatTab struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Timestamp time.Time   `json:"timestamp,omitzero"`
	Bubbles   []TabBubble `json:"bubbles"`
}

// WorkspaceComposer is a composer listed by a workspace.
type WorkspaceComposer struct {
	*RawComposer
	WorkspaceID     string `json:"workspaceId"`
	WorkspaceFolder string `json:"workspaceFolder,omitempty"`
}

// WorkspaceData is everything a workspace holds.
type WorkspaceData struct {
	Workspace WorkspaceInfo  `json:"workspace"`
	Tabs      []ChatTab      `json:"tabs"`
	Composers []*RawComposer `json:"composers"`
	Stats     ParseStats     `json:"parseStats"`
}

type rawTab struct {
	TabID        string      `json:"tabId"`
	ChatTitle    string      `json:"chatTitle"`
	LastSendTime float64     `json:"lastSendTime"`
	Bubbles      []TabBubble `json:"bubbles"`
}

type rawChatData struct {
	Tabs []rawTab `json:"tabs"`
}

type rawComposerData struct {
	AllComposers []*RawComposer `json:"allComposers"`
}

// ListWorkspaces lists workspace directories under root that contain a
// state.vscdb. Workspaces whose store cannot be read are listed without
// counts.
func ListWorkspaces(ctx context.Context, root string) ([]WorkspaceInfo, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &WorkspaceError{WorkspaceID: root, Err: fmt.Errorf("%w: %v", ErrStoreUnavailable, err)}
	}

	var workspaces []WorkspaceInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := inspectWorkspace(ctx, root, entry.Name())
		if err != nil {
			LogDebug("Skipping %s: %v", entry.Name(), err)
			continue
		}
		workspaces = append(workspaces, *info)
	}

	sort.SliceStable(workspaces, func(i, j int) bool {
		return workspaces[i].LastModified.After(workspaces[j].LastModified)
	})
	return workspaces, nil
}

// GetWorkspace returns one workspace by id.
func GetWorkspace(ctx context.Context, root, id string) (*WorkspaceInfo, error) {
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return nil, &WorkspaceError{WorkspaceID: id, Err: ErrWorkspaceNotFound}
	}
	return inspectWorkspace(ctx, root, id)
}

func inspectWorkspace(ctx context.Context, root, id string) (*WorkspaceInfo, error) {
	dbPath := filepath.Join(root, id, stateDBName)
	stat, err := os.Stat(dbPath)
	if err != nil {
		return nil, &WorkspaceError{WorkspaceID: id, Err: ErrWorkspaceNotFound}
	}

	info := &WorkspaceInfo{ID: id, Path: dbPath, LastModified: stat.ModTime()}
	info.Folder = readWorkspaceFolder(filepath.Join(root, id))
	if info.Folder != "" {
		info.Name = filepath.Base(folderPath(info.Folder))
	}

	store, err := OpenRecordStore(ctx, dbPath)
	if err != nil {
		LogDebug("workspace %s: %v", id, err)
		return info, nil
	}
	defer store.Close()

	if tabs, err := LoadTabs(ctx, store); err == nil {
		info.ChatCount = len(tabs)
	}
	if composers, err := LoadComposerList(ctx, store); err == nil {
		info.ComposerCount = len(composers)
	}
	return info, nil
}

// readWorkspaceFolder returns the folder URI from workspace.json, or "".
func readWorkspaceFolder(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "workspace.json"))
	if err != nil {
		return ""
	}
	var ws struct {
		Folder string `json:"folder"`
	}
	if err := json.Unmarshal(data, &ws); err != nil {
		return ""
	}
	return ws.Folder
}

// folderPath strips a file:// scheme from a workspace folder URI.
func folderPath(folder string) string {
	return strings.TrimPrefix(folder, "file://")
}

// LoadTabs reads the chat tabs of a workspace store. A store without chat data
// has no tabs.
func LoadTabs(ctx context.Context, store *RecordStore) ([]ChatTab, error) {
	value, ok, err := store.ReadItem(ctx, ChatDataKey)
	if err != nil || !ok {
		return []ChatTab{}, err
	}

	var data rawChatData
	if err := json.Unmarshal([]byte(value), &data); err != nil {
		return nil, &ParseError{Source: "workspaceStorage", Key: ChatDataKey, Err: fmt.Errorf("%w: %v", ErrRecordParse, err)}
	}

	tabs := make([]ChatTab, 0, len(data.Tabs))
	for _, t := range data.Tabs {
		title, _, _ := strings.Cut(t.ChatTitle, "\n")
		if title == "" {
			title = "Chat " + shortID(t.TabID)
		}
		tab := ChatTab{ID: t.TabID, Title: title, Bubbles: t.Bubbles}
		if t.LastSendTime > 0 {
			tab.Timestamp = time.UnixMilli(int64(t.LastSendTime))
		}
		if tab.Bubbles == nil {
			tab.Bubbles = []TabBubble{}
		}
		tabs = append(tabs, tab)
	}
	return tabs, nil
}

// LoadComposerList reads the composer listing of a workspace store.
func LoadComposerList(ctx context.Context, store *RecordStore) ([]*RawComposer, error) {
	value, ok, err := store.ReadItem(ctx, ComposerDataKey)
	if err != nil || !ok {
		return []*RawComposer{}, err
	}

	var data rawComposerData
	if err := json.Unmarshal([]byte(value), &data); err != nil {
		return nil, &ParseError{Source: "workspaceStorage", Key: ComposerDataKey, Err: fmt.Errorf("%w: %v", ErrRecordParse, err)}
	}
	out := make([]*RawComposer, 0, len(data.AllComposers))
	for _, c := range data.AllComposers {
		if c != nil && c.ComposerID != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

// LoadWorkspaceData reads a workspace's tabs and its composers. Composer
// bodies come from the global store when it can be read; otherwise the
// workspace listing entries are returned as-is.
func LoadWorkspaceData(ctx context.Context, root, id, globalDB string) (*WorkspaceData, error) {
	info, err := GetWorkspace(ctx, root, id)
	if err != nil {
		return nil, err
	}

	store, err := OpenRecordStore(ctx, info.Path)
	if err != nil {
		return nil, &WorkspaceError{WorkspaceID: id, Err: err}
	}
	defer store.Close()

	data := &WorkspaceData{Workspace: *info}
	if data.Tabs, err = LoadTabs(ctx, store); err != nil {
		return nil, &WorkspaceError{WorkspaceID: id, Err: err}
	}
	listed, err := LoadComposerList(ctx, store)
	if err != nil {
		return nil, &WorkspaceError{WorkspaceID: id, Err: err}
	}
	data.Composers = listed

	if len(listed) == 0 || globalDB == "" {
		return data, nil
	}

	global, err := OpenRecordStore(ctx, globalDB)
	if err != nil {
		LogWarn("global store unavailable, using composer listing only: %v", err)
		return data, nil
	}
	defer global.Close()

	keys := make([]string, len(listed))
	for i, c := range listed {
		keys[i] = ComposerPrefix + c.ComposerID
	}
	records, err := global.ListByKeys(ctx, keys)
	if err != nil {
		return nil, err
	}

	bodies := make(map[string]*RawComposer, len(records))
	for _, rec := range records {
		c, err := ParseRawComposer(rec.Key, rec.Value)
		data.Stats.Record(err)
		if err != nil {
			continue
		}
		bodies[c.ComposerID] = c
	}
	for i, c := range listed {
		if body, ok := bodies[c.ComposerID]; ok {
			if body.Name == "" {
				body.Name = c.Name
			}
			data.Composers[i] = body
		}
	}
	return data, nil
}

// ListComposers lists composers of every workspace, most recently updated
// first.
func ListComposers(ctx context.Context, root string) ([]WorkspaceComposer, error) {
	workspaces, err := ListWorkspaces(ctx, root)
	if err != nil {
		return nil, err
	}

	var out []WorkspaceComposer
	for _, ws := range workspaces {
		store, err := OpenRecordStore(ctx, ws.Path)
		if err != nil {
			continue
		}
		composers, err := LoadComposerList(ctx, store)
		store.Close()
		if err != nil {
			LogDebug("workspace %s: %v", ws.ID, err)
			continue
		}
		for _, c := range composers {
			out = append(out, WorkspaceComposer{RawComposer: c, WorkspaceID: ws.ID, WorkspaceFolder: ws.Folder})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastUpdatedAt > out[j].LastUpdatedAt
	})
	return out, nil
}

// ValidateWorkspaceRoot checks that root is a directory and returns how many
// of its subdirectories hold a state.vscdb.
func ValidateWorkspaceRoot(root string) (int, error) {
	stat, err := os.Stat(root)
	if err != nil {
		return 0, &WorkspaceError{WorkspaceID: root, Err: err}
	}
	if !stat.IsDir() {
		return 0, &WorkspaceError{WorkspaceID: root, Err: errors.New("not a directory")}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, &WorkspaceError{WorkspaceID: root, Err: err}
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), stateDBName)); err == nil {
			count++
		}
	}
	return count, nil
}

// TabTranscript converts a chat tab to a transcript.
func TabTranscript(ws WorkspaceInfo, tab ChatTab) *Transcript {
	t := &Transcript{
		ID:              tab.ID,
		Kind:            KindChat,
		Title:           tab.Title,
		WorkspaceID:     ws.ID,
		WorkspaceFolder: ws.Folder,
		CreatedAt:       tab.Timestamp,
	}
	for _, b := range tab.Bubbles {
		msg := TranscriptMessage{Role: RoleUser, Content: b.Text}
		if b.Type == "ai" {
			msg.Role = RoleAssistant
			msg.Model = b.ModelType
		}
		for _, s := range b.Selections {
			msg.Selections = append(msg.Selections, s.Text)
		}
		t.Messages = append(t.Messages, msg)
	}
	return t
}

// FindTab returns the tab with id.
func FindTab(tabs []ChatTab, id string) (ChatTab, bool) {
	for _, t := range tabs {
		if t.ID == id {
			return t, true
		}
	}
	return ChatTab{}, false
}
