package cmd

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/iksnae/cursor-chat-browser/internal"
)

func TestWorkspacesCommand(t *testing.T) {
	root := mockWorkspaceRoot(t)

	out, err := runIn(t, root, "workspaces")
	if err != nil {
		t.Fatalf("workspaces error = %v", err)
	}
	for _, want := range []string{"Found 2 workspace(s)", "workspace-hash-123", "project"} {
		if !strings.Contains(out, want) {
			t.Errorf("workspaces output missing %q:\n%s", want, out)
		}
	}

	out, err = runIn(t, root, "workspaces", "--json")
	if err != nil {
		t.Fatalf("workspaces --json error = %v", err)
	}
	var workspaces []internal.WorkspaceInfo
	if err := json.Unmarshal([]byte(out), &workspaces); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(workspaces) != 2 {
		t.Errorf("workspaces --json returned %d workspaces, want 2", len(workspaces))
	}
}

func TestWorkspacesCommand_MissingRoot(t *testing.T) {
	_, err := runIn(t, t.TempDir()+"/missing", "workspaces")
	if !errors.Is(err, internal.ErrStoreUnavailable) {
		t.Errorf("workspaces error = %v, want ErrStoreUnavailable", err)
	}
}

func TestWorkspaceShowCommand(t *testing.T) {
	root := mockWorkspaceRoot(t)

	out, err := runIn(t, root, "workspaces", "show", "workspace-hash-123", "--json")
	if err != nil {
		t.Fatalf("workspaces show error = %v", err)
	}
	var ws internal.WorkspaceInfo
	if err := json.Unmarshal([]byte(out), &ws); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if ws.ID != "workspace-hash-123" || ws.ChatCount != 2 || ws.ComposerCount != 1 {
		t.Errorf("workspaces show = %+v, want workspace-hash-123 with 2 chats and 1 composer", ws)
	}

	_, err = runIn(t, root, "workspaces", "show", "nope")
	if !errors.Is(err, internal.ErrWorkspaceNotFound) {
		t.Errorf("workspaces show nope error = %v, want ErrWorkspaceNotFound", err)
	}
}

func TestWorkspaceTabsCommand(t *testing.T) {
	root := mockWorkspaceRoot(t)

	out, err := runIn(t, root, "workspaces", "tabs", "workspace-hash-123")
	if err != nil {
		t.Fatalf("workspaces tabs error = %v", err)
	}
	for _, want := range []string{"2 chat(s), 1 composer(s)", "tab1", "Fix the parser", "tab2", "chat1"} {
		if !strings.Contains(out, want) {
			t.Errorf("workspaces tabs output missing %q:\n%s", want, out)
		}
	}
}
