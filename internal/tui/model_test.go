package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/iksnae/cursor-chat-browser/internal"
	"github.com/iksnae/cursor-chat-browser/testutil"
)

func testItems() []Item {
	now := time.Now()
	return []Item{
		{Ref: internal.TranscriptRef{Kind: internal.KindChat, ID: "tab1", WorkspaceID: "ws"}, Title: "Fix the parser", Updated: now, MessageCount: 2},
		{Ref: internal.TranscriptRef{Kind: internal.KindComposer, ID: "c1"}, Title: "Refactor storage layer", Updated: now.Add(-time.Hour), MessageCount: 4},
		{Ref: internal.TranscriptRef{Kind: internal.KindChat, ID: "tab2", WorkspaceID: "ws"}, Title: "Chat tab2"},
	}
}

func stubLoad(ctx context.Context, ref internal.TranscriptRef) (*internal.Transcript, error) {
	if ref.ID == "missing" {
		return nil, errors.New("not found")
	}
	return &internal.Transcript{
		ID:    ref.ID,
		Title: "Loaded " + ref.ID,
		Messages: []internal.TranscriptMessage{
			{Role: internal.RoleUser, Content: "question", Selections: []string{"func parse()"}},
			{Role: internal.RoleAssistant, Model: "gpt-4", Content: "answer"},
		},
	}, nil
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T, want Model", next)
	}
	return model, cmd
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sized(t *testing.T) Model {
	t.Helper()
	m := New(context.Background(), testItems(), stubLoad)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 20})
	return m
}

func TestModel_ListNavigation(t *testing.T) {
	m := sized(t)

	m, _ = update(t, m, keys("j"))
	if m.cursor != 1 {
		t.Errorf("cursor after j = %d, want 1", m.cursor)
	}
	m, _ = update(t, m, keys("G"))
	if m.cursor != 2 {
		t.Errorf("cursor after G = %d, want 2", m.cursor)
	}
	m, _ = update(t, m, keys("j"))
	if m.cursor != 2 {
		t.Errorf("cursor past end = %d, want 2", m.cursor)
	}
	m, _ = update(t, m, keys("g"))
	if m.cursor != 0 {
		t.Errorf("cursor after g = %d, want 0", m.cursor)
	}

	view := m.View()
	if !strings.Contains(view, "> Fix the parser") {
		t.Errorf("View() does not mark the selected item:\n%s", view)
	}
}

func TestModel_Filter(t *testing.T) {
	m := sized(t)

	m, _ = update(t, m, keys("/"))
	if !m.filtering {
		t.Fatal("filtering = false after /")
	}
	for _, r := range "stor" {
		m, _ = update(t, m, keys(string(r)))
	}
	if len(m.visible) != 1 || m.items[m.visible[0]].Ref.ID != "c1" {
		t.Fatalf("visible = %v, want only c1", m.visible)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	if m.filter != "sto" {
		t.Errorf("filter after backspace = %q, want sto", m.filter)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.filtering {
		t.Error("filtering = true after enter")
	}
	if !strings.Contains(m.View(), "filter: sto") {
		t.Error("View() does not show the active filter")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.filter != "" || len(m.visible) != 3 {
		t.Errorf("after esc filter = %q visible = %d, want cleared", m.filter, len(m.visible))
	}
}

func TestModel_FilterNoMatch(t *testing.T) {
	m := sized(t)
	m, _ = update(t, m, keys("/"))
	m, _ = update(t, m, keys("zzzz"))

	if len(m.visible) != 0 {
		t.Errorf("visible = %v, want none", m.visible)
	}
	if !strings.Contains(m.View(), "No conversations match zzzz") {
		t.Error("View() missing no-match message")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("enter with nothing selected returned a command")
	}
}

func TestModel_OpenTranscript(t *testing.T) {
	m := sized(t)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	m, _ = update(t, m, cmd())
	if m.screen != screenTranscript {
		t.Fatalf("screen = %v, want transcript", m.screen)
	}

	view := m.View()
	for _, want := range []string{"Loaded tab1", "USER", "ASSISTANT (gpt-4)", "func parse()", "answer"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	m, _ = update(t, m, keys("b"))
	if m.screen != screenList {
		t.Errorf("screen after b = %v, want list", m.screen)
	}
}

func TestModel_LoadError(t *testing.T) {
	m := New(context.Background(), []Item{{Ref: internal.TranscriptRef{Kind: internal.KindComposer, ID: "missing"}, Title: "gone"}}, stubLoad)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 10})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, cmd())
	if m.screen != screenList {
		t.Errorf("screen = %v, want list", m.screen)
	}
	if !strings.Contains(m.status, "not found") {
		t.Errorf("status = %q, want error", m.status)
	}
}

func TestModel_Quit(t *testing.T) {
	m := sized(t)
	_, cmd := update(t, m, keys("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestRenderTranscript(t *testing.T) {
	tr := &internal.Transcript{Messages: []internal.TranscriptMessage{
		{Role: internal.RoleAssistant, Content: strings.Repeat("word ", 30)},
	}}
	out := RenderTranscript(tr, 40)
	for _, line := range strings.Split(out, "\n") {
		if w := len([]rune(stripANSI(line))); w > 40 {
			t.Errorf("line %q is %d wide, want <= 40", line, w)
		}
	}
	if got := RenderTranscript(&internal.Transcript{}, 40); got != "No messages" {
		t.Errorf("RenderTranscript(empty) = %q", got)
	}
}

func TestLoadItems(t *testing.T) {
	base := testutil.CreateMockCursorDir(t)

	items, err := LoadItems(context.Background(), filepath.Join(base, "workspaceStorage"))
	if err != nil {
		t.Fatalf("LoadItems() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}
	if items[0].Ref.Kind != internal.KindChat || items[0].Ref.ID != "tab1" || items[0].Ref.WorkspaceID != "workspace-hash-123" {
		t.Errorf("items[0] = %+v, want newest tab1", items[0])
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			inEscape = false
		case !inEscape:
			b.WriteRune(r)
		}
	}
	return b.String()
}
