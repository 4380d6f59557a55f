// Package tui is the interactive transcript browser.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/iksnae/cursor-chat-browser/internal"
	"github.com/muesli/reflow/wordwrap"
	"github.com/sahilm/fuzzy"
)

type screen int

const (
	screenList screen = iota
	screenTranscript
)

// LoadFunc reads the transcript behind an item.
type LoadFunc func(ctx context.Context, ref internal.TranscriptRef) (*internal.Transcript, error)

type transcriptMsg struct {
	ref        internal.TranscriptRef
	transcript *internal.Transcript
	err        error
}

type Model struct {
	ctx   context.Context
	load  LoadFunc
	items []Item

	screen  screen
	cursor  int
	visible []int // indexes into items

	filtering bool
	filter    string

	transcript *internal.Transcript
	viewport   viewport.Model

	width  int
	height int
	status string
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))

	roleUserStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	roleAssistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	roleOtherStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	selectionStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("180"))
)

func New(ctx context.Context, items []Item, load LoadFunc) Model {
	m := Model{ctx: ctx, items: items, load: load}
	m.applyFilter()
	m.status = fmt.Sprintf("%d conversations", len(items))
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()
		m.refreshViewport()
		return m, nil
	case transcriptMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.transcript = msg.transcript
		m.screen = screenTranscript
		m.refreshViewport()
		m.status = fmt.Sprintf("%d messages", len(msg.transcript.Messages))
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.filtering {
			return m.handleFilterKey(msg)
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}
		if m.screen == screenTranscript {
			return m.handleTranscriptKey(msg)
		}
		return m.handleListKey(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.cursor = clamp(m.cursor-1, 0, len(m.visible)-1)
	case "down", "j":
		m.cursor = clamp(m.cursor+1, 0, len(m.visible)-1)
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = max(0, len(m.visible)-1)
	case "/":
		m.filtering = true
	case "esc":
		if m.filter != "" {
			m.filter = ""
			m.applyFilter()
		}
	case "enter":
		item, ok := m.current()
		if !ok {
			m.status = "Nothing selected"
			return m, nil
		}
		m.status = "Loading " + item.Title + "..."
		return m, m.loadCmd(item.Ref)
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
	case tea.KeyEsc:
		m.filtering = false
		m.filter = ""
		m.applyFilter()
	case tea.KeyBackspace:
		if r := []rune(m.filter); len(r) > 0 {
			m.filter = string(r[:len(r)-1])
			m.applyFilter()
		}
	case tea.KeyRunes, tea.KeySpace:
		m.filter += string(msg.Runes)
		m.applyFilter()
	}
	return m, nil
}

func (m Model) handleTranscriptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.viewport.LineUp(1)
	case "down", "j":
		m.viewport.LineDown(1)
	case "pgup":
		m.viewport.HalfViewUp()
	case "pgdown", " ":
		m.viewport.HalfViewDown()
	case "g":
		m.viewport.GotoTop()
	case "G":
		m.viewport.GotoBottom()
	case "b", "esc", "backspace":
		m.screen = screenList
		m.status = fmt.Sprintf("%d conversations", len(m.visible))
	}
	return m, nil
}

func (m Model) loadCmd(ref internal.TranscriptRef) tea.Cmd {
	ctx, load := m.ctx, m.load
	return func() tea.Msg {
		t, err := load(ctx, ref)
		return transcriptMsg{ref: ref, transcript: t, err: err}
	}
}

type itemSource []Item

func (s itemSource) String(i int) string { return s[i].Title + " " + s[i].Folder }
func (s itemSource) Len() int            { return len(s) }

// applyFilter recomputes the visible items. Fuzzy matches are ranked by score.
func (m *Model) applyFilter() {
	m.visible = make([]int, 0, len(m.items))
	if strings.TrimSpace(m.filter) == "" {
		for i := range m.items {
			m.visible = append(m.visible, i)
		}
	} else {
		for _, match := range fuzzy.FindFrom(m.filter, itemSource(m.items)) {
			m.visible = append(m.visible, match.Index)
		}
	}
	m.cursor = clamp(m.cursor, 0, len(m.visible)-1)
}

func (m Model) current() (Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return Item{}, false
	}
	return m.items[m.visible[m.cursor]], true
}

func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "Loading..."
	}
	header := titleStyle.Render(m.headerText())
	var body string
	if m.screen == screenTranscript {
		body = m.viewport.View()
	} else {
		body = m.renderList()
	}
	return header + "\n" + body + "\n" + helpStyle.Render(m.footerText())
}

func (m Model) headerText() string {
	title := "cursor-chat-browser"
	if m.screen == screenTranscript && m.transcript != nil {
		return title + " | " + m.transcript.DisplayTitle()
	}
	if m.filter != "" || m.filtering {
		title += " | filter: " + m.filter
		if m.filtering {
			title += "_"
		}
	}
	return title
}

func (m Model) footerText() string {
	if m.screen == screenTranscript {
		return m.status + "  (j/k scroll, g/G top/bottom, b back, q quit)"
	}
	if m.filtering {
		return "type to filter, enter to keep, esc to clear"
	}
	return m.status + "  (enter open, / filter, q quit)"
}

func (m Model) renderList() string {
	if len(m.visible) == 0 {
		if m.filter != "" {
			return "No conversations match " + m.filter
		}
		return "No conversations found"
	}
	rows := max(1, m.height-2)
	offset := listOffset(m.cursor, len(m.visible), rows)

	lines := make([]string, 0, rows)
	for idx := offset; idx < min(len(m.visible), offset+rows); idx++ {
		item := m.items[m.visible[idx]]
		when := "unknown"
		if !item.Updated.IsZero() {
			when = humanize.Time(item.Updated)
		}
		meta := fmt.Sprintf("%s  %s  msgs:%d", item.Ref.Kind, when, item.MessageCount)
		title := truncate(item.Title, max(10, m.width-lipgloss.Width(meta)-6))
		if idx == m.cursor {
			lines = append(lines, selectedStyle.Render("> "+title+"  "+meta))
			continue
		}
		lines = append(lines, "  "+title+"  "+dimStyle.Render(meta))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) resizeViewport() {
	width := max(20, m.width)
	height := max(3, m.height-2)
	if m.viewport.Width == 0 {
		m.viewport = viewport.New(width, height)
		return
	}
	m.viewport.Width = width
	m.viewport.Height = height
}

func (m *Model) refreshViewport() {
	if m.viewport.Width <= 0 || m.transcript == nil {
		return
	}
	m.viewport.SetContent(RenderTranscript(m.transcript, m.viewport.Width))
	m.viewport.GotoTop()
}

// RenderTranscript lays out messages as styled, word-wrapped blocks.
func RenderTranscript(t *internal.Transcript, width int) string {
	if len(t.Messages) == 0 {
		return "No messages"
	}
	wrapAt := max(20, width-4)
	chunks := make([]string, 0, len(t.Messages))
	for _, msg := range t.Messages {
		style := roleStyle(msg.Role)
		header := strings.ToUpper(string(msg.Role))
		if msg.Model != "" {
			header += " (" + msg.Model + ")"
		}

		var b strings.Builder
		b.WriteString(style.Bold(true).Render(header))
		for _, sel := range msg.Selections {
			b.WriteString("\n")
			b.WriteString(selectionStyle.Render(indentLines(wrapText(sel, wrapAt), "  │ ")))
		}
		body := msg.Content
		if strings.TrimSpace(body) == "" {
			body = "(no text content)"
		}
		b.WriteString("\n")
		b.WriteString(style.Render(indentLines(wrapText(body, wrapAt), "  ")))
		chunks = append(chunks, b.String())
	}
	return strings.Join(chunks, "\n\n")
}

func roleStyle(role internal.Role) lipgloss.Style {
	switch role {
	case internal.RoleUser:
		return roleUserStyle
	case internal.RoleAssistant:
		return roleAssistantStyle
	default:
		return roleOtherStyle
	}
}

func wrapText(text string, width int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	return strings.ReplaceAll(wordwrap.String(trimmed, width), "\r", "")
}

func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}

func truncate(text string, width int) string {
	r := []rune(text)
	if len(r) <= width {
		return text
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

func listOffset(cursor, total, visible int) int {
	if total <= visible {
		return 0
	}
	return clamp(cursor-visible/2, 0, total-visible)
}

func clamp(value, low, high int) int {
	if high < low {
		return low
	}
	return min(max(value, low), high)
}

// Run starts the browser on the alternate screen and blocks until it exits.
func Run(ctx context.Context, items []Item, load LoadFunc) error {
	_, err := tea.NewProgram(New(ctx, items, load), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
