package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/cursor-chat-browser/internal"
	"github.com/iksnae/cursor-chat-browser/internal/export"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
)

var (
	showKind      string
	showWorkspace string
	showRender    bool
	showWidth     int
	showJSON      bool
)

var (
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243"))

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true)

	selectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a conversation",
	Long: `Show a chat tab, composer or global conversation.

Without --kind the id is looked up as a global conversation. Chat tabs need
--workspace; composers use it to fill in their workspace.

Examples:
  cursor-chat-browser show 3f2a...                        # Global conversation
  cursor-chat-browser show 3f2a... --kind composer
  cursor-chat-browser show tab1 --kind chat --workspace <workspace-id>
  cursor-chat-browser show 3f2a... --render               # Rendered Markdown`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := showKind
		if kind == "" {
			kind = internal.KindConversation
		}
		t, err := loadTranscript(cmd, internal.TranscriptRef{Kind: kind, ID: args[0], WorkspaceID: showWorkspace})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		width := showWidth
		if width <= 0 {
			width = terminalWidth(out)
		}
		switch {
		case showJSON:
			return writeJSON(out, t)
		case showRender:
			return renderMarkdown(out, t, width)
		default:
			printTranscript(out, t, width)
			return nil
		}
	},
}

// loadTranscript reads a transcript from the configured stores. Composers and
// global conversations are attributed to a workspace when none was given.
func loadTranscript(cmd *cobra.Command, ref internal.TranscriptRef) (*internal.Transcript, error) {
	ctx := cmd.Context()
	src := internal.Sources{WorkspaceRoot: cfg.WorkspacePath, GlobalDB: cfg.GlobalDBPath()}
	t, err := internal.LoadTranscript(ctx, src, ref, now())
	if err != nil {
		return nil, err
	}
	if t.WorkspaceID != "" || ref.Kind == internal.KindChat {
		return t, nil
	}

	store, err := internal.OpenRecordStore(ctx, src.GlobalDB)
	if err != nil {
		return t, nil
	}
	defer store.Close()
	if a, err := internal.AttributeConversations(ctx, src.WorkspaceRoot, store); err == nil {
		attr := a.Attribute(t.ID)
		t.WorkspaceID, t.WorkspaceFolder = attr.WorkspaceID, attr.Folder
	}
	return t, nil
}

func renderMarkdown(w io.Writer, t *internal.Transcript, width int) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := r.RenderBytes(export.RenderMarkdown(t))
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = w.Write(rendered)
	return err
}

func printTranscript(w io.Writer, t *internal.Transcript, width int) {
	fmt.Fprintln(w, sessionHeaderStyle.Render(t.DisplayTitle()))

	var meta []string
	meta = append(meta, t.Kind+" "+t.ID)
	if t.WorkspaceFolder != "" {
		meta = append(meta, folderName(t.WorkspaceFolder))
	}
	if ts := t.Timestamp(); !ts.IsZero() {
		meta = append(meta, relTime(ts))
	}
	meta = append(meta, fmt.Sprintf("%d message(s)", len(t.Messages)))
	fmt.Fprintln(w, sessionMetaStyle.Render(strings.Join(meta, " · ")))
	fmt.Fprintln(w)

	wrapAt := max(width-2, 20)
	for _, msg := range t.Messages {
		header := userMessageStyle.Render("USER")
		if msg.Role != internal.RoleUser {
			label := "ASSISTANT"
			if msg.Model != "" {
				label += " (" + msg.Model + ")"
			}
			header = assistantMessageStyle.Render(label)
		}
		fmt.Fprintln(w, header)
		for _, sel := range msg.Selections {
			fmt.Fprintln(w, selectionStyle.Render(indent(wordwrap.String(sel, wrapAt-2), "  │ ")))
		}
		if msg.Content != "" {
			fmt.Fprintln(w, indent(wordwrap.String(msg.Content, wrapAt), "  "))
		}
		fmt.Fprintln(w)
	}
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVarP(&showKind, "kind", "k", "", "chat, composer or conversation (default conversation)")
	showCmd.Flags().StringVarP(&showWorkspace, "workspace", "w", "", "Workspace id of a chat tab or composer")
	showCmd.Flags().BoolVarP(&showRender, "render", "r", false, "Render as Markdown")
	showCmd.Flags().IntVar(&showWidth, "width", 0, "Wrap width (default: terminal width)")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print JSON")
}
