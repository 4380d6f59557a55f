package cmd

import (
	"fmt"

	"github.com/iksnae/cursor-chat-browser/internal"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
)

var (
	listFilter   string
	listStrategy string
	listLimit    int
	listJSON     bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations of the global store",
	Long: `List every conversation found in the global store's bubble records, most
recently written first, with its record counts, activity score and workspace.

--filter keeps conversations whose title fuzzy-matches the pattern, best
match first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		strategy := cfg.ScoreStrategy()
		if listStrategy != "" {
			s, err := internal.ParseScoreStrategy(listStrategy)
			if err != nil {
				return err
			}
			strategy = s
		}

		store, err := internal.OpenRecordStore(ctx, cfg.GlobalDBPath())
		if err != nil {
			return err
		}
		defer store.Close()

		var history *internal.History
		err = internal.ShowProgress(ctx, "Loading conversations", func() error {
			var loadErr error
			history, loadErr = internal.LoadHistory(ctx, store, now())
			return loadErr
		})
		if err != nil {
			return err
		}

		summaries := history.Summaries(strategy)
		if a, err := internal.AttributeConversations(ctx, cfg.WorkspacePath, store); err == nil {
			for i := range summaries {
				attr := a.Attribute(summaries[i].ID)
				summaries[i].Workspace = &attr
			}
		} else {
			internal.LogDebug("attribution unavailable: %v", err)
		}
		summaries = filterSummaries(summaries, listFilter)
		if listLimit > 0 && len(summaries) > listLimit {
			summaries = summaries[:listLimit]
		}

		out := cmd.OutOrStdout()
		if listJSON {
			return writeJSON(out, summaries)
		}
		displaySummaries(cmd, summaries)
		if skipped := history.Stats.Skipped(); skipped > 0 {
			internal.PrintWarning(fmt.Sprintf("%d record(s) could not be parsed", skipped))
		}
		return nil
	},
}

type summarySource []internal.ConversationSummary

func (s summarySource) String(i int) string { return s[i].Title }
func (s summarySource) Len() int            { return len(s) }

// filterSummaries keeps the summaries whose title fuzzy-matches pattern, best
// match first. An empty pattern keeps everything in order.
func filterSummaries(summaries []internal.ConversationSummary, pattern string) []internal.ConversationSummary {
	if pattern == "" {
		return summaries
	}
	matches := fuzzy.FindFrom(pattern, summarySource(summaries))
	out := make([]internal.ConversationSummary, 0, len(matches))
	for _, m := range matches {
		out = append(out, summaries[m.Index])
	}
	return out
}

func displaySummaries(cmd *cobra.Command, summaries []internal.ConversationSummary) {
	out := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(out, headerStyle.Render("No conversations found"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Found %d conversation(s)", len(summaries))))
	t := newTable(out)
	t.AppendHeader(table.Row{"ID", "Title", "Records", "Text", "Diffs", "Score", "Workspace"})
	for _, s := range summaries {
		ws := "—"
		if s.Workspace != nil && s.Workspace.WorkspaceID != "" {
			ws = folderName(s.Workspace.Folder)
			if ws == "—" {
				ws = shortID(s.Workspace.WorkspaceID)
			}
		}
		t.AppendRow(table.Row{s.ID, truncate(s.Title, 50), s.Records, s.TextRecords, s.CodeBlockDiffs, s.Score, truncate(ws, 25)})
	}
	t.Render()

	fmt.Fprintln(out)
	fmt.Fprintln(out, idStyle.Render("Tip: view one with `cursor-chat-browser show "+summaries[0].ID+"`"))
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "", "Fuzzy filter on conversation titles")
	listCmd.Flags().StringVar(&listStrategy, "strategy", "", "Score strategy: content or text-count (default from config)")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Show at most this many conversations")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print JSON")
}
