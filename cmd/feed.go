package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/iksnae/cursor-chat-browser/internal"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	feedLimit     int
	feedSince     string
	feedNoContent bool
	feedJSON      bool

	feedLanguage string
	feedTool     string
	feedFilename string
	feedType     string
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Feeds of code blocks, tool results and file context",
	Long: `Read the most recent bubble records of the global store and list the code
blocks, tool invocations or file references they carry, oldest first.`,
}

var codeBlocksCmd = &cobra.Command{
	Use:   "code-blocks",
	Short: "Recent code blocks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := internal.OpenRecordStore(cmd.Context(), cfg.GlobalDBPath())
		if err != nil {
			return err
		}
		defer store.Close()

		feed, err := internal.CodeBlocks(cmd.Context(), store, feedOptions(feedLanguage), now())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if feedJSON {
			return writeJSON(out, feed)
		}

		t := newTable(out)
		t.AppendHeader(table.Row{"Record", "Role", "Language", "File", "Lines", "Chars"})
		for _, e := range feed.Entries {
			t.AppendRow(table.Row{shortID(e.RecordID), e.Role, orDash(e.Language), truncate(orDash(e.Filename), 30), e.LineCount, humanize.Comma(int64(e.CharacterCount))})
		}
		t.Render()
		if !feedNoContent {
			for _, e := range feed.Entries {
				if e.Content == "" {
					continue
				}
				fmt.Fprintf(out, "\n%s\n", headerStyle.Render(fmt.Sprintf("%s · %s", shortID(e.RecordID), orDash(e.Language))))
				fmt.Fprintln(out, indent(strings.TrimRight(e.Content, "\n"), "  "))
			}
		}
		s := feed.Stats
		fmt.Fprintf(out, "\n%d block(s), %s line(s), %s char(s), %d per block on average; languages: %s\n",
			s.TotalBlocks, humanize.Comma(int64(s.TotalLines)), humanize.Comma(int64(s.TotalCharacters)),
			s.AverageLinesPerBlock, countList(s.LanguageStats))
		writeFeedFooter(out, feed.Summary)
		return nil
	},
}

var toolResultsCmd = &cobra.Command{
	Use:   "tool-results",
	Short: "Recent tool invocations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := internal.OpenRecordStore(cmd.Context(), cfg.GlobalDBPath())
		if err != nil {
			return err
		}
		defer store.Close()

		feed, err := internal.ToolResults(cmd.Context(), store, feedOptions(feedTool), now())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if feedJSON {
			return writeJSON(out, feed)
		}

		t := newTable(out)
		t.AppendHeader(table.Row{"Record", "Tool", "Status", "Command", "Output"})
		for _, e := range feed.Entries {
			status := successStyle.Render("ok")
			if !e.Success {
				status = errorStyle.Render("error")
			}
			output := e.Output
			if !e.Success && e.Error != "" {
				output = e.Error
			}
			if feedNoContent {
				output = ""
			}
			t.AppendRow(table.Row{shortID(e.RecordID), e.Tool, status, truncate(orDash(e.Command), 30), truncate(output, 40)})
		}
		t.Render()
		s := feed.Stats
		fmt.Fprintf(out, "\n%d result(s), %d ok, %d error(s), success rate %s; tools: %s\n",
			s.TotalResults, s.SuccessCount, s.ErrorCount, s.SuccessRate, countList(s.ToolStats))
		writeFeedFooter(out, feed.Summary)
		return nil
	},
}

var fileContextCmd = &cobra.Command{
	Use:   "file-context",
	Short: "Recent attached, changed and viewed files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := feedOptions(feedFilename)
		opts.Type = feedType

		store, err := internal.OpenRecordStore(cmd.Context(), cfg.GlobalDBPath())
		if err != nil {
			return err
		}
		defer store.Close()

		feed, err := internal.FileContext(cmd.Context(), store, opts, now())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if feedJSON {
			return writeJSON(out, feed)
		}

		t := newTable(out)
		t.AppendHeader(table.Row{"Record", "Type", "File", "Lines", "Change"})
		for _, e := range feed.Entries {
			lines := "—"
			if e.StartLine > 0 || e.EndLine > 0 {
				lines = fmt.Sprintf("%d-%d", e.StartLine, e.EndLine)
			}
			t.AppendRow(table.Row{shortID(e.RecordID), e.Type, truncate(orDash(e.Filename), 50), lines, orDash(e.ChangeType)})
		}
		t.Render()
		s := feed.Stats
		fmt.Fprintf(out, "\n%d reference(s) to %d file(s); types: %s\n", s.TotalContexts, s.UniqueFiles, countList(s.TypeStats))
		writeFeedFooter(out, feed.Summary)
		return nil
	},
}

func feedOptions(filter string) internal.FeedOptions {
	return internal.FeedOptions{
		Limit:          min(feedLimit, internal.MaxLimit),
		Since:          feedSince,
		Filter:         filter,
		IncludeContent: !feedNoContent,
	}
}

// countList renders counts as "name (n)" sorted by count, then name.
func countList(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s (%d)", name, counts[name])
	}
	return strings.Join(parts, ", ")
}

func writeFeedFooter(w io.Writer, s internal.FeedSummary) {
	line := fmt.Sprintf("scanned %d record(s)", s.ScannedRecords)
	if s.LastRecordID != "" {
		line += ", next --since " + s.LastRecordID
	}
	if skipped := s.ParseStats.Skipped(); skipped > 0 {
		line += fmt.Sprintf(", %d unparsable", skipped)
	}
	fmt.Fprintln(w, idStyle.Render(line))
}

func init() {
	rootCmd.AddCommand(feedCmd)
	feedCmd.AddCommand(codeBlocksCmd, toolResultsCmd, fileContextCmd)

	feedCmd.PersistentFlags().IntVarP(&feedLimit, "limit", "n", internal.DefaultFeedLimit, "Number of entries")
	feedCmd.PersistentFlags().StringVar(&feedSince, "since", "", "Only entries after this record id or RFC 3339 time")
	feedCmd.PersistentFlags().BoolVar(&feedNoContent, "no-content", false, "Leave out code, output and file contents")
	feedCmd.PersistentFlags().BoolVar(&feedJSON, "json", false, "Print JSON")

	codeBlocksCmd.Flags().StringVar(&feedLanguage, "language", "", "Only blocks in this language")
	toolResultsCmd.Flags().StringVar(&feedTool, "tool", "", "Only invocations of this tool")
	fileContextCmd.Flags().StringVar(&feedFilename, "filename", "", "Only files whose name contains this")
	fileContextCmd.Flags().StringVar(&feedType, "type", "all", "all, attached, git, viewed or context")
}
