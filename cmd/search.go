package cmd

import (
	"fmt"
	"strings"

	"github.com/iksnae/cursor-chat-browser/internal"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	searchJSON bool
	logsJSON   bool
	logsLimit  int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search chat tabs and composers",
	Long: `Search chat tab messages and selections and composer names and texts of
every workspace, case-insensitively. Results are newest first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		results, err := internal.Search(cmd.Context(), cfg.WorkspacePath, query)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if searchJSON {
			return writeJSON(out, results)
		}
		if len(results) == 0 {
			fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("No matches for %q", query)))
			return nil
		}

		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d match(es) for %q", len(results), query)))
		t := newTable(out)
		t.AppendHeader(table.Row{"Kind", "ID", "Title", "Workspace", "Updated", "Match"})
		for _, r := range results {
			t.AppendRow(table.Row{r.Type, r.ChatID, truncate(r.ChatTitle, 30), shortID(r.WorkspaceID), relTime(r.Timestamp), truncate(r.MatchingText, 60)})
		}
		t.Render()
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Chat tabs and composers of every workspace, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logs, err := internal.Logs(cmd.Context(), cfg.WorkspacePath)
		if err != nil {
			return err
		}
		if logsLimit > 0 && len(logs) > logsLimit {
			logs = logs[:logsLimit]
		}
		out := cmd.OutOrStdout()
		if logsJSON {
			return writeJSON(out, map[string]any{"logs": logs})
		}
		if len(logs) == 0 {
			fmt.Fprintln(out, headerStyle.Render("No chats found"))
			return nil
		}

		t := newTable(out)
		t.AppendHeader(table.Row{"When", "Kind", "ID", "Title", "Messages", "Workspace"})
		for _, l := range logs {
			t.AppendRow(table.Row{relTime(l.Timestamp), l.Type, l.ID, truncate(l.Title, 40), l.MessageCount, truncate(folderName(l.WorkspaceFolder), 25)})
		}
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd, logsCmd)
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print JSON")
	logsCmd.Flags().BoolVar(&logsJSON, "json", false, "Print JSON")
	logsCmd.Flags().IntVarP(&logsLimit, "limit", "n", 0, "Show at most this many entries")
}
