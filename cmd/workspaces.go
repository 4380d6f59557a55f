package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/iksnae/cursor-chat-browser/internal"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var workspacesJSON bool

var workspacesCmd = &cobra.Command{
	Use:     "workspaces",
	Aliases: []string{"ws"},
	Short:   "List Cursor workspaces",
	Long: `List the workspaceStorage directories that hold a state.vscdb, with
their folder, last modification and chat tab and composer counts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		workspaces, err := internal.ListWorkspaces(cmd.Context(), cfg.WorkspacePath)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if workspacesJSON {
			if workspaces == nil {
				workspaces = []internal.WorkspaceInfo{}
			}
			return writeJSON(out, workspaces)
		}
		if len(workspaces) == 0 {
			fmt.Fprintln(out, headerStyle.Render("No workspaces found in "+cfg.WorkspacePath))
			return nil
		}

		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Found %d workspace(s)", len(workspaces))))
		t := newTable(out)
		t.AppendHeader(table.Row{"ID", "Folder", "Chats", "Composers", "Modified"})
		for _, ws := range workspaces {
			t.AppendRow(table.Row{ws.ID, truncate(folderName(ws.Folder), 40), ws.ChatCount, ws.ComposerCount, relTime(ws.LastModified)})
		}
		t.Render()
		return nil
	},
}

var workspaceShowCmd = &cobra.Command{
	Use:   "show <workspace-id>",
	Short: "Show one workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := internal.GetWorkspace(cmd.Context(), cfg.WorkspacePath, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if workspacesJSON {
			return writeJSON(out, ws)
		}
		fmt.Fprintln(out, headerStyle.Render(ws.ID))
		fmt.Fprintf(out, "  Folder:    %s\n", orDash(ws.Folder))
		fmt.Fprintf(out, "  Store:     %s\n", pathStyle.Render(ws.Path))
		fmt.Fprintf(out, "  Modified:  %s\n", relTime(ws.LastModified))
		fmt.Fprintf(out, "  Chats:     %d\n", ws.ChatCount)
		fmt.Fprintf(out, "  Composers: %d\n", ws.ComposerCount)
		return nil
	},
}

var workspaceTabsCmd = &cobra.Command{
	Use:   "tabs <workspace-id>",
	Short: "List the chat tabs and composers of a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := internal.LoadWorkspaceData(cmd.Context(), cfg.WorkspacePath, args[0], cfg.GlobalDBPath())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if workspacesJSON {
			return writeJSON(out, data)
		}

		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%s: %d chat(s), %d composer(s)",
			folderName(data.Workspace.Folder), len(data.Tabs), len(data.Composers))))
		t := newTable(out)
		t.AppendHeader(table.Row{"Kind", "ID", "Title", "Messages", "Updated"})
		for _, tab := range data.Tabs {
			t.AppendRow(table.Row{internal.KindChat, tab.ID, truncate(tab.Title, 50), len(tab.Bubbles), relTime(tab.Timestamp)})
		}
		for _, c := range data.Composers {
			title := c.Name
			if title == "" {
				title = "Composer " + shortID(c.ComposerID)
			}
			t.AppendRow(table.Row{internal.KindComposer, c.ComposerID, truncate(title, 50), c.MessageCount(), relTime(c.GetLastUpdatedAt())})
		}
		t.Render()
		if skipped := data.Stats.Skipped(); skipped > 0 {
			internal.PrintWarning(humanize.Comma(int64(skipped)) + " record(s) could not be parsed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workspacesCmd)
	workspacesCmd.AddCommand(workspaceShowCmd, workspaceTabsCmd)
	workspacesCmd.PersistentFlags().BoolVar(&workspacesJSON, "json", false, "Print JSON")
}
