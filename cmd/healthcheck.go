package cmd

import (
	"errors"
	"fmt"

	"github.com/iksnae/cursor-chat-browser/internal"
	"github.com/spf13/cobra"
)

var healthcheckDetails bool

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that the chat history can be read",
	Long: `Check the health of cursor-chat-browser by verifying:
  • The workspaceStorage directory and its workspaces
  • The global store
  • The conversations of the global store
  • The active conversation

This command is useful for debugging storage issues.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("Cursor Chat History Health Check"))
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 1: Checking workspace storage..."))
		workspacesOK := false
		count, err := internal.ValidateWorkspaceRoot(cfg.WorkspacePath)
		switch {
		case err != nil:
			fmt.Fprintln(out, errorStyle.Render("✗ Workspace storage unavailable:"), err)
		case count == 0:
			fmt.Fprintln(out, warningStyle.Render("⚠ No workspaces with a state.vscdb"))
		default:
			workspacesOK = true
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ Found %d workspace(s)", count)))
		}
		if healthcheckDetails {
			fmt.Fprintf(out, "   Directory: %s\n", cfg.WorkspacePath)
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 2: Opening the global store..."))
		store, err := internal.OpenRecordStore(ctx, cfg.GlobalDBPath())
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("✗ Global store unavailable:"), err)
			fmt.Fprintln(out)
			return healthSummary(cmd, workspacesOK, false, 0)
		}
		defer store.Close()
		fmt.Fprintln(out, successStyle.Render("✓ Global store opened read-only"))
		if healthcheckDetails {
			fmt.Fprintf(out, "   Database: %s\n", store.Path())
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 3: Loading conversations..."))
		history, err := internal.LoadHistory(ctx, store, now())
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("✗ Failed to read conversations:"), err)
			fmt.Fprintln(out)
			return healthSummary(cmd, workspacesOK, false, 0)
		}
		conversations := history.Groups.Len()
		if conversations > 0 {
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ Found %d conversation(s)", conversations)))
		} else {
			fmt.Fprintln(out, warningStyle.Render("⚠ No conversations found"))
		}
		if skipped := history.Stats.Skipped(); skipped > 0 {
			fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠ %d record(s) could not be parsed", skipped)))
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 4: Finding the active conversation..."))
		res, err := internal.FindActiveChat(ctx, store, internal.ActiveOptions{
			Window:   cfg.Active.Window,
			Strategy: cfg.ScoreStrategy(),
		}, now())
		switch {
		case errors.Is(err, internal.ErrNoActiveConversation):
			fmt.Fprintln(out, warningStyle.Render("⚠ No active conversation"))
		case err != nil:
			fmt.Fprintln(out, errorStyle.Render("✗ Failed to find the active conversation:"), err)
		default:
			fmt.Fprintln(out, successStyle.Render("✓ Active: "+res.Title))
			if healthcheckDetails {
				fmt.Fprintf(out, "   Conversation: %s (%d records, score %d)\n", res.ConversationID, len(res.Records), res.Summary.Score)
			}
		}
		fmt.Fprintln(out)

		return healthSummary(cmd, workspacesOK, true, conversations)
	},
}

func healthSummary(cmd *cobra.Command, workspacesOK, globalOK bool, conversations int) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, sectionStyle.Render("Summary"))
	switch {
	case globalOK && conversations > 0:
		fmt.Fprintln(out, successStyle.Render("✓ Health check passed"))
		fmt.Fprintf(out, "   • Conversations: %d\n", conversations)
		if !workspacesOK {
			fmt.Fprintln(out, "   • Workspace storage is unavailable; workspace views will be empty")
		}
		return nil
	case globalOK:
		fmt.Fprintln(out, warningStyle.Render("⚠ Storage available but no conversations found"))
		return nil
	default:
		fmt.Fprintln(out, errorStyle.Render("✗ Health check failed"))
		fmt.Fprintln(out, "   • The global store cannot be read")
		return errors.New("health check failed: global store unavailable")
	}
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckDetails, "details", "d", false, "Show detailed diagnostic information")
}
