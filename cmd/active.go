package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/iksnae/cursor-chat-browser/internal"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
)

var (
	activeWindow        int
	activeStrategy      string
	activeMetadataLevel string
	activeJSON          bool

	recentLimit         int
	recentSince         string
	recentIncludeEmpty  bool
	recentFormat        string
	recentMetadataLevel string
	recentStrategy      string
)

// activeOutput is the JSON shape of active and recent.
type activeOutput struct {
	ConversationID string                `json:"conversationId"`
	Title          string                `json:"title"`
	Records        []internal.RecordView `json:"records"`
	Summary        internal.Summary      `json:"summary"`
	Workspace      *internal.Attribution `json:"workspace,omitempty"`
	Error          string                `json:"error,omitempty"`
}

var activeCmd = &cobra.Command{
	Use:   "active",
	Short: "Show the active conversation",
	Long: `Find the conversation with the most activity among the most recent bubble
records of the global store and print its records.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := internal.ParseMetadataLevel(activeMetadataLevel)
		if err != nil {
			return err
		}
		strategy, err := strategyFlag(activeStrategy)
		if err != nil {
			return err
		}
		window := activeWindow
		if window <= 0 {
			window = cfg.Active.Window
		}

		store, err := internal.OpenRecordStore(cmd.Context(), cfg.GlobalDBPath())
		if err != nil {
			return err
		}
		defer store.Close()

		res, err := internal.FindActiveChat(cmd.Context(), store, internal.ActiveOptions{
			Window:   window,
			Strategy: strategy,
		}, now())
		return writeActive(cmd, store, res, err, level, activeJSON)
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the latest messages of the active conversation",
	Long: `Print the latest distinct messages of the active conversation, oldest first.

--since takes a record id, which drops everything up to and including the
last record with that id, or an RFC 3339 time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := internal.ParseMetadataLevel(recentMetadataLevel)
		if err != nil {
			return err
		}
		if recentFormat != "text" && recentFormat != "json" {
			return fmt.Errorf("unknown format %q (want text or json)", recentFormat)
		}
		strategy, err := strategyFlag(recentStrategy)
		if err != nil {
			return err
		}

		store, err := internal.OpenRecordStore(cmd.Context(), cfg.GlobalDBPath())
		if err != nil {
			return err
		}
		defer store.Close()

		res, err := internal.RecentMessages(cmd.Context(), store, internal.RecentOptions{
			Limit:        cfg.Limit(recentLimit),
			Since:        recentSince,
			IncludeEmpty: recentIncludeEmpty,
			Strategy:     strategy,
		}, now())
		return writeActive(cmd, store, res, err, level, recentFormat == "json")
	},
}

func strategyFlag(name string) (internal.ScoreStrategy, error) {
	if name == "" {
		return cfg.ScoreStrategy(), nil
	}
	return internal.ParseScoreStrategy(name)
}

// writeActive prints an active conversation lookup. No active conversation is
// a result, not a failure: JSON output carries the empty result and its error
// message, text output says so.
func writeActive(cmd *cobra.Command, store *internal.RecordStore, res *internal.ActiveResult, err error, level internal.MetadataLevel, asJSON bool) error {
	noActive := errors.Is(err, internal.ErrNoActiveConversation)
	if err != nil && !noActive {
		return err
	}
	out := cmd.OutOrStdout()

	if asJSON {
		o := activeOutput{
			ConversationID: res.ConversationID,
			Title:          res.Title,
			Records:        internal.NewRecordViews(res.Records, level),
			Summary:        res.Summary,
		}
		if noActive {
			o.Error = err.Error()
		} else if a, aerr := internal.AttributeConversations(cmd.Context(), cfg.WorkspacePath, store); aerr == nil {
			attr := a.Attribute(res.ConversationID)
			o.Workspace = &attr
		}
		return writeJSON(out, o)
	}

	if noActive {
		fmt.Fprintln(out, warningStyle.Render("No active conversation found"))
		return nil
	}
	printActive(out, res, level, terminalWidth(out))
	return nil
}

func printActive(w io.Writer, res *internal.ActiveResult, level internal.MetadataLevel, width int) {
	fmt.Fprintln(w, sessionHeaderStyle.Render(res.Title))
	fmt.Fprintln(w, sessionMetaStyle.Render(fmt.Sprintf("conversation %s · %d of %d record(s) · score %d (%s)",
		res.ConversationID, res.Summary.Returned, res.Summary.TotalInConversation, res.Summary.Score, res.Summary.ScoreStrategy)))
	if res.Summary.LastRecordID != "" {
		fmt.Fprintln(w, sessionMetaStyle.Render("since cursor: "+res.Summary.LastRecordID))
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, wordwrap.String(internal.RenderText(res.Records, level), max(width, 20)))
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(activeCmd, recentCmd)

	activeCmd.Flags().IntVar(&activeWindow, "window", 0, "Number of recent bubbles to scan (default from config)")
	activeCmd.Flags().StringVar(&activeStrategy, "strategy", "", "Score strategy: content or text-count (default from config)")
	activeCmd.Flags().StringVar(&activeMetadataLevel, "metadata-level", "full", "Record detail: basic, full or raw")
	activeCmd.Flags().BoolVar(&activeJSON, "json", false, "Print JSON")

	recentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 0, "Number of messages (default from config)")
	recentCmd.Flags().StringVar(&recentSince, "since", "", "Only messages after this record id or RFC 3339 time")
	recentCmd.Flags().BoolVar(&recentIncludeEmpty, "include-empty", false, "Keep records without text or payloads")
	recentCmd.Flags().StringVar(&recentFormat, "format", "text", "Output format: text or json")
	recentCmd.Flags().StringVar(&recentMetadataLevel, "metadata-level", "full", "Record detail: basic, full or raw")
	recentCmd.Flags().StringVar(&recentStrategy, "strategy", "", "Score strategy: content or text-count (default from config)")
}
