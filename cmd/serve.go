package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/iksnae/cursor-chat-browser/internal"
	"github.com/iksnae/cursor-chat-browser/internal/server"
	"github.com/iksnae/cursor-chat-browser/internal/tui"
	"github.com/spf13/cobra"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat history API over HTTP",
	Long: `Serve the read-only JSON API on the configured address until interrupted.

Routes:
  GET  /api/workspaces, /api/workspaces/{id}, /api/workspaces/{id}/tabs
  GET  /api/composers, /api/composers/{id}
  GET  /api/conversations, /api/conversations/{id}
  GET  /api/search?q=, /api/logs
  GET  /api/active-chat, /api/recent-messages
  GET  /api/code-blocks, /api/tool-results, /api/file-context
  GET  /api/records?key=, /api/environment, /api/export
  POST /api/validate-path

Every GET accepts workspacePath to read another workspaceStorage directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cfg
		if serveListen != "" {
			copied := *cfg
			copied.Listen = serveListen
			c = &copied
		}
		srv, err := server.New(server.Options{Config: c, Logger: internal.Logger()})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx)
	},
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse chat tabs and composers in the terminal",
	Long: `Open an interactive list of every chat tab and composer, newest first.
Press / to filter, enter to read a conversation, esc to go back and q to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		items, err := tui.LoadItems(ctx, cfg.WorkspacePath)
		if err != nil {
			return err
		}
		load := func(ctx context.Context, ref internal.TranscriptRef) (*internal.Transcript, error) {
			src := internal.Sources{WorkspaceRoot: cfg.WorkspacePath, GlobalDB: cfg.GlobalDBPath()}
			return internal.LoadTranscript(ctx, src, ref, now())
		}
		return tui.Run(ctx, items, load)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, browseCmd)
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "Listen address (default from config)")
}
