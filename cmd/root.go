package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/iksnae/cursor-chat-browser/internal"
	"github.com/iksnae/cursor-chat-browser/internal/config"
	"github.com/spf13/cobra"
)

var (
	verbose       bool
	configPath    string
	workspacePath string
	globalDB      string
	version       string = "dev"
	commit        string = "unknown"
	date          string = "unknown"
)

// cfg is loaded before every command runs.
var cfg *config.Config

// now stamps observation times. Tests replace it.
var now = time.Now

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cursor-chat-browser",
	Short: "Browse and export Cursor IDE chat history",
	Long: `Browse, search and export the chat history Cursor IDE keeps in its
local SQLite stores. Every store is opened read-only.

Features:
  • Workspaces with their chat tabs and composers
  • The active conversation and its most recent messages
  • Code block, tool result and file context feeds
  • Search and activity logs across workspaces
  • Export as Markdown, HTML, PDF, JSON, JSONL or YAML
  • A local HTTP API and an interactive terminal browser

Quick Start:
  cursor-chat-browser workspaces              # List workspaces
  cursor-chat-browser active                  # Show the active conversation
  cursor-chat-browser recent --limit 5        # Latest messages
  cursor-chat-browser export --all --format md
  cursor-chat-browser serve                   # HTTP API on 127.0.0.1:3000`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		internal.SetVerbose(verbose)
		return loadConfig(cmd)
	},
}

// loadConfig reads the config file and applies the path flags over it.
func loadConfig(cmd *cobra.Command) error {
	var loaded *config.Config
	if _, err := os.Stat(configPath); cmd == configInitCmd && configPath != "" && errors.Is(err, fs.ErrNotExist) {
		loaded = config.Default(cmd.Context())
	} else {
		loaded, err = config.Load(cmd.Context(), configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	if workspacePath != "" {
		loaded = loaded.WithWorkspacePath(workspacePath)
	}
	if globalDB != "" {
		loaded.GlobalDB = internal.ExpandHome(globalDB)
	}
	cfg = loaded
	internal.LogDebug("workspace path: %s", cfg.WorkspacePath)
	internal.LogDebug("global store: %s", cfg.GlobalDBPath())
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		internal.PrintError(fmt.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+config.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&workspacePath, "workspace-path", "", "Cursor workspaceStorage directory")
	rootCmd.PersistentFlags().StringVar(&globalDB, "global-db", "", "Global state.vscdb (default: next to the workspace path)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
