package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iksnae/cursor-chat-browser/internal"
	"github.com/iksnae/cursor-chat-browser/internal/config"
	"github.com/spf13/cobra"
)

var envJSON bool

type envOutput struct {
	internal.Environment
	WorkspacePath string          `json:"workspacePath"`
	GlobalDB      string          `json:"globalDb"`
	ConfigPath    string          `json:"configPath"`
	Alternatives  []candidatePath `json:"alternatives"`
}

type candidatePath struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show where Cursor keeps its chat history on this machine",
	Long: `Detect the operating system, WSL and user, and report the default and
configured storage paths and whether they exist. Other places Cursor data is
sometimes found are checked too.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		o := envOutput{
			Environment:   internal.DetectEnvironment(cmd.Context()),
			WorkspacePath: cfg.WorkspacePath,
			GlobalDB:      cfg.GlobalDBPath(),
			ConfigPath:    configPath,
			Alternatives:  alternativePaths(),
		}
		if o.ConfigPath == "" {
			o.ConfigPath = config.DefaultConfigPath()
		}
		out := cmd.OutOrStdout()
		if envJSON {
			return writeJSON(out, o)
		}

		fmt.Fprintln(out, sectionStyle.Render("Environment"))
		fmt.Fprintf(out, "  OS:       %s\n", o.OS)
		fmt.Fprintf(out, "  WSL:      %t\n", o.IsWSL)
		fmt.Fprintf(out, "  Username: %s\n", o.Username)
		fmt.Fprintf(out, "  Config:   %s\n", pathStyle.Render(o.ConfigPath))
		fmt.Fprintln(out)

		fmt.Fprintln(out, sectionStyle.Render("Default paths"))
		printPath(out, "Workspace storage", o.DefaultWorkspacePath)
		printPath(out, "Global store", o.DefaultGlobalDB)
		fmt.Fprintln(out)

		fmt.Fprintln(out, sectionStyle.Render("Configured paths"))
		printPath(out, "Workspace storage", o.WorkspacePath)
		if n, err := internal.ValidateWorkspaceRoot(o.WorkspacePath); err == nil {
			fmt.Fprintf(out, "    %d workspace(s) with a state.vscdb\n", n)
		}
		printPath(out, "Global store", o.GlobalDB)
		fmt.Fprintln(out)

		fmt.Fprintln(out, sectionStyle.Render("Alternative locations"))
		found := false
		for _, alt := range o.Alternatives {
			if alt.Exists {
				found = true
				fmt.Fprintf(out, "  %s: %s %s\n", infoStyle.Render(alt.Name), pathStyle.Render(alt.Path), successStyle.Render("found"))
			}
		}
		if !found {
			fmt.Fprintln(out, "  none found")
		}
		return nil
	},
}

var envValidateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Check that a directory is a workspaceStorage directory",
	Long: `Count the workspace directories holding a state.vscdb under path. The
check fails when there are none. The configured path is not changed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := internal.ExpandHome(args[0])
		count, err := internal.ValidateWorkspaceRoot(path)
		out := cmd.OutOrStdout()
		if envJSON {
			resp := map[string]any{"valid": err == nil && count > 0, "path": path, "workspaceCount": count}
			if err != nil {
				resp["error"] = err.Error()
			}
			if werr := writeJSON(out, resp); werr != nil {
				return werr
			}
		}
		if err != nil {
			return err
		}
		if count == 0 {
			return errors.New("no workspaces with a state.vscdb found in " + path)
		}
		if !envJSON {
			fmt.Fprintf(out, "%s %s holds %d workspace(s)\n", successStyle.Render("✓"), path, count)
		}
		return nil
	},
}

func printPath(w io.Writer, name, path string) {
	if path == "" {
		fmt.Fprintf(w, "  %s: %s\n", name, warningStyle.Render("unknown"))
		return
	}
	status := successStyle.Render("exists")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			status = warningStyle.Render("missing")
		} else {
			status = errorStyle.Render(err.Error())
		}
	}
	fmt.Fprintf(w, "  %s: %s %s\n", name, pathStyle.Render(path), status)
}

// alternativePaths lists Cursor User directories found on some setups besides
// the default one.
func alternativePaths() []candidatePath {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	candidates := []candidatePath{
		{Name: "Windows-style config", Path: filepath.Join(home, "AppData", "Roaming", "Cursor", "User")},
		{Name: "Dot directory", Path: filepath.Join(home, ".cursor", "User")},
		{Name: "macOS preferences", Path: filepath.Join(home, "Library", "Preferences", "Cursor", "User")},
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		candidates = append(candidates, candidatePath{Name: "XDG config home", Path: filepath.Join(dir, "Cursor", "User")})
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		candidates = append(candidates, candidatePath{Name: "XDG data home", Path: filepath.Join(dir, "Cursor", "User")})
	}
	for i := range candidates {
		_, err := os.Stat(candidates[i].Path)
		candidates[i].Exists = err == nil
	}
	return candidates
}

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.AddCommand(envValidateCmd)
	envCmd.PersistentFlags().BoolVar(&envJSON, "json", false, "Print JSON")
}
