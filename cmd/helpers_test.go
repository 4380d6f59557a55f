package cmd

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/iksnae/cursor-chat-browser/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var testNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// mockWorkspaceRoot builds a Cursor User directory and returns its
// workspaceStorage path.
func mockWorkspaceRoot(t *testing.T) string {
	t.Helper()
	return filepath.Join(testutil.CreateMockCursorDir(t), "workspaceStorage")
}

// run executes the root command with args and returns what it printed. Flags
// keep their values between executions, so every flag is reset first.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	resetFlags(rootCmd)
	cfg = nil
	now = func() time.Time { return testNow }
	t.Cleanup(func() { now = time.Now })

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), err
}

// runIn executes args against the workspace root.
func runIn(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()
	return run(t, append([]string{"--workspace-path", root}, args...)...)
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
