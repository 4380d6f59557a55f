package cmd

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestHealthcheckCommand(t *testing.T) {
	root := mockWorkspaceRoot(t)

	out, err := runIn(t, root, "healthcheck", "--details")
	if err != nil {
		t.Fatalf("healthcheck error = %v\n%s", err, out)
	}
	for _, want := range []string{"Found 2 workspace(s)", "Found 2 conversation(s)", "Health check passed", "Database:"} {
		if !strings.Contains(out, want) {
			t.Errorf("healthcheck output missing %q:\n%s", want, out)
		}
	}
}

func TestHealthcheckCommand_MissingGlobalStore(t *testing.T) {
	root := mockWorkspaceRoot(t)

	out, err := runIn(t, root, "--global-db", filepath.Join(t.TempDir(), "missing.vscdb"), "healthcheck")
	if err == nil {
		t.Fatal("healthcheck without a global store should fail")
	}
	if !strings.Contains(out, "Health check failed") {
		t.Errorf("healthcheck output = %q", out)
	}
}

func TestHealthcheckCommand_Flags(t *testing.T) {
	flag := healthcheckCmd.Flags().Lookup("details")
	if flag == nil {
		t.Fatal("details flag not found")
	}
	if flag.Shorthand != "d" {
		t.Errorf("details shorthand = %v, want d", flag.Shorthand)
	}
}
