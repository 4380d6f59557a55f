package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/cursor-chat-browser/internal"
	"gopkg.in/yaml.v3"
)

func TestYAMLExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	tr := internal.CreateTestTranscript("test1")
	if err := (&YAMLExporter{}).Export(tr, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var got internal.Transcript
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Export() produced invalid YAML: %v", err)
	}
	if got.ID != "test1" {
		t.Errorf("ID = %v, want test1", got.ID)
	}
	if got.WorkspaceFolder != "/path/to/project" {
		t.Errorf("WorkspaceFolder = %v, want /path/to/project", got.WorkspaceFolder)
	}
	if len(got.Messages) != 2 || got.Messages[1].Model != "gpt-4" {
		t.Errorf("Messages = %+v, want 2 with model gpt-4 second", got.Messages)
	}
	if strings.Contains(buf.String(), "updated_at") {
		t.Error("YAML has zero updated_at, want omitted")
	}
	if !strings.Contains(buf.String(), "- id: b1") {
		t.Errorf("YAML missing first message:\n%s", buf.String())
	}
}
