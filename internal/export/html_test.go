package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/cursor-chat-browser/internal"
)

func TestHTMLExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := (&HTMLExporter{}).Export(internal.CreateTestTranscript("test1"), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>Test Conversation</title>",
		"<h1>Test Conversation</h1>",
		"<h3>AI (gpt-4)</h3>",
		"<pre><code>func main() {}",
		"<hr",
		"prefers-color-scheme: dark",
		"max-width: 800px",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Export() output missing %q", want)
		}
	}
}

func TestHTMLExporter_Sanitizes(t *testing.T) {
	tr := internal.CreateTestTranscriptWithMessages("x", []internal.TranscriptMessage{
		{Role: internal.RoleAssistant, Content: "safe <script>alert(1)</script> <a href=\"javascript:alert(1)\">link</a>"},
	})
	tr.Title = "<b>bold</b>"

	var buf bytes.Buffer
	if err := (&HTMLExporter{}).Export(tr, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	output := buf.String()

	if strings.Contains(output, "<script>") {
		t.Error("Export() kept a script tag")
	}
	if strings.Contains(output, "javascript:") {
		t.Error("Export() kept a javascript: link")
	}
	if !strings.Contains(output, "<title>&lt;b&gt;bold&lt;/b&gt;</title>") {
		t.Error("Export() did not escape the title")
	}
}

func TestRenderHTML(t *testing.T) {
	got, err := RenderHTML([]byte("| a | b |\n|---|---|\n| 1 | 2 |\n"))
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if !bytes.Contains(got, []byte("<table>")) {
		t.Errorf("RenderHTML() = %s, want a table", got)
	}
}
