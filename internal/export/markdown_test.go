package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/cursor-chat-browser/internal"
)

func TestMarkdownExporter_Export(t *testing.T) {
	tests := []struct {
		name       string
		transcript *internal.Transcript
		want       []string
		notWant    []string
	}{
		{
			name:       "composer transcript",
			transcript: internal.CreateTestTranscript("test1"),
			want: []string{
				"# Test Conversation\n",
				"### User\n\n**Selected Code:**\n\n```\nfunc main() {}\n```\n\nHello, how are you?\n\n---\n",
				"### AI (gpt-4)\n\nI'm doing well, thank you!\n\n---\n",
			},
		},
		{
			name: "untitled transcript",
			transcript: internal.CreateTestTranscriptWithMessages("0123456789", []internal.TranscriptMessage{
				{Role: internal.RoleAssistant, Content: "no model"},
				{Role: internal.RoleUnknown, Content: "who"},
			}),
			want: []string{
				"# Conversation 01234567\n",
				"_Created: unknown_",
				"### AI\n\nno model",
				"### Unknown\n\nwho",
			},
			notWant: []string{"**Selected Code:**"},
		},
		{
			name:       "empty transcript",
			transcript: internal.CreateTestTranscriptWithMessages("empty", nil),
			want:       []string{"# Conversation empty\n", "---\n"},
			notWant:    []string{"###"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&MarkdownExporter{}).Export(tt.transcript, &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			output := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(output, want) {
					t.Errorf("Export() output missing %q\n%s", want, output)
				}
			}
			for _, not := range tt.notWant {
				if strings.Contains(output, not) {
					t.Errorf("Export() output contains %q\n%s", not, output)
				}
			}
		})
	}
}

func TestRenderMarkdown_CreatedLine(t *testing.T) {
	tr := internal.CreateTestTranscript("test1")
	want := "_Created: " + tr.CreatedAt.In(time.Local).Format(createdLayout) + "_\n\n---\n\n"

	got := string(RenderMarkdown(tr))
	if !strings.HasPrefix(got, "# Test Conversation\n\n"+want) {
		t.Errorf("RenderMarkdown() header = %q, want created line %q", got[:min(len(got), 80)], want)
	}
}

func TestMarkdownExporter_MessageOrder(t *testing.T) {
	tr := internal.CreateTestTranscriptWithMessages("order", []internal.TranscriptMessage{
		{Role: internal.RoleUser, Content: "first"},
		{Role: internal.RoleAssistant, Content: "second"},
		{Role: internal.RoleUser, Content: "third"},
	})

	output := string(RenderMarkdown(tr))
	first := strings.Index(output, "first")
	second := strings.Index(output, "second")
	third := strings.Index(output, "third")
	if first >= second || second >= third {
		t.Errorf("RenderMarkdown() messages out of order: %d %d %d", first, second, third)
	}
	if got := strings.Count(output, "\n---\n"); got != 4 {
		t.Errorf("RenderMarkdown() separators = %d, want 4", got)
	}
}
