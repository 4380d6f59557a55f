package export

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/iksnae/cursor-chat-browser/internal"
)

// createdLayout formats the creation line.
const createdLayout = "Jan 2, 2006, 3:04:05 PM"

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(t *internal.Transcript, w io.Writer) error {
	_, err := w.Write(RenderMarkdown(t))
	return err
}

// RenderMarkdown renders a transcript as Markdown. HTML and PDF exports are
// built from this document.
func RenderMarkdown(t *internal.Transcript) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# %s\n\n", t.DisplayTitle())
	created := "unknown"
	if ts := t.CreatedAt; !ts.IsZero() {
		created = ts.In(time.Local).Format(createdLayout)
	}
	fmt.Fprintf(&b, "_Created: %s_\n\n---\n\n", created)

	for _, msg := range t.Messages {
		fmt.Fprintf(&b, "### %s\n\n", speaker(msg))

		if len(msg.Selections) > 0 {
			b.WriteString("**Selected Code:**\n\n")
			for _, sel := range msg.Selections {
				fmt.Fprintf(&b, "```\n%s\n```\n\n", sel)
			}
		}

		if msg.Content != "" {
			b.WriteString(msg.Content)
			b.WriteString("\n\n")
		}

		b.WriteString("---\n\n")
	}

	return b.Bytes()
}

func speaker(msg internal.TranscriptMessage) string {
	switch msg.Role {
	case internal.RoleAssistant:
		if msg.Model != "" {
			return "AI (" + msg.Model + ")"
		}
		return "AI"
	case internal.RoleUser:
		return "User"
	}
	return "Unknown"
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}

// ContentType returns the MIME type for this format
func (e *MarkdownExporter) ContentType() string {
	return "text/markdown; charset=utf-8"
}
