package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/iksnae/cursor-chat-browser/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(t *internal.Transcript, w io.Writer) error
	Extension() string
	ContentType() string
}

// Formats lists the accepted format names.
var Formats = []string{"md", "html", "pdf", "json", "jsonl", "yaml"}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "html":
		return &HTMLExporter{}, nil
	case "pdf":
		return &PDFExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// Filename returns a file name for t: the title when it has one, otherwise
// "<kind>-<id>", with path separators and control characters replaced.
func Filename(t *internal.Transcript, e Exporter) string {
	base := t.Title
	if base == "" {
		kind := t.Kind
		if kind == "" {
			kind = internal.KindChat
		}
		base = kind + "-" + t.ID
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, base)
	base = strings.Trim(strings.TrimSpace(base), ".")
	if base == "" {
		base = "export"
	}
	if len(base) > 120 {
		base = strings.ToValidUTF8(base[:120], "")
	}
	return filepath.Clean(base + "." + e.Extension())
}
