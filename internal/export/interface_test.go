package export

import (
	"testing"

	"github.com/iksnae/cursor-chat-browser/internal"
)

func TestNewExporter(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		wantExt  string
		wantType string
		wantErr  bool
	}{
		{name: "jsonl format", format: "jsonl", wantExt: "jsonl", wantType: "*export.JSONLExporter"},
		{name: "markdown format", format: "md", wantExt: "md", wantType: "*export.MarkdownExporter"},
		{name: "markdown format long", format: "markdown", wantExt: "md", wantType: "*export.MarkdownExporter"},
		{name: "html format", format: "html", wantExt: "html", wantType: "*export.HTMLExporter"},
		{name: "pdf format", format: "pdf", wantExt: "pdf", wantType: "*export.PDFExporter"},
		{name: "yaml format", format: "yaml", wantExt: "yaml", wantType: "*export.YAMLExporter"},
		{name: "yml alias", format: "yml", wantExt: "yaml", wantType: "*export.YAMLExporter"},
		{name: "json format", format: "json", wantExt: "json", wantType: "*export.JSONExporter"},
		{name: "upper case", format: "JSON", wantExt: "json", wantType: "*export.JSONExporter"},
		{name: "unsupported format", format: "xml", wantErr: true},
		{name: "empty format", format: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter, err := NewExporter(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewExporter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if exporter != nil {
					t.Errorf("NewExporter() returned exporter %T, want nil", exporter)
				}
				return
			}
			if got := exporter.Extension(); got != tt.wantExt {
				t.Errorf("Extension() = %v, want %v", got, tt.wantExt)
			}
			if got := typeName(exporter); got != tt.wantType {
				t.Errorf("NewExporter() type = %v, want %v", got, tt.wantType)
			}
			if exporter.ContentType() == "" {
				t.Error("ContentType() is empty")
			}
		})
	}
}

func TestFormatsAreSupported(t *testing.T) {
	for _, format := range Formats {
		if _, err := NewExporter(format); err != nil {
			t.Errorf("NewExporter(%q) error = %v", format, err)
		}
	}
}

func TestFilename(t *testing.T) {
	md := &MarkdownExporter{}
	tests := []struct {
		name       string
		transcript *internal.Transcript
		want       string
	}{
		{
			name:       "title",
			transcript: &internal.Transcript{ID: "abc", Title: "Fix the parser"},
			want:       "Fix the parser.md",
		},
		{
			name:       "no title uses kind and id",
			transcript: &internal.Transcript{ID: "abc", Kind: internal.KindComposer},
			want:       "composer-abc.md",
		},
		{
			name:       "no kind",
			transcript: &internal.Transcript{ID: "abc"},
			want:       "chat-abc.md",
		},
		{
			name:       "path separators replaced",
			transcript: &internal.Transcript{ID: "abc", Title: "../etc/passwd"},
			want:       "_etc_passwd.md",
		},
		{
			name:       "control characters dropped",
			transcript: &internal.Transcript{ID: "abc", Title: "line\none"},
			want:       "lineone.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Filename(tt.transcript, md); got != tt.want {
				t.Errorf("Filename() = %v, want %v", got, tt.want)
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *JSONLExporter:
		return "*export.JSONLExporter"
	case *MarkdownExporter:
		return "*export.MarkdownExporter"
	case *HTMLExporter:
		return "*export.HTMLExporter"
	case *PDFExporter:
		return "*export.PDFExporter"
	case *YAMLExporter:
		return "*export.YAMLExporter"
	case *JSONExporter:
		return "*export.JSONExporter"
	}
	return ""
}
