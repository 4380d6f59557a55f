package export

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/iksnae/cursor-chat-browser/internal"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

var htmlPage = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body {
      max-width: 800px;
      margin: 40px auto;
      padding: 0 20px;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
      line-height: 1.6;
      color: #333;
    }
    pre {
      background: #f5f5f5;
      padding: 1em;
      overflow-x: auto;
      border-radius: 4px;
      border: 1px solid #ddd;
    }
    code {
      font-family: ui-monospace, SFMono-Regular, Menlo, Monaco, Consolas, "Liberation Mono", "Courier New", monospace;
      font-size: 0.9em;
    }
    hr {
      border: none;
      border-top: 1px solid #ddd;
      margin: 2em 0;
    }
    h1, h2, h3 {
      margin-top: 2em;
      margin-bottom: 1em;
    }
    blockquote {
      border-left: 4px solid #ddd;
      margin: 0;
      padding-left: 1em;
      color: #666;
    }
    @media (prefers-color-scheme: dark) {
      body {
        background: #1a1a1a;
        color: #ddd;
      }
      pre {
        background: #2d2d2d;
        border-color: #404040;
      }
      blockquote {
        border-color: #404040;
        color: #999;
      }
    }
  </style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HTMLExporter exports transcripts as a standalone HTML page
type HTMLExporter struct{}

// Export renders the Markdown form of a transcript to sanitized HTML
func (e *HTMLExporter) Export(t *internal.Transcript, w io.Writer) error {
	body, err := RenderHTML(RenderMarkdown(t))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := htmlPage.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{Title: t.DisplayTitle(), Body: template.HTML(body)}); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// RenderHTML converts Markdown to HTML and strips anything outside the
// user-generated-content policy.
func RenderHTML(markdown []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("failed to convert markdown: %w", err)
	}
	return bluemonday.UGCPolicy().SanitizeBytes(buf.Bytes()), nil
}

// Extension returns the file extension for this format
func (e *HTMLExporter) Extension() string {
	return "html"
}

// ContentType returns the MIME type for this format
func (e *HTMLExporter) ContentType() string {
	return "text/html; charset=utf-8"
}
