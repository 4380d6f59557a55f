package export

import (
	"bytes"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/iksnae/cursor-chat-browser/internal"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	pdfLineHeight = 5.5
	pdfCodeLine   = 4.5
)

// PDFExporter exports transcripts as PDF documents laid out from their
// Markdown form.
type PDFExporter struct{}

// Export writes a PDF rendering of the transcript
func (e *PDFExporter) Export(t *internal.Transcript, w io.Writer) error {
	source := RenderMarkdown(t)
	doc := markdownRenderer.Parser().Parse(text.NewReader(source))

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(t.DisplayTitle(), true)
	pdf.SetCreator("cursor-chat-browser", true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	r := &pdfRenderer{pdf: pdf, source: source, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	if err := ast.Walk(doc, r.walk); err != nil {
		return &internal.ExportError{Format: "pdf", Err: err}
	}
	if err := pdf.Error(); err != nil {
		return &internal.ExportError{Format: "pdf", Err: err}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return &internal.ExportError{Format: "pdf", Err: err}
	}
	_, err := buf.WriteTo(w)
	return err
}

type pdfRenderer struct {
	pdf    *fpdf.Fpdf
	source []byte
	tr     func(string) string
}

func (r *pdfRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	switch node := n.(type) {
	case *ast.Heading:
		sizes := map[int]float64{1: 18, 2: 15, 3: 13}
		size, ok := sizes[node.Level]
		if !ok {
			size = 12
		}
		r.pdf.Ln(2)
		r.pdf.SetFont("Helvetica", "B", size)
		r.pdf.MultiCell(0, size*0.5, r.tr(inlineText(node, r.source)), "", "L", false)
		r.pdf.Ln(2)
		return ast.WalkSkipChildren, nil

	case *ast.Paragraph:
		style := ""
		if isEmphasisOnly(node) {
			style = "I"
		}
		r.pdf.SetFont("Helvetica", style, 11)
		r.pdf.MultiCell(0, pdfLineHeight, r.tr(inlineText(node, r.source)), "", "L", false)
		r.pdf.Ln(2)
		return ast.WalkSkipChildren, nil

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		r.code(codeLines(node, r.source))
		return ast.WalkSkipChildren, nil

	case *ast.ThematicBreak:
		left, _, right, _ := r.pdf.GetMargins()
		width, _ := r.pdf.GetPageSize()
		y := r.pdf.GetY() + 2
		r.pdf.SetDrawColor(200, 200, 200)
		r.pdf.Line(left, y, width-right, y)
		r.pdf.Ln(5)
		return ast.WalkSkipChildren, nil

	case *ast.ListItem:
		r.pdf.SetFont("Helvetica", "", 11)
		r.pdf.MultiCell(0, pdfLineHeight, r.tr("- "+blockText(node, r.source)), "", "L", false)
		return ast.WalkSkipChildren, nil

	case *ast.Blockquote:
		r.pdf.SetFont("Helvetica", "I", 11)
		r.pdf.SetTextColor(100, 100, 100)
		r.pdf.MultiCell(0, pdfLineHeight, r.tr(blockText(node, r.source)), "", "L", false)
		r.pdf.SetTextColor(0, 0, 0)
		r.pdf.Ln(2)
		return ast.WalkSkipChildren, nil

	case *ast.HTMLBlock:
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) code(code string) {
	r.pdf.SetFont("Courier", "", 9)
	r.pdf.SetFillColor(245, 245, 245)
	r.pdf.MultiCell(0, pdfCodeLine, r.tr(strings.TrimRight(code, "\n")), "1", "L", true)
	r.pdf.Ln(3)
}

// inlineText flattens the inline children of n.
func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(source))
			switch {
			case node.HardLineBreak():
				b.WriteByte('\n')
			case node.SoftLineBreak():
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.AutoLink:
			b.Write(node.Label(source))
		case *ast.RawHTML:
			continue
		default:
			b.WriteString(inlineText(c, source))
		}
	}
	return b.String()
}

// blockText joins the text of every block child of n.
func blockText(n ast.Node, source []byte) string {
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			parts = append(parts, codeLines(c, source))
		case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
			parts = append(parts, inlineText(c, source))
		default:
			parts = append(parts, blockText(c, source))
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func codeLines(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}

// isEmphasisOnly reports whether a paragraph is a single emphasis span, like
// the creation line.
func isEmphasisOnly(n ast.Node) bool {
	_, ok := n.FirstChild().(*ast.Emphasis)
	return ok && n.FirstChild() == n.LastChild()
}

// Extension returns the file extension for this format
func (e *PDFExporter) Extension() string {
	return "pdf"
}

// ContentType returns the MIME type for this format
func (e *PDFExporter) ContentType() string {
	return "application/pdf"
}
