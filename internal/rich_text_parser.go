package internal

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RichTextNode represents a node in the Lexical rich text tree
type RichTextNode struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	Content  string         `json:"content,omitempty"`
	Value    string         `json:"value,omitempty"`
	Children []RichTextNode `json:"children,omitempty"`
}

// RichTextRoot represents the root of the rich text structure
type RichTextRoot struct {
	Root RichTextNode `json:"root"`
}

// ExtractTextFromRichText parses richText JSON and extracts plain text.
// Paragraph-level nodes are separated by newlines and code nodes are fenced.
func ExtractTextFromRichText(richTextJSON string) (string, error) {
	if strings.TrimSpace(richTextJSON) == "" {
		return "", nil
	}

	var root RichTextRoot
	if err := json.Unmarshal([]byte(richTextJSON), &root); err == nil && len(root.Root.Children) > 0 {
		return strings.TrimSpace(extractTextFromChildren(root.Root.Children)), nil
	}

	var node RichTextNode
	if err := json.Unmarshal([]byte(richTextJSON), &node); err == nil && (node.Type != "" || len(node.Children) > 0) {
		return strings.TrimSpace(extractTextFromNode(node)), nil
	}

	var nodes []RichTextNode
	if err := json.Unmarshal([]byte(richTextJSON), &nodes); err == nil {
		return strings.TrimSpace(extractTextFromChildren(nodes)), nil
	}

	return "", fmt.Errorf("failed to parse richText JSON in any known format")
}

// extractTextFromNode recursively extracts text from a node
func extractTextFromNode(node RichTextNode) string {
	switch node.Type {
	case "text", "code-highlight", "mention":
		return node.Text
	case "linebreak":
		return "\n"
	case "code":
		codeText := extractTextFromChildren(node.Children)
		if codeText == "" {
			return ""
		}
		return "\n```\n" + codeText + "\n```\n"
	case "paragraph", "heading", "quote", "listitem":
		return extractTextFromChildren(node.Children) + "\n"
	case "thinking", "tool", "tool_call", "function_call":
		inner := extractTextFromChildren(node.Children)
		if inner == "" {
			return ""
		}
		return fmt.Sprintf("\n[%s]\n%s\n", node.Type, inner)
	}

	var parts []string
	for _, s := range []string{node.Text, node.Content, node.Value} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	text := strings.Join(parts, "\n")

	if len(node.Children) > 0 {
		childrenText := extractTextFromChildren(node.Children)
		if childrenText != "" {
			if text != "" && !strings.HasSuffix(text, "\n") {
				text += "\n"
			}
			text += childrenText
		}
	}
	return text
}

// extractTextFromChildren extracts text from an array of nodes
func extractTextFromChildren(children []RichTextNode) string {
	var b strings.Builder
	for _, child := range children {
		b.WriteString(extractTextFromNode(child))
	}
	return b.String()
}
