package internal

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"
)

// extractText applies the text fallback chain to a decoded bubble. Each tier
// is consulted only when the previous one is empty after trimming:
//  1. text, or plain text recovered from richText
//  2. code block contents joined by a blank line
//  3. tool result outputs joined by a blank line
func extractText(obj map[string]any, blocks []CodeBlock, results []ToolResult) string {
	if text := directText(obj); strings.TrimSpace(text) != "" {
		return text
	}

	var parts []string
	for _, b := range blocks {
		if strings.TrimSpace(b.Code) != "" {
			parts = append(parts, b.Code)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n\n")
	}

	for _, r := range results {
		if strings.TrimSpace(r.Output) != "" {
			parts = append(parts, r.Output)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n\n")
	}

	return ""
}

// directText returns the bubble's text field, falling back to richText.
func directText(obj map[string]any) string {
	if text, _ := obj["text"].(string); strings.TrimSpace(text) != "" {
		return text
	}

	switch rt := obj["richText"].(type) {
	case string:
		return richTextToPlain(rt)
	case map[string]any, []any:
		data, err := json.Marshal(rt)
		if err != nil {
			return ""
		}
		return richTextToPlain(string(data))
	}
	return ""
}

// richTextToPlain converts a richText value to plain text. Values that are not
// JSON are used verbatim.
func richTextToPlain(rt string) string {
	trimmed := strings.TrimSpace(rt)
	if trimmed == "" {
		return ""
	}
	if !json.Valid([]byte(trimmed)) {
		return rt
	}

	text, err := ExtractTextFromRichText(trimmed)
	if err != nil {
		LogDebug("Failed to parse richText JSON: %v, trying fallback extraction", err)
		return extractFallbackText(trimmed)
	}
	return text
}

// extractFallbackText collects every "text" string value found anywhere in a
// JSON document. It is used when richText has an unknown shape.
func extractFallbackText(jsonStr string) string {
	var doc any
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return ""
	}

	var parts []string
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case map[string]any:
			if s, ok := t["text"].(string); ok && s != "" {
				parts = append(parts, s)
			}
			for _, k := range slices.Sorted(maps.Keys(t)) {
				if k != "text" {
					walk(t[k])
				}
			}
		case []any:
			for _, child := range t {
				walk(child)
			}
		}
	}
	walk(doc)

	return strings.TrimSpace(strings.Join(parts, " "))
}
