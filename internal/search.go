package internal

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	snippetContext      = 50
	selectionSnippetLen = 100
)

// SearchResult is one chat tab or composer matching a query.
type SearchResult struct {
	WorkspaceID     string    `json:"workspaceId"`
	WorkspaceFolder string    `json:"workspaceFolder,omitempty"`
	ChatID          string    `json:"chatId"`
	ChatTitle       string    `json:"chatTitle"`
	Type            string    `json:"type"`
	Timestamp       time.Time `json:"timestamp,omitzero"`
	MatchingText    string    `json:"matchingText"`
}

// Search looks for query, case-insensitively, in chat tab bubbles and their
// selections, and in composer names and texts of every workspace under root.
// Results are newest first.
func Search(ctx context.Context, root, query string) ([]SearchResult, error) {
	results := []SearchResult{}
	if strings.TrimSpace(query) == "" {
		return results, nil
	}

	workspaces, err := ListWorkspaces(ctx, root)
	if err != nil {
		return nil, err
	}

	for _, ws := range workspaces {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		store, err := OpenRecordStore(ctx, ws.Path)
		if err != nil {
			continue
		}
		results = append(results, searchWorkspace(ctx, store, ws, query)...)
		store.Close()
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})
	return results, nil
}

func searchWorkspace(ctx context.Context, store *RecordStore, ws WorkspaceInfo, query string) []SearchResult {
	var results []SearchResult

	tabs, err := LoadTabs(ctx, store)
	if err != nil {
		LogDebug("search %s: %v", ws.ID, err)
	}
	for _, tab := range tabs {
		if snippet, ok := matchTab(tab, query); ok {
			results = append(results, SearchResult{
				WorkspaceID:     ws.ID,
				WorkspaceFolder: ws.Folder,
				ChatID:          tab.ID,
				ChatTitle:       tab.Title,
				Type:            KindChat,
				Timestamp:       tab.Timestamp,
				MatchingText:    snippet,
			})
		}
	}

	composers, err := LoadComposerList(ctx, store)
	if err != nil {
		LogDebug("search %s: %v", ws.ID, err)
	}
	for _, c := range composers {
		snippet, ok := Snippet(c.Name, query)
		if !ok {
			snippet, ok = Snippet(c.Text, query)
		}
		if !ok {
			continue
		}
		title := c.Name
		if title == "" {
			title = "Composer " + shortID(c.ComposerID)
		}
		results = append(results, SearchResult{
			WorkspaceID:     ws.ID,
			WorkspaceFolder: ws.Folder,
			ChatID:          c.ComposerID,
			ChatTitle:       title,
			Type:            KindComposer,
			Timestamp:       c.GetLastUpdatedAt(),
			MatchingText:    snippet,
		})
	}
	return results
}

// matchTab returns a snippet of the first bubble text or selection that
// contains query.
func matchTab(tab ChatTab, query string) (string, bool) {
	for _, b := range tab.Bubbles {
		if snippet, ok := Snippet(b.Text, query); ok {
			return snippet, true
		}
		for _, sel := range b.Selections {
			if containsFold(sel.Text, query) {
				text := sel.Text
				if utf8.RuneCountInString(text) > selectionSnippetLen {
					text = truncateRunes(text, selectionSnippetLen) + "..."
				}
				return "Selection: " + text, true
			}
		}
	}
	return "", false
}

// Snippet returns up to 50 runes of context on each side of the first
// case-insensitive match of query in text, with "..." marking cut ends.
func Snippet(text, query string) (string, bool) {
	if text == "" || query == "" {
		return "", false
	}
	runes := []rune(text)
	lower := []rune(strings.ToLower(text))
	q := []rune(strings.ToLower(query))
	if len(lower) != len(runes) {
		// Lowercasing changed the rune count; fall back to byte search.
		idx := strings.Index(strings.ToLower(text), strings.ToLower(query))
		if idx < 0 {
			return "", false
		}
		return byteSnippet(text, idx, len(query)), true
	}

	idx := indexRunes(lower, q)
	if idx < 0 {
		return "", false
	}
	start := max(0, idx-snippetContext)
	end := min(len(runes), idx+len(q)+snippetContext)

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(string(runes[start:end]))
	if end < len(runes) {
		b.WriteString("...")
	}
	return b.String(), true
}

func byteSnippet(text string, idx, n int) string {
	start := max(0, idx-snippetContext)
	end := min(len(text), idx+n+snippetContext)
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	s := text[start:end]
	if start > 0 {
		s = "..." + s
	}
	if end < len(text) {
		s += "..."
	}
	return s
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
