package internal

import "fmt"

// ScoreStrategy decides how much activity a conversation shows.
type ScoreStrategy string

const (
	// ScoreContent weights each record by the payloads it carries.
	ScoreContent ScoreStrategy = "content"
	// ScoreTextCount counts records with non-empty text.
	ScoreTextCount ScoreStrategy = "text-count"
)

// ParseScoreStrategy validates a strategy name. Empty selects ScoreContent.
func ParseScoreStrategy(s string) (ScoreStrategy, error) {
	switch ScoreStrategy(s) {
	case "", ScoreContent:
		return ScoreContent, nil
	case ScoreTextCount:
		return ScoreTextCount, nil
	}
	return "", fmt.Errorf("unknown score strategy %q (want %q or %q)", s, ScoreContent, ScoreTextCount)
}

// Selection is the conversation chosen as active.
type Selection struct {
	ConversationID string
	Score          int
	Records        []*NormalizedRecord
}

// ScoreRecord returns the content score of one record.
func ScoreRecord(r *NormalizedRecord) int {
	score := 0
	if r.Text != "" {
		score += 10
	}
	if len(r.ToolResults) > 0 {
		score += 5
	}
	if len(r.CodeBlocks) > 0 {
		score += 5
	}
	if len(r.AttachedFiles) > 0 {
		score += 3
	}
	if len(r.GitDiffs) > 0 {
		score += 3
	}
	if len(r.Lints) > 0 {
		score += 2
	}
	if len(r.Capabilities) > 0 {
		score++
	}
	return score
}

// Score returns the score of a conversation under strategy.
func Score(records []*NormalizedRecord, strategy ScoreStrategy) int {
	total := 0
	for _, r := range records {
		switch strategy {
		case ScoreTextCount:
			if r.Text != "" {
				total++
			}
		default:
			total += ScoreRecord(r)
		}
	}
	return total
}

// SelectActive picks the highest-scoring conversation. Only a strictly higher
// score replaces the current best, so ties keep the earliest id in Order.
// It reports false when no conversation scores above zero.
func SelectActive(groups *ConversationGroups, strategy ScoreStrategy) (Selection, bool) {
	var best Selection
	for _, id := range groups.Order {
		recs := groups.Groups[id]
		if s := Score(recs, strategy); s > best.Score {
			best = Selection{ConversationID: id, Score: s, Records: recs}
		}
	}
	return best, best.Score > 0
}
