package internal

import "sort"

// ConversationGroups maps conversation ids to their records in ascending
// rowid order. Order holds ids in first-seen order.
type ConversationGroups struct {
	Order  []string
	Groups map[string][]*NormalizedRecord
}

// GroupByConversation partitions records by conversation id. Every input
// record lands in exactly one group.
func GroupByConversation(records []*NormalizedRecord) *ConversationGroups {
	g := &ConversationGroups{Groups: make(map[string][]*NormalizedRecord)}
	for _, rec := range records {
		if _, ok := g.Groups[rec.ConversationID]; !ok {
			g.Order = append(g.Order, rec.ConversationID)
		}
		g.Groups[rec.ConversationID] = append(g.Groups[rec.ConversationID], rec)
	}
	for _, recs := range g.Groups {
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].RowID < recs[j].RowID
		})
	}
	return g
}

// Len returns the number of conversations.
func (g *ConversationGroups) Len() int {
	return len(g.Order)
}

// Get returns the records of one conversation.
func (g *ConversationGroups) Get(id string) ([]*NormalizedRecord, bool) {
	recs, ok := g.Groups[id]
	return recs, ok
}
