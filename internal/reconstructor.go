package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Reconstructor rebuilds composer conversations from their bubble records.
type Reconstructor struct {
	store *RecordStore
	now   time.Time
}

// NewReconstructor creates a Reconstructor reading from store. now is stamped
// as ObservedAt on the normalized bubbles.
func NewReconstructor(store *RecordStore, now time.Time) *Reconstructor {
	return &Reconstructor{store: store, now: now}
}

// LoadComposer reads composerData:<id>.
func (r *Reconstructor) LoadComposer(ctx context.Context, composerID string) (*RawComposer, error) {
	rec, ok, err := r.store.GetByKey(ctx, ComposerPrefix+composerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("composer %s: %w", composerID, ErrConversationNotFound)
	}
	return ParseRawComposer(rec.Key, rec.Value)
}

// ReconstructConversation resolves a composer's bubble headers against the
// store and returns the conversation in header order. Bubbles that are missing
// or unparseable are skipped and counted.
func (r *Reconstructor) ReconstructConversation(ctx context.Context, composer *RawComposer) (*Transcript, ParseStats, error) {
	var stats ParseStats
	if composer == nil {
		return nil, stats, fmt.Errorf("composer is nil")
	}

	t := &Transcript{
		ID:        composer.ComposerID,
		Kind:      KindComposer,
		Title:     composer.Name,
		CreatedAt: composer.GetCreatedAt(),
		UpdatedAt: composer.GetLastUpdatedAt(),
	}

	headers := composer.Headers()
	if len(headers) == 0 {
		t.Messages = inlineMessages(composer, r.now, &stats)
		return t, stats, nil
	}

	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = BubbleKey(composer.ComposerID, h.BubbleID)
	}
	raws, err := r.store.ListByKeys(ctx, keys)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to load bubbles for %s: %w", composer.ComposerID, err)
	}

	byID := make(map[string]*NormalizedRecord, len(raws))
	for _, raw := range raws {
		rec, err := Normalize(raw, r.now)
		stats.Record(err)
		if err != nil {
			LogDebug("Failed to normalize bubble %s: %v", raw.Key, err)
			continue
		}
		byID[rec.RecordID] = rec
	}

	for _, h := range headers {
		rec, ok := byID[h.BubbleID]
		if !ok {
			LogDebug("Bubble %s not found for composer %s", h.BubbleID, composer.ComposerID)
			continue
		}
		if rec.Text == "" {
			LogDebug("Skipping empty message bubble %s", h.BubbleID)
			continue
		}
		role := rec.Role
		if role == RoleUnknown {
			role = coerceRole(float64(h.Type))
		}
		t.Messages = append(t.Messages, TranscriptMessage{
			ID:      rec.RecordID,
			Role:    role,
			Content: rec.Text,
			RowID:   rec.RowID,
		})
	}

	return t, stats, nil
}

// inlineMessages decodes bubbles embedded directly in a legacy composer.
func inlineMessages(composer *RawComposer, now time.Time, stats *ParseStats) []TranscriptMessage {
	var msgs []TranscriptMessage
	for i, raw := range composer.Conversation {
		var head struct {
			BubbleID string `json:"bubbleId"`
		}
		_ = json.Unmarshal(raw, &head)
		id := head.BubbleID
		if id == "" {
			id = fmt.Sprintf("inline-%d", i)
		}

		rec, err := Normalize(RawRecord{Key: BubbleKey(composer.ComposerID, id), RowID: int64(i), Value: string(raw)}, now)
		stats.Record(err)
		if err != nil || rec.Text == "" {
			continue
		}
		msgs = append(msgs, TranscriptMessage{ID: id, Role: rec.Role, Content: rec.Text})
	}
	return msgs
}

// ConversationTranscript converts a group of global bubbles into a transcript.
func ConversationTranscript(id string, records []*NormalizedRecord) *Transcript {
	t := &Transcript{ID: id, Kind: KindConversation, Title: ConversationTitle(id, records, "Conversation ")}
	for _, rec := range records {
		if rec.Text == "" {
			continue
		}
		t.Messages = append(t.Messages, TranscriptMessage{
			ID:      rec.RecordID,
			Role:    rec.Role,
			Content: rec.Text,
			RowID:   rec.RowID,
		})
	}
	return t
}
