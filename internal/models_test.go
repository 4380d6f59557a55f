package internal

import (
	"errors"
	"testing"
	"time"
)

func TestParseRecordKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    RecordKey
		wantErr bool
	}{
		{
			name: "bubble key",
			key:  "bubbleId:chat123:bubble456",
			want: RecordKey{Prefix: "bubbleId", ConversationID: "chat123", RecordID: "bubble456"},
		},
		{
			name: "record id keeps extra colons",
			key:  "bubbleId:chat:a:b",
			want: RecordKey{Prefix: "bubbleId", ConversationID: "chat", RecordID: "a:b"},
		},
		{
			name:    "empty record id",
			key:     "bubbleId:chat:",
			wantErr: true,
		},
		{
			name:    "two segments",
			key:     "bubbleId:chat",
			wantErr: true,
		},
		{
			name:    "empty conversation id",
			key:     "bubbleId::bubble",
			wantErr: true,
		},
		{
			name:    "no separator",
			key:     "bubbleId",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecordKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRecordKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedKey) {
					t.Errorf("ParseRecordKey() error = %v, want ErrMalformedKey", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseRecordKey() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBubbleKey(t *testing.T) {
	if got := BubbleKey("c1", "b1"); got != "bubbleId:c1:b1" {
		t.Errorf("BubbleKey() = %q, want %q", got, "bubbleId:c1:b1")
	}
}

func TestParseRawComposer(t *testing.T) {
	key := "composerData:composer123"
	value := `{"name":"Test Conversation","createdAt":1000,"fullConversationHeadersOnly":[{"bubbleId":"b1","type":1},{"bubbleId":"b2","type":2}]}`

	composer, err := ParseRawComposer(key, value)
	if err != nil {
		t.Fatalf("ParseRawComposer() error = %v", err)
	}
	if composer.ComposerID != "composer123" {
		t.Errorf("ComposerID = %v, want composer123", composer.ComposerID)
	}
	if composer.Name != "Test Conversation" {
		t.Errorf("Name = %v, want Test Conversation", composer.Name)
	}
	if got := composer.MessageCount(); got != 2 {
		t.Errorf("MessageCount() = %d, want 2", got)
	}
	if got := composer.GetLastUpdatedAt(); !got.Equal(time.UnixMilli(1000)) {
		t.Errorf("GetLastUpdatedAt() = %v, want creation time", got)
	}
}

func TestParseRawComposer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
	}{
		{name: "wrong prefix", key: "bubbleId:x", value: `{}`, wantErr: ErrMalformedKey},
		{name: "empty id", key: "composerData:", value: `{}`, wantErr: ErrMalformedKey},
		{name: "invalid JSON", key: "composerData:abc", value: `not json`, wantErr: ErrRecordParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRawComposer(tt.key, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseRawComposer() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRawComposer_HeadersFromInlineConversation(t *testing.T) {
	composer, err := ParseRawComposer("composerData:c1",
		`{"conversation":[{"bubbleId":"b1","type":1,"text":"hi"},{"type":2},{"bubbleId":"b3","type":2}]}`)
	if err != nil {
		t.Fatalf("ParseRawComposer() error = %v", err)
	}

	headers := composer.Headers()
	if len(headers) != 2 {
		t.Fatalf("Headers() returned %d headers, want 2", len(headers))
	}
	if headers[0].BubbleID != "b1" || headers[1].BubbleID != "b3" {
		t.Errorf("Headers() = %+v, want b1 and b3", headers)
	}
	if got := composer.MessageCount(); got != 3 {
		t.Errorf("MessageCount() = %d, want 3", got)
	}
}

func TestParseMessageContext(t *testing.T) {
	mc, err := ParseMessageContext("messageRequestContext:comp1:ctx1", `{"bubbleId":"b1","projectLayouts":["/src"]}`)
	if err != nil {
		t.Fatalf("ParseMessageContext() error = %v", err)
	}
	if mc.ComposerID != "comp1" || mc.ContextID != "ctx1" {
		t.Errorf("ParseMessageContext() ids = %q/%q, want comp1/ctx1", mc.ComposerID, mc.ContextID)
	}
	if len(mc.ProjectLayouts) != 1 || mc.ProjectLayouts[0] != "/src" {
		t.Errorf("ProjectLayouts = %v, want [/src]", mc.ProjectLayouts)
	}
}

func TestRawComposer_Timestamps(t *testing.T) {
	composer := CreateTestRawComposer("c1", "Refactor")
	if got := composer.GetLastUpdatedAt(); !got.Equal(testObservedAt.Truncate(time.Millisecond)) {
		t.Errorf("GetLastUpdatedAt() = %v, want %v", got, testObservedAt)
	}

	composer.LastUpdatedAt = 0
	if got, want := composer.GetLastUpdatedAt(), composer.GetCreatedAt(); !got.Equal(want) {
		t.Errorf("GetLastUpdatedAt() without update = %v, want created %v", got, want)
	}

	composer.CreatedAt = 0
	if got := composer.GetLastUpdatedAt(); !got.IsZero() {
		t.Errorf("GetLastUpdatedAt() without times = %v, want zero", got)
	}
	if got := composer.MessageCount(); got != 0 {
		t.Errorf("MessageCount() = %d, want 0", got)
	}
}
