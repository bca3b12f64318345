package conversations

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/eduzen-bot/server/internal/agent/model"
	"github.com/eduzen-bot/server/internal/agent/repo"
)

func newManager(maxTurns int) *MessagesManager {
	var cfg model.ConversationConfig
	cfg.Reason.MaxTurns = maxTurns
	return NewMessagesManager(repo.NewInMemoryConversationRepository(), cfg)
}

func TestBuildReasonContextTrimsTail(t *testing.T) {
	mm := newManager(2)
	ctx := context.Background()

	for _, q := range []string{"first", "second", "third"} {
		if err := mm.RecordUserMessage(ctx, "t1", q); err != nil {
			t.Fatalf("RecordUserMessage: %v", err)
		}
	}

	msgs, err := mm.BuildReasonContext(ctx, "t1", "persona")
	if err != nil {
		t.Fatalf("BuildReasonContext: %v", err)
	}
	// system + the last two messages
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	if msgs[0].Role != schema.System || msgs[0].Content != "persona" {
		t.Errorf("first message = %+v, want the system persona", msgs[0])
	}
	if msgs[1].Content != "second" || msgs[2].Content != "third" {
		t.Errorf("tail = %q, %q; want second, third", msgs[1].Content, msgs[2].Content)
	}
}

func TestBuildDecideContextKeepsFullHistory(t *testing.T) {
	mm := newManager(1)
	ctx := context.Background()

	if err := mm.RecordUserMessage(ctx, "t1", "hello"); err != nil {
		t.Fatalf("RecordUserMessage: %v", err)
	}
	if err := mm.SaveReasoning(ctx, "t1", "the user greeted me"); err != nil {
		t.Fatalf("SaveReasoning: %v", err)
	}
	if err := mm.SaveResponse(ctx, "t1", "Hi there!"); err != nil {
		t.Fatalf("SaveResponse: %v", err)
	}

	msgs, err := mm.BuildDecideContext(ctx, "t1", "persona")
	if err != nil {
		t.Fatalf("BuildDecideContext: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	if !strings.HasPrefix(msgs[2].Content, model.ReasoningPrefix) {
		t.Errorf("reasoning trace %q is not tagged", msgs[2].Content)
	}
	if msgs[3].Content != "Hi there!" {
		t.Errorf("last message = %q, want the reply", msgs[3].Content)
	}
}

func TestClearUnknownThread(t *testing.T) {
	mm := newManager(10)
	if err := mm.Clear(context.Background(), "never-seen"); err != nil {
		t.Fatalf("Clear(unknown) = %v, want nil", err)
	}
}
