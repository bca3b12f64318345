package repo

import (
	"context"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func TestInMemoryLoadUnknownThread(t *testing.T) {
	r := NewInMemoryConversationRepository()

	hist, err := r.LoadHistory(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(hist.Messages) != 0 {
		t.Errorf("LoadHistory on unknown thread = %d messages, want 0", len(hist.Messages))
	}
}

func TestInMemoryAddPreservesOrder(t *testing.T) {
	r := NewInMemoryConversationRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		msg := schema.UserMessage(fmt.Sprintf("message-%d", i))
		if err := r.AddMessage(ctx, "t1", msg); err != nil {
			t.Fatalf("AddMessage(%d): %v", i, err)
		}
	}

	hist, err := r.LoadHistory(ctx, "t1")
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(hist.Messages) != 5 {
		t.Fatalf("LoadHistory = %d messages, want 5", len(hist.Messages))
	}
	for i, m := range hist.Messages {
		want := fmt.Sprintf("message-%d", i)
		if m.Content != want {
			t.Errorf("message %d = %q, want %q", i, m.Content, want)
		}
	}

	n, err := r.GetMessageCount(ctx, "t1")
	if err != nil {
		t.Fatalf("GetMessageCount: %v", err)
	}
	if n != 5 {
		t.Errorf("GetMessageCount = %d, want 5", n)
	}
}

func TestInMemoryThreadsAreIsolated(t *testing.T) {
	r := NewInMemoryConversationRepository()
	ctx := context.Background()

	if err := r.AddMessage(ctx, "a", schema.UserMessage("hello")); err != nil {
		t.Fatalf("AddMessage: %v", err)
	}

	hist, err := r.LoadHistory(ctx, "b")
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(hist.Messages) != 0 {
		t.Errorf("thread b sees %d messages from thread a", len(hist.Messages))
	}
}

func TestInMemoryClearIsIdempotent(t *testing.T) {
	r := NewInMemoryConversationRepository()
	ctx := context.Background()

	if err := r.AddMessage(ctx, "t1", schema.UserMessage("hi")); err != nil {
		t.Fatalf("AddMessage: %v", err)
	}

	if err := r.ClearHistory(ctx, "t1"); err != nil {
		t.Fatalf("ClearHistory (first): %v", err)
	}
	if err := r.ClearHistory(ctx, "t1"); err != nil {
		t.Fatalf("ClearHistory (second): %v", err)
	}
	if err := r.ClearHistory(ctx, "never-seen"); err != nil {
		t.Fatalf("ClearHistory (unknown thread): %v", err)
	}

	n, err := r.GetMessageCount(ctx, "t1")
	if err != nil {
		t.Fatalf("GetMessageCount: %v", err)
	}
	if n != 0 {
		t.Errorf("GetMessageCount after clear = %d, want 0", n)
	}
}
