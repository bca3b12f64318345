package direct

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/eduzen-bot/server/internal/agent/model"
	"github.com/eduzen-bot/server/internal/agent/tools"
	"github.com/eduzen-bot/server/internal/leads"
)

func newTestAgent(t *testing.T, mock *model.MockChatModel) (*Agent, leads.Store) {
	t.Helper()
	store, err := leads.NewCSVStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	agent, err := New(context.Background(), mock, tools.NewRegistry(store), schema.SystemMessage("You are the EduZen assistant."))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return agent, store
}

func TestChatPlainReply(t *testing.T) {
	mock := &model.MockChatModel{Responses: []*schema.Message{
		schema.AssistantMessage("We connect students with teachers across Lebanon.", nil),
	}}
	agent, _ := newTestAgent(t, mock)

	reply, history := agent.Chat(context.Background(), "What does EduZen do?", nil)
	if reply != "We connect students with teachers across Lebanon." {
		t.Errorf("reply = %q", reply)
	}
	if len(history) != 1 || history[0].User != "What does EduZen do?" || history[0].Assistant != reply {
		t.Errorf("history = %+v, want one matching turn", history)
	}
	if len(mock.BoundTools) != 3 {
		t.Errorf("bound %d tools, want 3", len(mock.BoundTools))
	}
	if len(mock.Calls) != 1 {
		t.Fatalf("model called %d times, want 1", len(mock.Calls))
	}
	if first := mock.Calls[0][0]; first.Role != schema.System {
		t.Errorf("first message role = %q, want system", first.Role)
	}
}

func TestChatToolRoundTrip(t *testing.T) {
	toolCall := schema.ToolCall{
		ID: "call_abc",
		Function: schema.FunctionCall{
			Name:      tools.ToolRecordFeedback,
			Arguments: `{"user_question":"Do you cover music lessons?"}`,
		},
	}
	mock := &model.MockChatModel{Responses: []*schema.Message{
		schema.AssistantMessage("", []schema.ToolCall{toolCall}),
		schema.AssistantMessage("Your feedback has been recorded and our team will follow up. Thank you!", nil),
	}}
	agent, store := newTestAgent(t, mock)

	reply, history := agent.Chat(context.Background(), "Do you cover music lessons?", nil)
	if !strings.Contains(reply, "recorded") {
		t.Errorf("reply = %q, want the recorded status reflected", reply)
	}
	if len(history) != 1 {
		t.Fatalf("history has %d turns, want 1", len(history))
	}

	fb, err := store.Feedback(context.Background())
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if len(fb) != 1 || fb[0].Category != leads.CategoryGeneral || fb[0].Urgency != leads.UrgencyMedium {
		t.Fatalf("Feedback = %+v, want one record with default category/urgency", fb)
	}

	if len(mock.Calls) != 2 {
		t.Fatalf("model called %d times, want 2", len(mock.Calls))
	}
	second := mock.Calls[1]
	last := second[len(second)-1]
	if last.Role != schema.Tool || last.ToolCallID != "call_abc" || last.Name != tools.ToolRecordFeedback {
		t.Errorf("last message of second call = %+v, want tool result for call_abc", last)
	}
	if !strings.Contains(last.Content, "recorded") {
		t.Errorf("tool result %q should carry the recorded status", last.Content)
	}
}

func TestChatUnknownToolFedBack(t *testing.T) {
	toolCall := schema.ToolCall{Function: schema.FunctionCall{Name: "order_pizza", Arguments: `{}`}}
	mock := &model.MockChatModel{Responses: []*schema.Message{
		schema.AssistantMessage("", []schema.ToolCall{toolCall}),
		schema.AssistantMessage("Sorry, I can only help with EduZen services.", nil),
	}}
	agent, _ := newTestAgent(t, mock)

	reply, _ := agent.Chat(context.Background(), "Get me a pizza", nil)
	if reply != "Sorry, I can only help with EduZen services." {
		t.Errorf("reply = %q", reply)
	}
	second := mock.Calls[1]
	last := second[len(second)-1]
	if last.Role != schema.Tool {
		t.Fatalf("last message role = %q, want tool", last.Role)
	}
	if !strings.Contains(last.Content, "order_pizza") || !strings.Contains(last.Content, "failed") {
		t.Errorf("tool failure text %q should name the tool and the failure", last.Content)
	}
	if last.ToolCallID == "" {
		t.Error("empty tool call ID should have been normalized")
	}
}

func TestChatModelErrorYieldsApology(t *testing.T) {
	mock := &model.MockChatModel{Err: errors.New("upstream timeout")}
	agent, _ := newTestAgent(t, mock)

	prior := []Turn{{User: "hi", Assistant: "hello"}}
	reply, history := agent.Chat(context.Background(), "What are your prices?", prior)
	if !strings.Contains(reply, "I apologize") || !strings.Contains(reply, "upstream timeout") {
		t.Errorf("reply = %q, want apology naming the error", reply)
	}
	if len(history) != 2 {
		t.Fatalf("history has %d turns, want 2", len(history))
	}
	if history[1].Assistant != reply {
		t.Errorf("failed turn assistant = %q, want the apology", history[1].Assistant)
	}
}

func TestChatCarriesHistory(t *testing.T) {
	mock := &model.MockChatModel{Responses: []*schema.Message{
		schema.AssistantMessage("Yes, online sessions are available.", nil),
	}}
	agent, _ := newTestAgent(t, mock)

	prior := []Turn{{User: "Do you teach math?", Assistant: "We do."}}
	_, history := agent.Chat(context.Background(), "Online too?", prior)
	if len(history) != 2 {
		t.Fatalf("history has %d turns, want 2", len(history))
	}

	input := mock.Calls[0]
	// system + prior user + prior assistant + new user
	if len(input) != 4 {
		t.Fatalf("model input has %d messages, want 4", len(input))
	}
	if input[1].Content != "Do you teach math?" || input[2].Content != "We do." {
		t.Errorf("prior turn not replayed: %q / %q", input[1].Content, input[2].Content)
	}
}
