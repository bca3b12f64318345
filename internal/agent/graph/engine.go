package graph

import (
	"context"

	"github.com/eduzen-bot/server/internal/agent/graph/conversations"
	"github.com/eduzen-bot/server/internal/agent/model"
	logx "github.com/eduzen-bot/server/pkg/logger"
)

// Engine drives one staged-agent thread per conversation id. It contains
// failures: a graph error becomes an apologetic reply, and the failed turn
// is still recorded.
type Engine struct {
	runner Runner
	mm     *conversations.MessagesManager
}

func NewEngine(runner Runner, mm *conversations.MessagesManager) *Engine {
	return &Engine{runner: runner, mm: mm}
}

// Chat runs one exchange on the given thread. The user message is persisted
// before the graph runs, so history grows by exactly one turn whether the
// run succeeds or not.
func (e *Engine) Chat(ctx context.Context, conversationID, query string) *model.ChatResult {
	if err := e.mm.RecordUserMessage(ctx, conversationID, query); err != nil {
		logx.Error().Str("conversation_id", conversationID).Err(err).Msg("failed to record user message")
		return &model.ChatResult{Reply: model.Apology(err)}
	}

	result, err := e.runner.Invoke(ctx, model.QueryInput{
		ConversationID: conversationID,
		Query:          query,
	})
	if err != nil {
		logx.Error().Str("conversation_id", conversationID).Err(err).Msg("staged agent run failed")
		reply := model.Apology(err)
		if saveErr := e.mm.SaveResponse(ctx, conversationID, reply); saveErr != nil {
			logx.Error().Str("conversation_id", conversationID).Err(saveErr).Msg("failed to record apology reply")
		}
		return &model.ChatResult{Reply: reply}
	}

	return result
}

// ClearThread wipes the thread's history. Clearing an unknown thread succeeds.
func (e *Engine) ClearThread(ctx context.Context, conversationID string) error {
	return e.mm.Clear(ctx, conversationID)
}
