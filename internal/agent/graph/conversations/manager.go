// Package conversations mediates between the staged graph and the
// conversation repository: it records turns, trims the reasoning window,
// and assembles model contexts.
package conversations

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/eduzen-bot/server/internal/agent/model"
)

type MessagesManager struct {
	conversationRepo model.ConversationRepository
	reasonMaxTurns   int
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	return &MessagesManager{
		conversationRepo: conversationRepo,
		reasonMaxTurns:   config.Reason.MaxTurns,
	}
}

// RecordUserMessage appends the incoming user message to the thread before
// the graph runs, so a failed run still leaves the turn in history.
func (cm *MessagesManager) RecordUserMessage(ctx context.Context, conversationID, query string) error {
	return cm.conversationRepo.AddMessage(ctx, conversationID, schema.UserMessage(query))
}

// BuildReasonContext assembles the reasoning-stage context: the system
// persona plus a bounded tail of the thread history. The incoming user
// message is expected to already be in history.
func (cm *MessagesManager) BuildReasonContext(ctx context.Context, conversationID, systemPrompt string) ([]*schema.Message, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
	}
	messages = append(messages, trimTail(history.Messages, cm.reasonMaxTurns)...)

	return messages, nil
}

// BuildDecideContext assembles the decide-stage context: the system persona
// plus the full thread history, reasoning traces included.
func (cm *MessagesManager) BuildDecideContext(ctx context.Context, conversationID, systemPrompt string) ([]*schema.Message, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
	}
	messages = append(messages, history.Messages...)

	return messages, nil
}

// SaveReasoning persists a reasoning trace as a tagged assistant message.
func (cm *MessagesManager) SaveReasoning(ctx context.Context, conversationID, content string) error {
	msg := schema.AssistantMessage(model.TagReasoning(content), nil)
	return cm.conversationRepo.AddMessage(ctx, conversationID, msg)
}

// SaveResponse persists a user-facing assistant reply.
func (cm *MessagesManager) SaveResponse(ctx context.Context, conversationID, content string) error {
	return cm.conversationRepo.AddMessage(ctx, conversationID, schema.AssistantMessage(content, nil))
}

// Clear wipes the thread. Clearing an unknown thread succeeds.
func (cm *MessagesManager) Clear(ctx context.Context, conversationID string) error {
	return cm.conversationRepo.ClearHistory(ctx, conversationID)
}

func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		result := make([]*schema.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-maxTurns:]
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}
