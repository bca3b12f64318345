// Package direct implements the single-pass function-calling agent: one
// bound model call, at most one round of tool execution, then a final
// unbound call to phrase the reply.
package direct

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/eduzen-bot/server/internal/agent/model"
	"github.com/eduzen-bot/server/internal/agent/tools"
	logx "github.com/eduzen-bot/server/pkg/logger"
)

// Turn is one completed user/assistant exchange. Tool traffic inside a
// turn is not kept; only the user message and the final reply survive.
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

type Agent struct {
	bound    einomodel.ToolCallingChatModel
	base     einomodel.ToolCallingChatModel
	registry *tools.Registry
	system   *schema.Message
}

func New(ctx context.Context, base einomodel.ToolCallingChatModel, registry *tools.Registry, system *schema.Message) (*Agent, error) {
	infos, err := registry.Infos(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect tool infos: %w", err)
	}
	bound, err := base.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("bind tools: %w", err)
	}
	return &Agent{bound: bound, base: base, registry: registry, system: system}, nil
}

// Chat runs one exchange. The returned history always grows by exactly
// one turn, even when the model or a tool fails; in that case the
// assistant side of the turn is an apology.
func (a *Agent) Chat(ctx context.Context, message string, history []Turn) (string, []Turn) {
	reply, err := a.chat(ctx, message, history)
	if err != nil {
		logx.Error().Err(err).Msg("direct agent exchange failed")
		reply = model.Apology(err)
	}
	return reply, append(history, Turn{User: message, Assistant: reply})
}

func (a *Agent) chat(ctx context.Context, message string, history []Turn) (string, error) {
	msgs := make([]*schema.Message, 0, 2*len(history)+2)
	msgs = append(msgs, a.system)
	for _, turn := range history {
		msgs = append(msgs, schema.UserMessage(turn.User), schema.AssistantMessage(turn.Assistant, nil))
	}
	msgs = append(msgs, schema.UserMessage(message))

	resp, err := a.bound.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if len(resp.ToolCalls) == 0 {
		return resp.Content, nil
	}

	msgs = append(msgs, resp)
	for i, call := range resp.ToolCalls {
		id := call.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		result, execErr := a.registry.Execute(ctx, call.Function.Name, call.Function.Arguments)
		if execErr != nil {
			logx.Warn().Err(execErr).Str("tool", call.Function.Name).Msg("tool execution failed")
			result = fmt.Sprintf("tool %s failed: %v", call.Function.Name, execErr)
		}
		msgs = append(msgs, &schema.Message{
			Role:       schema.Tool,
			Content:    result,
			ToolCallID: id,
			Name:       call.Function.Name,
		})
	}

	final, err := a.base.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("generate after tools: %w", err)
	}
	return final.Content, nil
}
