package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/eduzen-bot/server/internal/agent/graph/conversations"
	"github.com/eduzen-bot/server/internal/agent/graph/prompts"
	"github.com/eduzen-bot/server/internal/agent/model"
	"github.com/eduzen-bot/server/internal/agent/persona"
	logx "github.com/eduzen-bot/server/pkg/logger"
)

// NewContextLoaderPreHandler creates the pre-handler for the ContextLoader node.
func NewContextLoaderPreHandler() func(context.Context, model.QueryInput, *model.ChatState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.ChatState) (model.QueryInput, error) {
		if s.ConversationID == "" {
			s.ConversationID = in.ConversationID
		}
		// Reset per-query counters
		s.ToolCallCount = 0
		s.ToolCallLimitReached = false
		s.ToolCallIDSeq = 0
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewContextLoaderNode builds the reasoning-stage context. The engine has
// already persisted the user message, so history is loaded as-is and the
// step-by-step instruction goes on top.
func NewContextLoaderNode(
	mm *conversations.MessagesManager,
	p *persona.Persona,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.QueryInput) ([]*schema.Message, error) {
		systemPrompt, err := p.System(ctx)
		if err != nil {
			return nil, fmt.Errorf("render system persona: %w", err)
		}

		messages, err := mm.BuildReasonContext(ctx, input.ConversationID, systemPrompt)
		if err != nil {
			return nil, fmt.Errorf("build reason context: %w", err)
		}

		instruction, err := prompts.RenderReasonInstruction(ctx, input.Query)
		if err != nil {
			return nil, fmt.Errorf("render reason instruction: %w", err)
		}

		return append(messages, schema.UserMessage(instruction)), nil
	})
}

// recordUsageCost computes and logs USD cost from token usage, accumulating
// the running total in state and exposing both in the message Extra.
func recordUsageCost(out *schema.Message, state *model.ChatState, node, modelName string) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	pricing := model.ResolvePricing(modelName)
	inC, outC, totalC := model.ComputeCost(out.ResponseMeta.Usage, pricing)
	if out.Extra == nil {
		out.Extra = map[string]any{}
	}
	out.Extra["usage_cost"] = map[string]any{
		"currency":          "USD",
		"model":             modelName,
		"prompt_tokens":     out.ResponseMeta.Usage.PromptTokens,
		"completion_tokens": out.ResponseMeta.Usage.CompletionTokens,
		"total_tokens":      out.ResponseMeta.Usage.TotalTokens,
		"input_cost":        inC,
		"output_cost":       outC,
		"total_cost":        totalC,
	}
	logx.Debug().
		Str("conversation_id", state.ConversationID).
		Str("node", node).
		Str("model", modelName).
		Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
		Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
		Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")

	state.TotalCostUSD += totalC
	out.Extra["usage_cost_total_usd"] = state.TotalCostUSD
}

// NewReasonChatModelPostHandler accounts usage cost for the reason model.
func NewReasonChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.ChatState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.ChatState) (*schema.Message, error) {
		recordUsageCost(out, state, NodeReasonChatModel, modelName)
		return out, nil
	}
}

// NewDecideAssemblerNode persists the reasoning trace and rebuilds the full
// decide-stage context from the repository.
func NewDecideAssemblerNode(
	mm *conversations.MessagesManager,
	p *persona.Persona,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, reasoning *schema.Message) ([]*schema.Message, error) {
		var conversationID string
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.ChatState) error {
			conversationID = state.ConversationID
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		if reasoning != nil && strings.TrimSpace(reasoning.Content) != "" {
			if err := mm.SaveReasoning(ctx, conversationID, reasoning.Content); err != nil {
				return nil, fmt.Errorf("save reasoning trace: %w", err)
			}
		}

		systemPrompt, err := p.System(ctx)
		if err != nil {
			return nil, fmt.Errorf("render system persona: %w", err)
		}

		messages, err := mm.BuildDecideContext(ctx, conversationID, systemPrompt)
		if err != nil {
			return nil, fmt.Errorf("build decide context: %w", err)
		}

		return messages, nil
	})
}

// NewDecideChatModelPreHandler creates the pre-handler for the DecideChatModel node.
func NewDecideChatModelPreHandler(maxToolCalls int) func(context.Context, []*schema.Message, *model.ChatState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.ChatState) ([]*schema.Message, error) {
		// Heuristic fix for providers that drop tool_call_id on tool results
		if len(in) > 0 {
			last := in[len(in)-1]
			if last != nil && last.Role == schema.Tool && strings.TrimSpace(last.ToolCallID) == "" {
				for i := len(state.History) - 1; i >= 0; i-- {
					msg := state.History[i]
					if msg == nil || msg.Role != schema.Assistant || len(msg.ToolCalls) == 0 {
						continue
					}
					if id := msg.ToolCalls[0].ID; strings.TrimSpace(id) != "" {
						last.ToolCallID = id
					}
					break
				}
			}
		}

		state.History = append(state.History, in...)

		if checkAndMarkToolLimit(state, maxToolCalls) {
			maxToolCalls = normalizeMaxToolCalls(maxToolCalls)
			wrapUp := &schema.Message{
				Role: schema.System,
				Content: fmt.Sprintf(
					"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
						"Please synthesize a helpful response using the information you've already gathered. "+
						"Acknowledge any limitations in your response if you couldn't complete all necessary tool calls.",
					maxToolCalls,
				),
			}
			state.History = append(state.History, wrapUp)
		}

		logx.Debug().Msg("AI thinking...")

		return state.History, nil
	}
}

// NewDecideChatModelPostHandler creates the post-handler for the DecideChatModel node.
func NewDecideChatModelPostHandler(
	mm *conversations.MessagesManager,
	modelName string,
) func(context.Context, *schema.Message, *model.ChatState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.ChatState) (*schema.Message, error) {
		recordUsageCost(out, state, NodeDecideChatModel, modelName)

		// Normalize tool calls: some providers omit tool_call IDs.
		if out != nil && len(out.ToolCalls) > 0 {
			for i := range out.ToolCalls {
				if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
					state.ToolCallIDSeq++
					out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
				}
			}
		}

		state.History = append(state.History, out)

		if len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		} else {
			logx.Debug().Msg("AI response ready")
		}

		// Persist only final replies: assistant messages with no pending tool
		// calls, or a content response produced after hitting the tool limit.
		if out.Role == schema.Assistant && (len(out.ToolCalls) == 0 || state.ToolCallLimitReached) && strings.TrimSpace(out.Content) != "" {
			if err := mm.SaveResponse(ctx, state.ConversationID, out.Content); err != nil {
				logx.Error().
					Str("conversation_id", state.ConversationID).
					Err(err).
					Msg("Error saving assistant response")
			}
		}

		return out, nil
	}
}

// NewToolExecutorCondition creates the condition function for tool execution routing.
func NewToolExecutorCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		var limitReached bool
		compose.ProcessState(ctx, func(_ context.Context, state *model.ChatState) error {
			limitReached = state.ToolCallLimitReached
			return nil
		})

		if limitReached {
			logx.Debug().Msg("Tool limit reached previously - routing to reply selector")
			return NodeReplySelector, nil
		}

		if len(input.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(input.ToolCalls)).Msg("Routing to ToolExecutor")
			return NodeToolExecutor, nil
		}

		return NodeReplySelector, nil
	}
}

// NewToolExecutorPreHandler creates the pre-handler for the ToolExecutor node.
func NewToolExecutorPreHandler(maxToolCalls int) func(context.Context, *schema.Message, *model.ChatState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.ChatState) (*schema.Message, error) {
		exceeded := incrementToolCallAndCheck(state, maxToolCalls)

		logx.Debug().
			Int("tool_call_count", state.ToolCallCount).
			Str("conversation_id", state.ConversationID).
			Msg("Tool execution attempt")

		if exceeded {
			logx.Warn().
				Int("tool_call_count", state.ToolCallCount).
				Int("max_tool_calls", normalizeMaxToolCalls(maxToolCalls)).
				Str("conversation_id", state.ConversationID).
				Msg("Tool call limit exceeded - flagging and continuing")
		}

		return in, nil
	}
}

// NewReplySelectorNode picks the user-facing reply out of the accumulated
// history and exposes the ordered reasoning trace alongside it. Reasoning
// is never folded into the reply.
func NewReplySelectorNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ *schema.Message) (*schema.Message, error) {
		reply := model.FallbackReply
		var steps []string

		err := compose.ProcessState(ctx, func(_ context.Context, state *model.ChatState) error {
			for _, msg := range state.History {
				if model.IsReasoning(msg) {
					steps = append(steps, model.StripReasoning(msg.Content))
				}
			}
			for i := len(state.History) - 1; i >= 0; i-- {
				msg := state.History[i]
				if msg == nil || msg.Role != schema.Assistant || model.IsReasoning(msg) {
					continue
				}
				if strings.TrimSpace(msg.Content) == "" {
					continue
				}
				reply = msg.Content
				break
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		out := schema.AssistantMessage(reply, nil)
		out.Extra = map[string]any{"reasoning_steps": steps}
		return out, nil
	})
}
