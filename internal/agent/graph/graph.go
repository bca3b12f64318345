// Package graph composes the staged reason/decide agent as an Eino graph:
// the reason model thinks out loud, the decide model answers or records a
// lead through the bound tools, and the reply selector separates the
// user-facing reply from the reasoning trace.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/eduzen-bot/server/internal/agent/graph/conversations"
	"github.com/eduzen-bot/server/internal/agent/graph/nodes"
	"github.com/eduzen-bot/server/internal/agent/graph/observers"
	"github.com/eduzen-bot/server/internal/agent/model"
	"github.com/eduzen-bot/server/internal/agent/persona"
	"github.com/eduzen-bot/server/internal/agent/tools"
	logx "github.com/eduzen-bot/server/pkg/logger"
)

// Runner executes the compiled graph for one user query.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (*model.ChatResult, error)
}

// Config holds everything needed to compose the staged agent end-to-end.
// This is a convenience layer over GraphConfig that also constructs
// ChatModels and the MessagesManager.
type Config struct {
	APIKey           string
	BaseURL          string
	ReasonModel      model.ReasonModelConfig
	ResponseModel    model.ResponseModelConfig
	Conversation     model.ConversationConfig
	Persona          *persona.Persona
	ConversationRepo model.ConversationRepository
	Registry         *tools.Registry
}

// GraphConfig holds all configuration needed to build the graph.
type GraphConfig struct {
	ChatModels      *nodes.ChatModels
	MessagesManager *conversations.MessagesManager
	Persona         *persona.Persona
	Registry        *tools.Registry
	ToolMaxCalls    int
}

// GraphBuilder handles the construction of the staged agent graph.
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.QueryInput, *schema.Message]
}

type graphRunner struct {
	runnable compose.Runnable[model.QueryInput, *schema.Message]
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) (*model.ChatResult, error) {
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return nil, err
	}
	if out == nil {
		return &model.ChatResult{Reply: model.FallbackReply}, nil
	}

	result := &model.ChatResult{Reply: out.Content}
	if steps, ok := out.Extra["reasoning_steps"].([]string); ok {
		result.ReasoningSteps = steps
	}
	return result, nil
}

// BuildLeadEngine composes chat models and the messages manager, builds the
// graph, and returns the Engine wrapper that the HTTP layer talks to.
func BuildLeadEngine(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("tool registry is nil")
	}
	if cfg.Persona == nil {
		return nil, fmt.Errorf("persona is nil")
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		ReasonConfig: &cfg.ReasonModel,
		RespConfig:   &cfg.ResponseModel,
	})
	if err != nil {
		return nil, err
	}

	mm := conversations.NewMessagesManager(cfg.ConversationRepo, cfg.Conversation)

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:      cms,
		MessagesManager: mm,
		Persona:         cfg.Persona,
		Registry:        cfg.Registry,
		ToolMaxCalls:    cfg.Conversation.Tools.MaxCalls,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Lead graph built successfully")
	return NewEngine(&graphRunner{runnable: runnable}, mm), nil
}

// BuildGraph constructs and returns the compiled staged agent graph.
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Reason == nil || config.ChatModels.Decide == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}
	if config.Persona == nil {
		return nil, fmt.Errorf("persona is nil")
	}
	if config.Registry == nil {
		return nil, fmt.Errorf("tool registry is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.QueryInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.ChatState {
				return &model.ChatState{}
			}),
		),
	}

	if err := builder.setupTools(ctx); err != nil {
		return nil, err
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// setupTools binds the lead tools to the decide model and adds the executor node.
func (b *GraphBuilder) setupTools(ctx context.Context) error {
	leadTools := b.config.Registry.Tools()
	toolInfos, err := b.config.Registry.Infos(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return fmt.Errorf("failed to get tool infos: %w", err)
	}

	if err := b.config.ChatModels.BindToolsToDecideModel(ctx, toolInfos); err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools to decide model")
		return fmt.Errorf("failed to bind tools to decide model: %w", err)
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               leadTools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			// Gracefully handle hallucinated or malformed tool calls
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown or invalid tool call; returning fallback result")
			return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
		},
		ToolArgumentsHandler: func(ctx context.Context, name, arguments string) (string, error) {
			// Best-effort sanitize; never fail hard here
			var m map[string]any
			if err := json.Unmarshal([]byte(arguments), &m); err != nil {
				return arguments, nil
			}
			for k, v := range m {
				if s, ok := v.(string); ok {
					m[k] = strings.TrimSpace(s)
				}
			}
			b, err := json.Marshal(m)
			if err != nil {
				return arguments, nil
			}
			return string(b), nil
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
		compose.WithStatePreHandler(nodes.NewToolExecutorPreHandler(b.config.ToolMaxCalls)),
	)

	return nil
}

// addNodes adds all processing nodes to the graph.
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeContextLoader,
		nodes.NewContextLoaderNode(b.config.MessagesManager, b.config.Persona),
		compose.WithStatePreHandler(nodes.NewContextLoaderPreHandler()),
	)

	b.graph.AddChatModelNode(nodes.NodeReasonChatModel,
		b.config.ChatModels.Reason,
		compose.WithStatePostHandler(nodes.NewReasonChatModelPostHandler(b.config.ChatModels.ReasonModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeDecideAssembler,
		nodes.NewDecideAssemblerNode(b.config.MessagesManager, b.config.Persona),
	)

	b.graph.AddChatModelNode(nodes.NodeDecideChatModel,
		b.config.ChatModels.Decide,
		compose.WithStatePreHandler(nodes.NewDecideChatModelPreHandler(b.config.ToolMaxCalls)),
		compose.WithStatePostHandler(nodes.NewDecideChatModelPostHandler(b.config.MessagesManager, b.config.ChatModels.DecideModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeReplySelector,
		nodes.NewReplySelectorNode(),
	)
}

// addEdges creates the main flow connections between nodes.
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeContextLoader},
		{nodes.NodeContextLoader, nodes.NodeReasonChatModel},
		{nodes.NodeReasonChatModel, nodes.NodeDecideAssembler},
		{nodes.NodeDecideAssembler, nodes.NodeDecideChatModel},
		{nodes.NodeToolExecutor, nodes.NodeDecideChatModel},
		{nodes.NodeReplySelector, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates the tool-or-reply routing branch.
func (b *GraphBuilder) addBranches() error {
	decisionBranch := compose.NewGraphBranch(
		nodes.NewToolExecutorCondition(),
		map[string]bool{
			nodes.NodeToolExecutor:  true,
			nodes.NodeReplySelector: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeDecideChatModel, decisionBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding decision branch")
		return fmt.Errorf("error adding decision branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph.
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	// Limit total run steps to avoid infinite loops in branching or tool retries
	maxSteps := 10 + b.config.ToolMaxCalls*2
	if maxSteps < 20 {
		maxSteps = 20
	}

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
