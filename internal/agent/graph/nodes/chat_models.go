package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/eduzen-bot/server/internal/agent/model"
	logx "github.com/eduzen-bot/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation.
type ChatModelConfig struct {
	APIKey       string
	BaseURL      string
	ReasonConfig *model.ReasonModelConfig
	RespConfig   *model.ResponseModelConfig
}

// ChatModels holds both staged models. The interfaces allow scripted models
// in tests; production wiring fills them with Gemini chat models.
type ChatModels struct {
	Reason          einomodel.BaseChatModel
	Decide          einomodel.ToolCallingChatModel
	ReasonModelName string
	DecideModelName string
}

// NewChatModels creates the reason and decide chat models with the given configuration.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	reasonModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.ReasonConfig.Model,
		Temperature: &config.ReasonConfig.Temperature,
		MaxTokens:   &config.ReasonConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating reason model")
		return nil, fmt.Errorf("error creating reason model: %w", err)
	}

	decideModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.RespConfig.Model,
		Temperature: &config.RespConfig.Temperature,
		MaxTokens:   &config.RespConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating decide model")
		return nil, fmt.Errorf("error creating decide model: %w", err)
	}

	return &ChatModels{
		Reason:          reasonModel,
		Decide:          decideModel,
		ReasonModelName: config.ReasonConfig.Model,
		DecideModelName: config.RespConfig.Model,
	}, nil
}

// BindToolsToDecideModel attaches the lead tools to the decide model.
func (cm *ChatModels) BindToolsToDecideModel(ctx context.Context, tools []*schema.ToolInfo) error {
	bound, err := cm.Decide.WithTools(tools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return fmt.Errorf("failed to bind tools: %w", err)
	}
	cm.Decide = bound

	logx.Debug().Msg("Successfully bound tools to decide model")
	return nil
}
