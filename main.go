package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/eduzen-bot/server/internal/agent/direct"
	"github.com/eduzen-bot/server/internal/agent/graph"
	"github.com/eduzen-bot/server/internal/agent/graph/nodes"
	"github.com/eduzen-bot/server/internal/agent/model"
	"github.com/eduzen-bot/server/internal/agent/persona"
	"github.com/eduzen-bot/server/internal/agent/repo"
	"github.com/eduzen-bot/server/internal/agent/tools"
	"github.com/eduzen-bot/server/internal/core"
	"github.com/eduzen-bot/server/internal/httpapi"
	"github.com/eduzen-bot/server/internal/leads"
	logx "github.com/eduzen-bot/server/pkg/logger"
	pkgredis "github.com/eduzen-bot/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the server, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`

	// Infrastructure
	Redis pkgredis.Config
	Leads leads.Config
	HTTP  httpapi.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Reason       model.ReasonModelConfig
	Response     model.ResponseModelConfig
	Conversation model.ConversationConfig
	Persona      persona.Config
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		logx.Warn().Err(err).Msg("could not load .env file")
	}

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		logx.Fatal().Err(err).Msg("failed to process environment config")
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})

	// Lead storage
	store, err := envCfg.Leads.New()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to open lead store")
	}
	defer store.Close()
	logx.Info().Str("backend", envCfg.Leads.Backend).Msg("lead store ready")

	// Conversation history: Redis when configured, in-process otherwise
	var conversationRepo model.ConversationRepository
	if envCfg.Redis.Enabled() {
		rdb, err := envCfg.Redis.New()
		if err != nil {
			logx.Fatal().Err(err).Msg("failed to initialise Redis client")
		}
		defer rdb.Close()

		ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
		if err != nil {
			logx.Fatal().Str("ttl", envCfg.Conversation.TTL).Err(err).Msg("invalid CONVERSATION_TTL")
		}
		conversationRepo = repo.NewRedisConversationRepository(rdb, ttl)
		logx.Info().Msg("using Redis conversation storage")
	} else {
		conversationRepo = repo.NewInMemoryConversationRepository()
		logx.Info().Msg("REDIS_URL not set, using in-memory conversation storage")
	}

	p := persona.Load(envCfg.Persona)
	registry := tools.NewRegistry(store)

	// Staged reason/decide agent
	engine, err := graph.BuildLeadEngine(ctx, graph.Config{
		APIKey:           envCfg.APIKey,
		BaseURL:          envCfg.BaseURL,
		ReasonModel:      envCfg.Reason,
		ResponseModel:    envCfg.Response,
		Conversation:     envCfg.Conversation,
		Persona:          p,
		ConversationRepo: conversationRepo,
		Registry:         registry,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build staged agent")
	}

	// Direct function-calling agent shares the response model settings
	directModels, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:       envCfg.APIKey,
		BaseURL:      envCfg.BaseURL,
		ReasonConfig: &envCfg.Reason,
		RespConfig:   &envCfg.Response,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to create chat models")
	}
	systemPrompt, err := p.System(ctx)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to render system persona")
	}
	directAgent, err := direct.New(ctx, directModels.Decide, registry, schema.SystemMessage(systemPrompt))
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build direct agent")
	}

	api := httpapi.NewServer(directAgent, engine, store, envCfg.HTTP)
	srv := &http.Server{
		Addr:    envCfg.HTTP.Addr,
		Handler: api.Handler(),
	}

	go func() {
		logx.Info().Str("addr", envCfg.HTTP.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logx.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}
