package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/carlev/thoughts-to-post-agent/pkg/bus"
	"github.com/carlev/thoughts-to-post-agent/pkg/checkpoint"
	"github.com/carlev/thoughts-to-post-agent/pkg/config"
	"github.com/carlev/thoughts-to-post-agent/pkg/enrich"
	"github.com/carlev/thoughts-to-post-agent/pkg/logger"
	"github.com/carlev/thoughts-to-post-agent/pkg/media"
	"github.com/carlev/thoughts-to-post-agent/pkg/metrics"
	"github.com/carlev/thoughts-to-post-agent/pkg/orchestrator"
	"github.com/carlev/thoughts-to-post-agent/pkg/providers"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	generator, err := buildGenerator(cfg)
	if err != nil {
		return err
	}

	backend, err := checkpoint.NewFileBackend(cfg.CheckpointDir)
	if err != nil {
		return fmt.Errorf("opening checkpoint backend: %w", err)
	}
	store, err := checkpoint.NewStore(backend)
	if err != nil {
		return fmt.Errorf("loading checkpoints: %w", err)
	}

	messageBus := bus.NewMessageBus()
	defer messageBus.Close()

	orch := orchestrator.New(
		store,
		enrich.NewAgent(provider, cfg.TextModel, cfg.MaxTokens, cfg.Temperature),
		media.NewAgent(provider, generator, cfg.TextModel),
		messageBus,
		messageBus,
		orchestrator.NewEscalator(messageBus, cfg.RequestTopic, cfg.MaxEscalations),
		metrics.NewTracker(cfg.MetricsDir),
		cfg.ResponseTopic,
	)

	logger.InfoCF("main", "Thoughts-to-post agent starting", map[string]interface{}{
		"request_topic":  cfg.RequestTopic,
		"response_topic": cfg.ResponseTopic,
		"text_provider":  cfg.TextProvider,
		"text_model":     cfg.TextModel,
		"media_backend":  cfg.MediaGeneratorType,
		"checkpoint_dir": cfg.CheckpointDir,
	})

	return orch.Run(ctx)
}

// buildProvider wires the primary text backend, wrapped with the Claude
// fallback when an Anthropic key is present.
func buildProvider(cfg *config.Config) (providers.Provider, error) {
	var primary providers.Provider
	switch cfg.TextProvider {
	case "openai":
		primary = providers.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.TextModel)
	case "claude":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("TEXT_PROVIDER=claude requires ANTHROPIC_API_KEY")
		}
		primary = providers.NewClaudeProvider(cfg.AnthropicAPIKey, cfg.FallbackModel)
	default:
		return nil, fmt.Errorf("unknown TEXT_PROVIDER %q", cfg.TextProvider)
	}

	if cfg.TextProvider == "openai" && cfg.AnthropicAPIKey != "" {
		fallback := providers.NewClaudeProvider(cfg.AnthropicAPIKey, cfg.FallbackModel)
		return providers.NewFallbackProvider(primary, fallback, cfg.FallbackModel), nil
	}
	return primary, nil
}

func buildGenerator(cfg *config.Config) (media.Generator, error) {
	switch cfg.MediaGeneratorType {
	case "stable_diffusion":
		return media.NewStableDiffusionGenerator(cfg.StableDiffusionURL), nil
	case "openai":
		return media.NewOpenAIImageGenerator(cfg.OpenAIAPIKey)
	case "placeholder", "":
		return media.NewPlaceholderGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown MEDIA_GENERATOR_TYPE %q", cfg.MediaGeneratorType)
	}
}
