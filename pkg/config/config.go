package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime settings, loaded from environment variables.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Messaging
	RequestTopic  string `env:"REQUEST_TOPIC" envDefault:"thoughts-post-request"`
	ResponseTopic string `env:"RESPONSE_TOPIC" envDefault:"thoughts-to-post-response"`

	// Checkpointing
	CheckpointDir string `env:"CHECKPOINT_DIR" envDefault:"./checkpoints"`
	MetricsDir    string `env:"METRICS_DIR" envDefault:"./metrics"`

	// Text generation. "openai" covers any OpenAI-compatible endpoint
	// (including Ollama's /v1 compatibility API).
	TextProvider  string  `env:"TEXT_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey  string  `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string  `env:"OPENAI_BASE_URL" envDefault:"http://localhost:11434/v1"`
	TextModel     string  `env:"TEXT_MODEL" envDefault:"qwen3-vl:235b-cloud"`
	Temperature   float64 `env:"TEMPERATURE" envDefault:"0.7"`
	MaxTokens     int     `env:"MAX_TOKENS" envDefault:"4096"`

	// Optional Claude fallback for text generation.
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	FallbackModel   string `env:"FALLBACK_MODEL" envDefault:"claude-sonnet-4-5-20250929"`

	// Media generation
	MediaGeneratorType string `env:"MEDIA_GENERATOR_TYPE" envDefault:"stable_diffusion"`
	StableDiffusionURL string `env:"STABLE_DIFFUSION_URL" envDefault:"http://localhost:7860"`

	// Retry escalation
	MaxEscalations int `env:"MAX_ESCALATIONS" envDefault:"3"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}
	return &cfg, nil
}
