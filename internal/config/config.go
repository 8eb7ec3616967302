package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendAssistant = "assistant"
	BackendOpenAI    = "openai"

	EnvironmentDevelopment = "development"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite://./data/chat-gateway.db"`
	APIPort     string `env:"API_PORT" envDefault:"8001"`

	AssistantURL     string        `env:"ASSISTANT_URL" envDefault:"http://localhost:8000"`
	AssistantBackend string        `env:"ASSISTANT_BACKEND" envDefault:"assistant"`
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIModel      string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL"`
	ModelProfile     string        `env:"MODEL_PROFILE"`
	UpstreamTimeout  time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`

	IncludeHistory         bool `env:"INCLUDE_HISTORY" envDefault:"true"`
	MaxLockedConversations int  `env:"MAX_LOCKED_CONVERSATIONS" envDefault:"1024"`

	Environment        string   `env:"ENVIRONMENT" envDefault:"production"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}

	switch cfg.AssistantBackend {
	case BackendAssistant:
	case BackendOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return Config{}, fmt.Errorf("OPENAI_API_KEY must be set when ASSISTANT_BACKEND is %q", BackendOpenAI)
		}
	default:
		return Config{}, fmt.Errorf("invalid ASSISTANT_BACKEND %q: must be %q or %q", cfg.AssistantBackend, BackendAssistant, BackendOpenAI)
	}

	if cfg.UpstreamTimeout <= 0 {
		return Config{}, fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %v", cfg.UpstreamTimeout)
	}

	return cfg, nil
}

func (c Config) Development() bool {
	return c.Environment == EnvironmentDevelopment
}
