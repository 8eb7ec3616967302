package cmd

import (
	"flag"
	"log"
	"log/slog"

	"chat-gateway/internal/config"
	"chat-gateway/internal/proxy"
	"chat-gateway/pkg/api"

	"github.com/joho/godotenv"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

func CreateModelProxy(cfg config.Config) proxy.ModelProxy {
	switch cfg.AssistantBackend {
	case config.BackendOpenAI:
		slog.Info("using openai backend", "model", cfg.OpenAIModel, "base_url", cfg.OpenAIBaseURL)
		return proxy.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.UpstreamTimeout)
	default:
		slog.Info("using assistant backend", "url", cfg.AssistantURL)
		return proxy.NewAssistantClient(cfg.AssistantURL, cfg.UpstreamTimeout)
	}
}

func LoadModelConfiguration(cfg config.Config) api.ModelConfiguration {
	if cfg.ModelProfile == "" {
		return proxy.DefaultModelConfiguration()
	}

	profile, err := proxy.LoadModelProfile(cfg.ModelProfile)
	if err != nil {
		log.Fatalf("error loading model profile '%s': %v", cfg.ModelProfile, err)
	}
	slog.Info("loaded model profile", "path", cfg.ModelProfile, "max_tokens", profile.MaxTokens, "temperature", profile.Temperature)
	return profile
}
