package proxy

import (
	"fmt"
	"os"

	"chat-gateway/pkg/api"

	"gopkg.in/yaml.v2"
)

func DefaultModelConfiguration() api.ModelConfiguration {
	return api.ModelConfiguration{
		MaxTokens:        128,
		Temperature:      0.7,
		TopP:             1.0,
		PresencePenalty:  0.0,
		FrequencyPenalty: 0.0,
	}
}

// LoadModelProfile reads a yaml file overriding the default model
// configuration. Keys missing from the file keep their defaults.
func LoadModelProfile(path string) (api.ModelConfiguration, error) {
	cfg := DefaultModelConfiguration()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("error reading model profile %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing model profile %s: %w", path, err)
	}

	if cfg.MaxTokens <= 0 {
		return cfg, fmt.Errorf("invalid model profile %s: max_tokens must be positive", path)
	}

	return cfg, nil
}
