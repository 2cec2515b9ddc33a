package cli

import (
	"fmt"
	"os"

	"github.com/groundcheck/groundcheck/internal/llm"
	"github.com/groundcheck/groundcheck/internal/model"
	"github.com/groundcheck/groundcheck/internal/worker"
	"github.com/spf13/viper"
)

// loadConfig builds the effective configuration: defaults overlaid by the
// config file and GROUNDCHECK_* environment variables. Flags are applied by
// the individual commands afterwards.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	return cfg, nil
}

// resolveAPIKey fills provider credentials from the conventional
// environment variables when the config leaves them empty.
func resolveAPIKey(provider, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	switch provider {
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return "", fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		return key, nil
	case "anthropic", "claude":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return "", fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
		return key, nil
	default:
		// Ollama and friends need no API key
		return "", nil
	}
}

// buildProviders constructs the completion and embedding collaborators from
// configuration. The embedding provider may be nil when the configured
// provider cannot embed; semantic matching is then skipped.
func buildProviders(cfg *model.Config) (llm.Provider, llm.Provider, error) {
	if cfg.LLM.Provider == "" {
		return nil, nil, fmt.Errorf("llm provider must be configured (openai, anthropic, ollama)")
	}

	llmCfg := llm.ConfigFromModel(cfg.LLM)
	key, err := resolveAPIKey(cfg.LLM.Provider, llmCfg.APIKey)
	if err != nil {
		return nil, nil, err
	}
	llmCfg.APIKey = key
	if cfg.LLM.Provider == "ollama" && llmCfg.BaseURL == "" {
		llmCfg.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}

	completion, err := llm.NewProvider(llmCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize llm provider: %w", err)
	}

	embCfg := llm.EmbeddingConfigFromModel(cfg.Embedding, cfg.LLM)
	if embCfg.Provider == cfg.LLM.Provider && embCfg.APIKey == "" {
		embCfg.APIKey = llmCfg.APIKey
	}

	var embedder llm.Provider
	switch embCfg.Provider {
	case "anthropic", "claude":
		// No embeddings API; semantic matching is skipped
		embedder = nil
	default:
		key, err := resolveAPIKey(embCfg.Provider, embCfg.APIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("embedding provider: %w", err)
		}
		embCfg.APIKey = key
		embedder, err = llm.NewProvider(embCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize embedding provider: %w", err)
		}
	}

	// One limiter shared across both collaborators, keyed by service
	if cfg.LLM.RequestsPerSecond > 0 {
		limiter := worker.NewLimiter(cfg.LLM.RequestsPerSecond, cfg.LLM.Burst)
		completion = llm.Limited(completion, limiter)
		embedder = llm.Limited(embedder, limiter)
	}

	return completion, embedder, nil
}
