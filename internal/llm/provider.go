package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/groundcheck/groundcheck/internal/model"
)

// Error taxonomy for external collaborator failures. Retry policy hinges on
// these: timeouts and rate limits are transient, an unparseable response is
// a prompt/contract mismatch and must not be retried.
var (
	ErrTimeout               = errors.New("llm: request timed out")
	ErrRateLimited           = errors.New("llm: rate limited")
	ErrInvalidResponse       = errors.New("llm: invalid response")
	ErrEmbeddingsUnsupported = errors.New("llm: provider does not support embeddings")
)

// IsTransient reports whether err may succeed on retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited)
}

// Provider defines the interface for external LLM services. Complete serves
// the text-generation collaborator contract; Embed serves the embedding
// collaborator contract. Callers must not assume determinism even at
// temperature 0.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete generates a completion for the given request
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Embed returns one embedding vector per input text, in input order
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for a completion call.
type CompletionRequest struct {
	// System is the system/instruction message
	System string

	// Prompt is the user message
	Prompt string

	// Temperature controls sampling randomness
	Temperature float32

	// MaxTokens limits the response length (0 uses the provider default)
	MaxTokens int

	// Model overrides the configured model for this call
	Model string
}

// CompletionResponse contains the completion output.
type CompletionResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// EmbeddingModel name used for Embed calls
	EmbeddingModel string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests, in seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   30,
		MaxTokens: 1000,
	}
}

// ConfigFromModel converts the completion section of the application config.
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:   mc.Provider,
		Model:      mc.Model,
		APIKey:     mc.APIKey,
		BaseURL:    mc.BaseURL,
		Timeout:    mc.Timeout,
		MaxTokens:  mc.MaxTokens,
		HTTPProxy:  mc.HTTPProxy,
		HTTPSProxy: mc.HTTPSProxy,
		NoProxy:    mc.NoProxy,
	}
}

// EmbeddingConfigFromModel converts the embedding section. When the section
// names no provider, the completion provider and its credentials are reused;
// a cross-provider setup keeps its own credentials.
func EmbeddingConfigFromModel(ec model.EmbeddingConfig, mc model.LLMConfig) Config {
	cfg := Config{
		Provider:       ec.Provider,
		EmbeddingModel: ec.Model,
		APIKey:         ec.APIKey,
		BaseURL:        ec.BaseURL,
		Timeout:        ec.Timeout,
	}
	if cfg.Provider == "" || cfg.Provider == mc.Provider {
		cfg.Provider = mc.Provider
		if cfg.APIKey == "" {
			cfg.APIKey = mc.APIKey
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = mc.BaseURL
		}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = mc.Timeout
	}
	return cfg
}

// classifyStatus maps an HTTP status to the error taxonomy. 5xx responses
// count as transient, the same as a timeout.
func classifyStatus(status int, body string) error {
	switch {
	case status == 429:
		return fmt.Errorf("%w: HTTP 429: %s", ErrRateLimited, body)
	case status >= 500:
		return fmt.Errorf("%w: HTTP %d: %s", ErrTimeout, status, body)
	default:
		return fmt.Errorf("API error (%d): %s", status, body)
	}
}
