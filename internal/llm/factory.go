package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/groundcheck/groundcheck/internal/worker"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured - return nil (evaluation cannot run
		// without a collaborator; the CLI rejects this earlier)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// Limited wraps a provider with a per-service rate limiter so concurrent
// claim verification respects external rate limits. Completion and embedding
// calls are limited independently.
func Limited(p Provider, limiter *worker.Limiter) Provider {
	if p == nil || limiter == nil {
		return p
	}
	return &limitedProvider{inner: p, limiter: limiter}
}

type limitedProvider struct {
	inner   Provider
	limiter *worker.Limiter
}

func (l *limitedProvider) Name() string {
	return l.inner.Name()
}

func (l *limitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := l.limiter.Wait(ctx, "completion"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return l.inner.Complete(ctx, req)
}

func (l *limitedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := l.limiter.Wait(ctx, "embedding"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return l.inner.Embed(ctx, texts)
}

func (l *limitedProvider) IsAvailable(ctx context.Context) bool {
	return l.inner.IsAvailable(ctx)
}
