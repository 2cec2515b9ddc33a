package model

import "time"

// Config is the complete runtime configuration. Every numeric threshold the
// evaluator uses lives here rather than in a constant, since the defaults
// are illustrative rather than calibrated.
type Config struct {
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding" mapstructure:"embedding"`
	Extract     ExtractConfig     `yaml:"extract" mapstructure:"extract"`
	Match       MatchConfig       `yaml:"match" mapstructure:"match"`
	Resolve     ResolveConfig     `yaml:"resolve" mapstructure:"resolve"`
	Diagnose    DiagnoseConfig    `yaml:"diagnose" mapstructure:"diagnose"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Monitor     MonitorConfig     `yaml:"monitor" mapstructure:"monitor"`
}

// LLMConfig configures the text-generation collaborator used by the claim
// extractor and the judge verifier.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`

	// RequestsPerSecond caps outbound calls; 0 disables rate limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`

	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// EmbeddingConfig configures the embedding collaborator used by the semantic
// matcher. An empty Provider falls back to the LLM provider when that
// provider supports embeddings; otherwise semantic matching is skipped.
type EmbeddingConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
	Model    string `yaml:"model" mapstructure:"model"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	Timeout  int    `yaml:"timeout" mapstructure:"timeout"` // seconds

	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// ExtractConfig tunes claim extraction.
type ExtractConfig struct {
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
	MaxClaims   int     `yaml:"max_claims" mapstructure:"max_claims"`
}

// MatchConfig tunes the lexical and semantic matchers.
type MatchConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	TieWindow           float64 `yaml:"tie_window" mapstructure:"tie_window"`
}

// ResolveConfig tunes the evidence resolver and its judge fallback.
type ResolveConfig struct {
	Workers      int           `yaml:"workers" mapstructure:"workers"`
	JudgeTimeout time.Duration `yaml:"judge_timeout" mapstructure:"judge_timeout"`
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries"`

	// Deadline bounds the whole resolution phase; pending claims are
	// force-resolved as AMBIGUOUS once it expires.
	Deadline time.Duration `yaml:"deadline" mapstructure:"deadline"`

	// NegationTokens force a judge consultation when present in a claim,
	// as do numeric tokens. Contradiction is only detectable by the judge.
	NegationTokens    []string `yaml:"negation_tokens" mapstructure:"negation_tokens"`
	ForceJudgeNumeric bool     `yaml:"force_judge_numeric" mapstructure:"force_judge_numeric"`
}

// DiagnoseConfig tunes the failure decision procedure.
type DiagnoseConfig struct {
	MinRecall      float64 `yaml:"min_recall" mapstructure:"min_recall"`
	MinUtilization float64 `yaml:"min_utilization" mapstructure:"min_utilization"`
	TokenCeiling   int     `yaml:"token_ceiling" mapstructure:"token_ceiling"`
	MinSpecificity float64 `yaml:"min_specificity" mapstructure:"min_specificity"`
}

// ConcurrencyConfig controls batch processing.
type ConcurrencyConfig struct {
	BatchWorkers int `yaml:"batch_workers" mapstructure:"batch_workers"`
}

// MonitorConfig is the alert threshold policy. A nil threshold is disabled.
type MonitorConfig struct {
	MinAttributionRate   *float64 `yaml:"min_attribution_rate" mapstructure:"min_attribution_rate"`
	MinFaithfulness      *float64 `yaml:"min_faithfulness" mapstructure:"min_faithfulness"`
	MaxContradictionRate *float64 `yaml:"max_contradiction_rate" mapstructure:"max_contradiction_rate"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:          "openai",
			Timeout:           30,
			MaxTokens:         1000,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Embedding: EmbeddingConfig{
			Timeout:  30,
			CacheTTL: 1 * time.Hour,
		},
		Extract: ExtractConfig{
			Temperature: 0,
			MaxClaims:   50,
		},
		Match: MatchConfig{
			SimilarityThreshold: 0.85,
			TieWindow:           0.01,
		},
		Resolve: ResolveConfig{
			Workers:      10,
			JudgeTimeout: 30 * time.Second,
			MaxRetries:   2,
			Deadline:     120 * time.Second,
			NegationTokens: []string{
				"not", "no", "never", "none", "nothing",
				"cannot", "can't", "won't", "doesn't", "isn't", "without",
			},
			ForceJudgeNumeric: true,
		},
		Diagnose: DiagnoseConfig{
			MinRecall:      0.5,
			MinUtilization: 0.3,
			TokenCeiling:   8000,
			MinSpecificity: 0.4,
		},
		Concurrency: ConcurrencyConfig{
			BatchWorkers: 4,
		},
		Monitor: MonitorConfig{},
	}
}
