package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/groundcheck/groundcheck/internal/llm"
	"github.com/groundcheck/groundcheck/internal/model"
)

// ExtractionError is fatal to an evaluation: no claims means no meaningful
// report downstream.
type ExtractionError struct {
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("claim extraction failed: %v", e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

const extractorSystem = "You decompose answers into atomic factual claims for verification. Respond with JSON only."

const extractorPromptTemplate = `Decompose the following answer into atomic factual claims.

Rules:
- Each claim states exactly one verifiable fact.
- Each claim is self-contained: resolve pronouns and ellipsis so it can be
  checked without the surrounding text.
- Exclude opinions, hedges, and other subjective statements.
- Preserve the order in which facts first appear in the answer.
- Emit at most %d claims.

Answer:
%s

Respond with a JSON array of objects, each {"text": "<claim>"} and nothing else.`

// ClaimExtractor decomposes a generated response into atomic claims by
// delegating to the text-generation collaborator.
type ClaimExtractor struct {
	provider    llm.Provider
	temperature float32
	maxClaims   int
}

// NewClaimExtractor creates a new claim extractor
func NewClaimExtractor(provider llm.Provider, cfg model.ExtractConfig) *ClaimExtractor {
	maxClaims := cfg.MaxClaims
	if maxClaims <= 0 {
		maxClaims = 50
	}

	return &ClaimExtractor{
		provider:    provider,
		temperature: cfg.Temperature,
		maxClaims:   maxClaims,
	}
}

// Extract returns the ordered claim sequence for a response. An empty or
// whitespace-only response yields an empty sequence, not an error. Any
// collaborator failure or unparseable completion is an ExtractionError.
func (e *ClaimExtractor) Extract(ctx context.Context, response string) ([]model.Claim, error) {
	if strings.TrimSpace(response) == "" {
		return []model.Claim{}, nil
	}

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		System:      extractorSystem,
		Prompt:      fmt.Sprintf(extractorPromptTemplate, e.maxClaims, response),
		Temperature: e.temperature,
	})
	if err != nil {
		return nil, &ExtractionError{Cause: err}
	}

	texts, err := parseClaimList(resp.Text)
	if err != nil {
		return nil, &ExtractionError{Cause: err}
	}

	claims := make([]model.Claim, 0, len(texts))
	seen := make(map[string]bool)
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		key := strings.ToLower(text)
		if seen[key] {
			continue
		}
		seen[key] = true

		claims = append(claims, model.Claim{
			ID:         fmt.Sprintf("claim-%d", len(claims)+1),
			Text:       text,
			SourceSpan: findSpan(response, text),
		})
		if len(claims) >= e.maxClaims {
			break
		}
	}

	return claims, nil
}

// parseClaimList parses the collaborator's JSON array contract
func parseClaimList(completion string) ([]string, error) {
	body, err := llm.FirstJSONArray(completion)
	if err != nil {
		return nil, err
	}

	var items []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		// Some models return a bare string array instead
		var plain []string
		if err2 := json.Unmarshal([]byte(body), &plain); err2 == nil {
			return plain, nil
		}
		return nil, fmt.Errorf("%w: %v", llm.ErrInvalidResponse, err)
	}

	texts := make([]string, 0, len(items))
	for _, item := range items {
		texts = append(texts, item.Text)
	}
	return texts, nil
}

// findSpan locates a claim's character offsets in the response, when the
// claim survived extraction verbatim. Rewritten claims get no span.
func findSpan(response, claim string) *model.Span {
	idx := strings.Index(strings.ToLower(response), strings.ToLower(claim))
	if idx < 0 {
		return nil
	}
	return &model.Span{Start: idx, End: idx + len(claim)}
}
