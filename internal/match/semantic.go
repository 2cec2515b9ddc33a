package match

import (
	"context"
	"fmt"
	"math"

	"github.com/groundcheck/groundcheck/internal/cache"
	"github.com/groundcheck/groundcheck/internal/llm"
	"github.com/groundcheck/groundcheck/internal/model"
)

// SemanticMatcher embeds the claim and every context document, computes
// cosine similarity, and attributes the claim to the best-scoring document
// when similarity clears the configured threshold. Embeddings are memoized
// by content hash, so within one evaluation each document is embedded once
// no matter how many claims are checked against it.
type SemanticMatcher struct {
	provider  llm.Provider
	store     cache.VectorCache
	threshold float64
	tieWindow float64
}

// NewSemanticMatcher creates a new semantic matcher
func NewSemanticMatcher(provider llm.Provider, store cache.VectorCache, cfg model.MatchConfig) *SemanticMatcher {
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 {
		threshold = 0.85
	}
	tieWindow := cfg.TieWindow
	if tieWindow <= 0 {
		tieWindow = 0.01
	}

	return &SemanticMatcher{
		provider:  provider,
		store:     store,
		threshold: threshold,
		tieWindow: tieWindow,
	}
}

// Name identifies the strategy in verdicts
func (m *SemanticMatcher) Name() model.MatcherName {
	return model.MatcherSemantic
}

// Match embeds claim and documents (batched, memoized) and returns the
// best-scoring document above the threshold. Among documents within the tie
// window of the maximum, the lower rank (earlier-retrieved) wins.
func (m *SemanticMatcher) Match(ctx context.Context, claim model.Claim, docs []model.ContextDocument) (*Match, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, 0, len(docs)+1)
	texts = append(texts, claim.Text)
	for _, doc := range docs {
		texts = append(texts, doc.Text)
	}

	vectors, err := m.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	claimVec := vectors[0]
	sims := make([]float64, len(docs))
	maxSim := -1.0
	for i := range docs {
		sims[i] = cosineSimilarity(claimVec, vectors[i+1])
		if sims[i] > maxSim {
			maxSim = sims[i]
		}
	}

	if maxSim < m.threshold {
		return nil, nil
	}

	// Among documents within the tie window of the maximum, prefer the
	// lower rank (earlier-retrieved)
	best := -1
	for i := range docs {
		if sims[i] < maxSim-m.tieWindow {
			continue
		}
		if best < 0 || docs[i].Rank < docs[best].Rank {
			best = i
		}
	}

	return &Match{
		Label:         model.LabelAttributed,
		EvidenceDocID: docs[best].ID,
		EvidenceText:  snippet(docs[best].Text, 200),
		Confidence:    sims[best],
	}, nil
}

// embedAll returns one vector per text, consulting the cache first and
// embedding all misses in a single collaborator call.
func (m *SemanticMatcher) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if m.store != nil {
			if vec, ok := m.store.GetVector(text); ok {
				vectors[i] = vec
				continue
			}
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		embedded, err := m.provider.Embed(ctx, missing)
		if err != nil {
			return nil, err
		}
		if len(embedded) != len(missing) {
			return nil, fmt.Errorf("%w: expected %d embeddings, got %d", llm.ErrInvalidResponse, len(missing), len(embedded))
		}
		for j, vec := range embedded {
			vectors[missingIdx[j]] = vec
			if m.store != nil {
				_ = m.store.SetVector(missing[j], vec)
			}
		}
	}

	return vectors, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func snippet(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}
