package match

import (
	"context"
	"strings"

	"github.com/groundcheck/groundcheck/internal/model"
)

// LexicalMatcher checks for near-verbatim presence of a claim in any context
// document. Cheapest strategy, no external dependency, highest precision and
// lowest recall: verbatim containment yields ATTRIBUTED at confidence 1.0,
// anything else is NO_MATCH.
type LexicalMatcher struct{}

// NewLexicalMatcher creates a new lexical matcher
func NewLexicalMatcher() *LexicalMatcher {
	return &LexicalMatcher{}
}

// Name identifies the strategy in verdicts
func (m *LexicalMatcher) Name() model.MatcherName {
	return model.MatcherLexical
}

// Match looks for normalized containment of the claim in each document,
// in rank order, so the earliest-retrieved containing document wins.
func (m *LexicalMatcher) Match(ctx context.Context, claim model.Claim, docs []model.ContextDocument) (*Match, error) {
	normClaim := Normalize(claim.Text)
	if normClaim == "" {
		return nil, nil
	}

	for _, doc := range docs {
		if containsNormalized(doc.Text, normClaim) {
			return &Match{
				Label:         model.LabelAttributed,
				EvidenceDocID: doc.ID,
				EvidenceText:  claim.Text,
				Confidence:    1.0,
			}, nil
		}
	}

	return nil, nil
}

func containsNormalized(docText, normClaim string) bool {
	normDoc := Normalize(docText)
	if normDoc == "" {
		return false
	}
	// Pad both sides so containment respects word boundaries
	return strings.Contains(" "+normDoc+" ", " "+normClaim+" ")
}
