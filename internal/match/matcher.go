package match

import (
	"context"
	"strings"
	"unicode"

	"github.com/groundcheck/groundcheck/internal/model"
)

// Match is a tentative verdict from one matching strategy.
type Match struct {
	Label         model.VerdictLabel
	EvidenceDocID string
	EvidenceText  string
	Confidence    float64
}

// Matcher maps (claim, context) to a tentative verdict. Returning (nil, nil)
// means NO_MATCH: the strategy found nothing and the resolver should fall
// through to the next one. Only the judge can return CONTRADICTED.
type Matcher interface {
	// Name identifies the strategy in verdicts
	Name() model.MatcherName

	// Match evaluates one claim against the full context
	Match(ctx context.Context, claim model.Claim, docs []model.ContextDocument) (*Match, error)
}

// Normalize lowercases text, strips punctuation, and collapses whitespace so
// near-verbatim containment survives formatting differences.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace:
			b.WriteRune(' ')
			lastSpace = true
		}
	}

	return strings.TrimSpace(b.String())
}
