package resolve

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/groundcheck/groundcheck/internal/llm"
	"github.com/groundcheck/groundcheck/internal/match"
	"github.com/groundcheck/groundcheck/internal/model"
)

// resolveSleepFunc is the sleep function used between retries (injectable for tests)
var resolveSleepFunc = time.Sleep

var numericTokenRe = regexp.MustCompile(`\d`)

// Resolver runs the matcher chain Lexical -> Semantic -> Judge for each
// claim and produces exactly one verdict per claim. The judge is always
// consulted for claims carrying numeric or negation tokens: the cheap
// matchers are blind to contradiction, and those claims are where intrinsic
// hallucinations concentrate.
type Resolver struct {
	lexical  match.Matcher
	semantic match.Matcher // nil when no embedding collaborator is available
	judge    match.Matcher
	cfg      model.ResolveConfig
}

// NewResolver creates a new evidence resolver. semantic may be nil.
func NewResolver(lexical, semantic, judge match.Matcher, cfg model.ResolveConfig) *Resolver {
	if cfg.Workers <= 0 {
		cfg.Workers = 10
	}
	if cfg.JudgeTimeout <= 0 {
		cfg.JudgeTimeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &Resolver{
		lexical:  lexical,
		semantic: semantic,
		judge:    judge,
		cfg:      cfg,
	}
}

// Resolve verifies all claims concurrently, bounded by the configured worker
// limit, and returns verdicts in claim order. The returned flag reports
// whether any claim degraded to AMBIGUOUS (judge failure, timeout, or an
// expired deadline). Verdicts for distinct claims have no data dependency,
// so the fan-out is joined before anything downstream sees partial results.
func (r *Resolver) Resolve(ctx context.Context, claims []model.Claim, docs []model.ContextDocument) ([]model.ClaimVerdict, bool) {
	if len(claims) == 0 {
		return []model.ClaimVerdict{}, false
	}

	verdicts := make([]model.ClaimVerdict, len(claims))
	var degraded atomic.Bool
	var wg sync.WaitGroup

	// Semaphore bounds concurrent external calls
	semaphore := make(chan struct{}, r.cfg.Workers)

	for i, claim := range claims {
		wg.Add(1)
		go func(idx int, c model.Claim) {
			defer wg.Done()

			if ctx.Err() != nil {
				verdicts[idx] = ambiguousVerdict(c.ID)
				degraded.Store(true)
				return
			}

			select {
			case <-ctx.Done():
				// Deadline expired or evaluation cancelled: force-resolve
				verdicts[idx] = ambiguousVerdict(c.ID)
				degraded.Store(true)
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			verdict, wasDegraded := r.resolveOne(ctx, c, docs)
			verdicts[idx] = verdict
			if wasDegraded {
				degraded.Store(true)
			}
		}(i, claim)
	}

	wg.Wait()

	return verdicts, degraded.Load()
}

// resolveOne runs the fallback chain for a single claim
func (r *Resolver) resolveOne(ctx context.Context, claim model.Claim, docs []model.ContextDocument) (model.ClaimVerdict, bool) {
	// With no context, nothing can support or contradict the claim; skip
	// the matchers entirely
	if len(docs) == 0 {
		return model.ClaimVerdict{
			ClaimID:    claim.ID,
			Label:      model.LabelUnsupported,
			Confidence: 0,
			Matcher:    model.MatcherNone,
		}, false
	}

	cheapDegraded := false

	if !r.requiresJudge(claim.Text) {
		if m, err := r.lexical.Match(ctx, claim, docs); err == nil && m != nil {
			return verdictFrom(claim.ID, m, r.lexical.Name()), false
		}

		if r.semantic != nil {
			m, err := r.semantic.Match(ctx, claim, docs)
			if err != nil {
				// Embedding failure degrades this claim to the judge path
				cheapDegraded = true
			} else if m != nil {
				return verdictFrom(claim.ID, m, r.semantic.Name()), false
			}
		}
	}

	m, err := r.judgeWithRetry(ctx, claim, docs)
	if err != nil {
		return ambiguousVerdict(claim.ID), true
	}

	return verdictFrom(claim.ID, m, r.judge.Name()), cheapDegraded
}

// judgeWithRetry retries transient judge failures with exponential backoff.
// Malformed output indicates a prompt/contract mismatch, not transience,
// and is never retried.
func (r *Resolver) judgeWithRetry(ctx context.Context, claim model.Claim, docs []model.ContextDocument) (*match.Match, error) {
	var lastErr error

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		judgeCtx, cancel := context.WithTimeout(ctx, r.cfg.JudgeTimeout)
		m, err := r.judge.Match(judgeCtx, claim, docs)
		cancel()

		if err == nil {
			return m, nil
		}
		lastErr = err

		if !llm.IsTransient(err) {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if attempt < r.cfg.MaxRetries {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			resolveSleepFunc(backoff)
		}
	}

	return nil, lastErr
}

// requiresJudge reports whether the claim must always reach the judge
func (r *Resolver) requiresJudge(text string) bool {
	if r.cfg.ForceJudgeNumeric && numericTokenRe.MatchString(text) {
		return true
	}

	if len(r.cfg.NegationTokens) == 0 {
		return false
	}

	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		for _, token := range r.cfg.NegationTokens {
			if word == token {
				return true
			}
		}
	}

	return false
}

func verdictFrom(claimID string, m *match.Match, name model.MatcherName) model.ClaimVerdict {
	return model.ClaimVerdict{
		ClaimID:       claimID,
		Label:         m.Label,
		EvidenceDocID: m.EvidenceDocID,
		EvidenceText:  m.EvidenceText,
		Confidence:    m.Confidence,
		Matcher:       name,
	}
}

func ambiguousVerdict(claimID string) model.ClaimVerdict {
	return model.ClaimVerdict{
		ClaimID:    claimID,
		Label:      model.LabelAmbiguous,
		Confidence: 0,
		Matcher:    model.MatcherNone,
	}
}
