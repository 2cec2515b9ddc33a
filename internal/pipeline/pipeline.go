package pipeline

import (
	"context"
	"time"

	"github.com/groundcheck/groundcheck/internal/cache"
	"github.com/groundcheck/groundcheck/internal/diagnose"
	"github.com/groundcheck/groundcheck/internal/extract"
	"github.com/groundcheck/groundcheck/internal/llm"
	"github.com/groundcheck/groundcheck/internal/match"
	"github.com/groundcheck/groundcheck/internal/model"
	"github.com/groundcheck/groundcheck/internal/resolve"
	"github.com/groundcheck/groundcheck/internal/score"
)

// Input is one (query, context, response) triple to evaluate, optionally
// with a reference answer and caller-supplied retrieval measurements.
type Input struct {
	ID         string
	Query      string
	Context    []model.ContextDocument
	Response   string
	GoldAnswer string
	Retrieval  *model.RetrievalMetrics
}

// Evaluator orchestrates extraction, resolution, scoring, and diagnosis
// into a single timing-instrumented evaluate call.
type Evaluator struct {
	extractor *extract.ClaimExtractor
	resolver  *resolve.Resolver
	scorer    *score.Scorer
	diagnoser *diagnose.Diagnoser
	deadline  time.Duration
}

// NewEvaluator wires the pipeline from configuration. completion serves the
// claim extractor and the judge; embedder serves the semantic matcher and
// may be nil (or embedding-incapable), in which case resolution skips the
// semantic tier.
func NewEvaluator(cfg *model.Config, completion llm.Provider, embedder llm.Provider) *Evaluator {
	var semantic match.Matcher
	if embedder != nil {
		store := cache.NewMemoryCache(cfg.Embedding.CacheTTL, 2*cfg.Embedding.CacheTTL)
		semantic = match.NewSemanticMatcher(embedder, store, cfg.Match)
	}

	deadline := cfg.Resolve.Deadline
	if deadline <= 0 {
		deadline = 120 * time.Second
	}

	return &Evaluator{
		extractor: extract.NewClaimExtractor(completion, cfg.Extract),
		resolver: resolve.NewResolver(
			match.NewLexicalMatcher(),
			semantic,
			match.NewJudgeVerifier(completion),
			cfg.Resolve,
		),
		scorer:    score.NewScorer(),
		diagnoser: diagnose.NewDiagnoser(cfg.Diagnose),
		deadline:  deadline,
	}
}

// Evaluate runs the full pipeline for one input. It always returns a
// well-formed result: fatal extraction errors surface as a FAILED shell
// with a human-readable reason, and per-claim verifier failures degrade
// individual verdicts to AMBIGUOUS without aborting the evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, in Input) *model.EvaluationResult {
	ctx, cancel := context.WithTimeout(ctx, e.deadline)
	defer cancel()

	result := &model.EvaluationResult{
		Query:       in.Query,
		EvaluatedAt: time.Now().UTC(),
		Claims:      []model.Claim{},
		Verdicts:    []model.ClaimVerdict{},
		Timings:     []model.StageTiming{},
		Status:      model.StatusCompleted,
	}

	// 1. Extract claims
	stageStart := time.Now()
	claims, err := e.extractor.Extract(ctx, in.Response)
	result.Timings = append(result.Timings, timing("extract", stageStart))
	if err != nil {
		result.Status = model.StatusFailed
		result.FailureReason = err.Error()
		result.Diagnosis = model.FailureDiagnosis{
			Category:   model.FailureNone,
			Signals:    []model.Signal{},
			Confidence: 0,
		}
		return result
	}
	result.Claims = claims

	// 2. Resolve one verdict per claim
	stageStart = time.Now()
	verdicts, degraded := e.resolver.Resolve(ctx, claims, in.Context)
	result.Timings = append(result.Timings, timing("resolve", stageStart))
	result.Verdicts = verdicts
	if degraded {
		result.Status = model.StatusDegraded
	}

	// 3. Score; gold claims come from the reference answer when present.
	// A failed gold extraction only disables precision/recall, it never
	// blocks the faithfulness metrics.
	stageStart = time.Now()
	goldClaimCount := 0
	if in.GoldAnswer != "" {
		if goldClaims, err := e.extractor.Extract(ctx, in.GoldAnswer); err == nil {
			goldClaimCount = len(goldClaims)
		}
	}
	result.Attribution = e.scorer.Score(verdicts, len(in.Context), goldClaimCount)
	result.Timings = append(result.Timings, timing("score", stageStart))

	// 4. Diagnose
	stageStart = time.Now()
	result.Diagnosis = e.diagnoser.Diagnose(diagnose.Inputs{
		Report:    result.Attribution,
		Context:   in.Context,
		Retrieval: in.Retrieval,
	})
	result.Timings = append(result.Timings, timing("diagnose", stageStart))

	return result
}

func timing(stage string, start time.Time) model.StageTiming {
	return model.StageTiming{
		Stage:  stage,
		Millis: float64(time.Since(start).Microseconds()) / 1000.0,
	}
}
