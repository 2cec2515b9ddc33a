package pipeline

import (
	"context"
	"errors"

	"github.com/groundcheck/groundcheck/internal/model"
	"github.com/groundcheck/groundcheck/internal/worker"
)

// CaseEvaluator defines the interface for evaluating a single case
type CaseEvaluator interface {
	Evaluate(ctx context.Context, in Input) *model.EvaluationResult
}

// EvalJob represents one evaluation job
type EvalJob struct {
	Input     Input
	Evaluator CaseEvaluator
}

// Execute executes the evaluation job
func (j *EvalJob) Execute(ctx context.Context) worker.Result {
	return &EvalResult{
		CaseID: j.Input.ID,
		Result: j.Evaluator.Evaluate(ctx, j.Input),
	}
}

// EvalResult represents the result of an evaluation job
type EvalResult struct {
	CaseID string
	Result *model.EvaluationResult
}

// GetError returns a non-nil error when the evaluation failed outright
func (r *EvalResult) GetError() error {
	if r.Result != nil && r.Result.Status == model.StatusFailed {
		return errors.New(r.Result.FailureReason)
	}
	return nil
}

// BatchProcessor evaluates multiple cases concurrently
type BatchProcessor struct {
	evaluator   CaseEvaluator
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(evaluator CaseEvaluator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		evaluator:   evaluator,
		concurrency: concurrency,
	}
}

// ProcessCases evaluates multiple cases concurrently
func (b *BatchProcessor) ProcessCases(ctx context.Context, cases []Input) []*EvalResult {
	if len(cases) == 0 {
		return []*EvalResult{}
	}

	pool := worker.NewPool(ctx, b.concurrency)
	pool.Start()

	for _, c := range cases {
		pool.Submit(&EvalJob{
			Input:     c,
			Evaluator: b.evaluator,
		})
	}

	results := pool.Wait()

	evalResults := make([]*EvalResult, 0, len(results))
	for _, result := range results {
		evalResults = append(evalResults, result.(*EvalResult))
	}

	return evalResults
}
