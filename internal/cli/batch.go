package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/groundcheck/groundcheck/internal/input"
	"github.com/groundcheck/groundcheck/internal/model"
	"github.com/groundcheck/groundcheck/internal/monitor"
	"github.com/groundcheck/groundcheck/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <cases-file>",
	Short: "Evaluate multiple cases from a JSONL file in parallel",
	Long: `Batch evaluates multiple cases concurrently:
- Read cases from a JSONL file (one JSON case per line)
- Evaluate cases in parallel with a configurable worker count
- Record completed reports into a monitoring window
- Print the window snapshot and any threshold alerts

Example:
  groundcheck batch cases.jsonl
  groundcheck batch cases.jsonl --concurrency 8 --output-dir ./reports
  groundcheck batch cases.jsonl --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent evaluations (default: from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./groundcheck-reports", "output directory for per-case reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runBatch(cmd *cobra.Command, args []string) error {
	casesPath := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if concurrency > 0 {
		cfg.Concurrency.BatchWorkers = concurrency
	}

	cases, err := input.LoadCases(casesPath)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return fmt.Errorf("no cases found in %s", casesPath)
	}

	baseDir := filepath.Dir(casesPath)
	inputs := make([]pipeline.Input, 0, len(cases))
	for i := range cases {
		in, err := cases[i].ToInput(baseDir)
		if err != nil {
			return err
		}
		inputs = append(inputs, in)
	}

	completion, embedder, err := buildProviders(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Groundcheck Batch Evaluation\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Cases:        %d\n", len(inputs))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.BatchWorkers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Provider:     %s\n", completion.Name())
	fmt.Fprintf(os.Stderr, "\n")

	evaluator := pipeline.NewEvaluator(cfg, completion, embedder)
	processor := pipeline.NewBatchProcessor(evaluator, cfg.Concurrency.BatchWorkers)
	aggregator := monitor.NewAggregator()

	results := processor.ProcessCases(ctx, inputs)

	completed, degraded, failed := 0, 0, 0
	for _, r := range results {
		if r.Result == nil {
			continue
		}

		switch r.Result.Status {
		case model.StatusFailed:
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %s\n", r.CaseID, r.Result.FailureReason)
		case model.StatusDegraded:
			degraded++
			fmt.Fprintf(os.Stderr, "⚠ %s: attribution %.2f, faithfulness %.2f (degraded)\n",
				r.CaseID, r.Result.Attribution.AttributionRate, r.Result.Attribution.FaithfulnessScore)
		default:
			completed++
			fmt.Fprintf(os.Stderr, "✓ %s: attribution %.2f, faithfulness %.2f, diagnosis %s\n",
				r.CaseID, r.Result.Attribution.AttributionRate, r.Result.Attribution.FaithfulnessScore,
				r.Result.Diagnosis.Category)
		}

		// Cancelled evaluations never reach the window
		if r.Result.Status != model.StatusFailed && ctx.Err() == nil {
			aggregator.Record(r.Result.Attribution, r.Result.EvaluatedAt)
		}

		if err := writeResult(outputDir, r); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	snapshot := aggregator.Snapshot()
	alerts := monitor.CheckThresholds(snapshot, cfg.Monitor)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Completed: %d  Degraded: %d  Failed: %d\n", completed, degraded, failed)
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Window (%d samples):\n", snapshot.SampleCount)
	fmt.Fprintf(os.Stderr, "    avg attribution rate: %.3f\n", snapshot.AvgAttributionRate)
	fmt.Fprintf(os.Stderr, "    avg faithfulness:     %.3f\n", snapshot.AvgFaithfulness)
	fmt.Fprintf(os.Stderr, "    contradiction rate:   %.3f\n", snapshot.ContradictionRate)
	fmt.Fprintf(os.Stderr, "\n")

	if len(alerts) == 0 {
		fmt.Fprintf(os.Stderr, "  No alerts triggered\n\n")
		return nil
	}

	for _, alert := range alerts {
		fmt.Fprintf(os.Stderr, "  ALERT [%s]: %s\n", alert.Threshold, alert.Message)
	}
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

func writeResult(dir string, r *pipeline.EvalResult) error {
	data, err := json.MarshalIndent(r.Result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result %s: %w", r.CaseID, err)
	}

	path := filepath.Join(dir, r.CaseID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write result %s: %w", r.CaseID, err)
	}
	return nil
}
