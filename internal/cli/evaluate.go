package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/groundcheck/groundcheck/internal/input"
	"github.com/groundcheck/groundcheck/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outJSON      string
	evalDeadline time.Duration
	evalWorkers  int
	llmProvider  string
	llmModel     string
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate <case-file>",
	Short: "Evaluate one (query, context, response) case",
	Long: `Evaluate runs the full grounding pipeline for a single case:
- Decompose the response into atomic claims
- Verify each claim against the retrieved context
- Aggregate attribution and faithfulness metrics
- Diagnose the dominant failure category

The case file is JSON or YAML with query, response, context passages, and
optional gold_answer / recall_at_k / query_specificity fields.

Example:
  groundcheck evaluate case.json
  groundcheck evaluate case.yaml --json report.json
  groundcheck evaluate case.json --llm-provider ollama --llm-model llama3.1:8b`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (default: stdout)")
	evaluateCmd.Flags().DurationVar(&evalDeadline, "deadline", 0, "overall evaluation deadline (default: from config)")
	evaluateCmd.Flags().IntVar(&evalWorkers, "workers", 0, "claim verification workers (default: from config)")
	evaluateCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	evaluateCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	casePath := args[0]

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
	if evalDeadline > 0 {
		cfg.Resolve.Deadline = evalDeadline
	}
	if evalWorkers > 0 {
		cfg.Resolve.Workers = evalWorkers
	}

	c, err := input.LoadCase(casePath)
	if err != nil {
		return err
	}
	in, err := c.ToInput(filepath.Dir(casePath))
	if err != nil {
		return err
	}

	completion, embedder, err := buildProviders(cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Evaluating: %s\n", in.ID)
		fmt.Fprintf(os.Stderr, "Context documents: %d\n", len(in.Context))
		fmt.Fprintf(os.Stderr, "Provider: %s\n", completion.Name())
		fmt.Fprintln(os.Stderr)
	}

	evaluator := pipeline.NewEvaluator(cfg, completion, embedder)
	result := evaluator.Evaluate(context.Background(), in)

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Extracted %d claims\n", len(result.Claims))
		fmt.Fprintf(os.Stderr, "✓ Attribution rate: %.2f\n", result.Attribution.AttributionRate)
		fmt.Fprintf(os.Stderr, "✓ Faithfulness: %.2f\n", result.Attribution.FaithfulnessScore)
		fmt.Fprintf(os.Stderr, "✓ Diagnosis: %s\n", result.Diagnosis.Category)
		for _, t := range result.Timings {
			fmt.Fprintf(os.Stderr, "  %s: %.1fms\n", t.Stage, t.Millis)
		}
		fmt.Fprintln(os.Stderr)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if outJSON == "" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(outJSON, data, 0644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
	}

	return nil
}
