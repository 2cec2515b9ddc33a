package model

import "time"

// AttributionReport aggregates per-claim verdicts into document-level
// grounding metrics. Derived deterministically from a verdict set; verdict
// ordering never affects the result.
type AttributionReport struct {
	AttributionRate        float64  `json:"attribution_rate"`
	FaithfulnessScore      float64  `json:"faithfulness_score"`
	ContradictionCount     int      `json:"contradiction_count"`
	ContextUtilizationRate float64  `json:"context_utilization_rate"`
	UsedDocIDs             []string `json:"used_doc_ids"`
	ClaimCount             int      `json:"claim_count"`

	// Precision and Recall are computed only when gold claims were
	// available (a reference answer was supplied).
	Precision *float64 `json:"precision,omitempty"`
	Recall    *float64 `json:"recall,omitempty"`
}

// FailureCategory classifies which pipeline stage most likely caused a poor
// report.
type FailureCategory string

const (
	FailureNone               FailureCategory = "NONE"
	FailureRetrieval          FailureCategory = "RETRIEVAL"
	FailureGeneration         FailureCategory = "GENERATION"
	FailureInteraction        FailureCategory = "INTERACTION"
	FailureQueryUnderstanding FailureCategory = "QUERY_UNDERSTANDING"
)

// Signal records one triggered diagnostic heuristic with transparent data
// so the diagnosis is explainable after the fact.
type Signal struct {
	Rule        string                 `json:"rule"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// FailureDiagnosis is the outcome of the failure decision procedure. At most
// one category is primary; Signals retains every heuristic that fired, not
// just the winning one.
type FailureDiagnosis struct {
	Category   FailureCategory `json:"category"`
	Signals    []Signal        `json:"signals"`
	Confidence float64         `json:"confidence"`
}

// EvaluationStatus reflects how far an evaluation got.
type EvaluationStatus string

const (
	StatusCompleted EvaluationStatus = "COMPLETED"
	StatusDegraded  EvaluationStatus = "COMPLETED_WITH_DEGRADATION"
	StatusFailed    EvaluationStatus = "FAILED"
)

// StageTiming records the wall-clock duration of one pipeline stage.
type StageTiming struct {
	Stage  string  `json:"stage"`
	Millis float64 `json:"duration_ms"`
}

// RetrievalMetrics are caller-supplied measurements about the upstream
// retriever. All fields are optional; the diagnoser skips rules whose
// inputs are missing.
type RetrievalMetrics struct {
	RecallAtK        *float64 `json:"recall_at_k,omitempty"`
	QuerySpecificity *float64 `json:"query_specificity,omitempty"`
}

// EvaluationResult is the terminal artifact of one evaluate call. It is
// owned exclusively by the caller and never shared across concurrent
// evaluations. A failed evaluation still returns a well-formed shell with
// Status set to FAILED and a human-readable FailureReason.
type EvaluationResult struct {
	Query         string            `json:"query"`
	EvaluatedAt   time.Time         `json:"evaluated_at"`
	Claims        []Claim           `json:"claims"`
	Verdicts      []ClaimVerdict    `json:"verdicts"`
	Attribution   AttributionReport `json:"attribution_report"`
	Diagnosis     FailureDiagnosis  `json:"diagnosis"`
	Timings       []StageTiming     `json:"timings"`
	Status        EvaluationStatus  `json:"status"`
	FailureReason string            `json:"failure_reason,omitempty"`
}
