package diagnose

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/groundcheck/groundcheck/internal/model"
)

// Inputs carries everything the decision procedure can draw on. Retrieval
// holds caller-supplied measurements and may be nil; rules needing a missing
// input are skipped and evaluation proceeds to the next rule.
type Inputs struct {
	Report    model.AttributionReport
	Context   []model.ContextDocument
	Retrieval *model.RetrievalMetrics
}

// Diagnoser classifies the dominant failure category for one evaluation.
// It is a pure, stateless decision procedure: rules are evaluated in fixed
// priority order and the first triggered rule wins, but every triggered
// rule is retained as a signal for explainability.
type Diagnoser struct {
	cfg model.DiagnoseConfig
}

// NewDiagnoser creates a new failure diagnoser
func NewDiagnoser(cfg model.DiagnoseConfig) *Diagnoser {
	return &Diagnoser{cfg: cfg}
}

// Confidence is 1.0 for rules backed by direct verdict evidence and 0.6 for
// rules driven by heuristic or caller-supplied inputs.
const (
	directConfidence    = 1.0
	heuristicConfidence = 0.6
)

type rule struct {
	category   model.FailureCategory
	confidence float64
	signal     *model.Signal // nil when the rule did not trigger
}

// Diagnose runs the decision procedure.
func (d *Diagnoser) Diagnose(in Inputs) model.FailureDiagnosis {
	rules := []rule{
		d.lowRetrievalRecall(in),
		d.contradiction(in),
		d.contextIgnored(in),
		d.contextOverload(in),
		d.vagueQuery(in),
	}

	diagnosis := model.FailureDiagnosis{
		Category:   model.FailureNone,
		Signals:    []model.Signal{},
		Confidence: directConfidence,
	}

	for _, r := range rules {
		if r.signal == nil {
			continue
		}
		diagnosis.Signals = append(diagnosis.Signals, *r.signal)
		if diagnosis.Category == model.FailureNone {
			diagnosis.Category = r.category
			diagnosis.Confidence = r.confidence
		}
	}

	return diagnosis
}

// Rule 1: the retriever missed the relevant material.
func (d *Diagnoser) lowRetrievalRecall(in Inputs) rule {
	r := rule{category: model.FailureRetrieval, confidence: heuristicConfidence}

	if in.Retrieval == nil || in.Retrieval.RecallAtK == nil {
		return r // input missing, rule skipped
	}

	recall := *in.Retrieval.RecallAtK
	if recall >= d.cfg.MinRecall {
		return r
	}

	r.signal = &model.Signal{
		Rule:        "low_retrieval_recall",
		Description: fmt.Sprintf("Retrieval recall@k %.2f below %.2f", recall, d.cfg.MinRecall),
		Data: map[string]interface{}{
			"recall_at_k": recall,
			"threshold":   d.cfg.MinRecall,
		},
	}
	return r
}

// Rule 2: intrinsic hallucination. Any contradicted claim points at the
// generator regardless of other metrics.
func (d *Diagnoser) contradiction(in Inputs) rule {
	r := rule{category: model.FailureGeneration, confidence: directConfidence}

	if in.Report.ContradictionCount == 0 {
		return r
	}

	r.signal = &model.Signal{
		Rule:        "contradicted_claims",
		Description: fmt.Sprintf("%d claim(s) contradict the retrieved context", in.Report.ContradictionCount),
		Data: map[string]interface{}{
			"contradiction_count": in.Report.ContradictionCount,
		},
	}
	return r
}

// Rule 3: the generator ignored the context it was given. Vacuous when no
// claims were extracted, so the rule is skipped then.
func (d *Diagnoser) contextIgnored(in Inputs) rule {
	r := rule{category: model.FailureGeneration, confidence: directConfidence}

	if in.Report.ClaimCount == 0 || len(in.Context) == 0 {
		return r
	}
	if in.Report.ContextUtilizationRate >= d.cfg.MinUtilization {
		return r
	}

	r.signal = &model.Signal{
		Rule:        "context_ignored",
		Description: fmt.Sprintf("Context utilization %.2f below %.2f", in.Report.ContextUtilizationRate, d.cfg.MinUtilization),
		Data: map[string]interface{}{
			"context_utilization_rate": in.Report.ContextUtilizationRate,
			"threshold":                d.cfg.MinUtilization,
		},
	}
	return r
}

// Rule 4: retrieval and generation interact badly, either because the
// context exceeds what the generator can digest or because the retrieved
// documents disagree with each other.
func (d *Diagnoser) contextOverload(in Inputs) rule {
	r := rule{category: model.FailureInteraction, confidence: heuristicConfidence}

	tokens := estimateTokens(in.Context)
	overCeiling := tokens > d.cfg.TokenCeiling

	conflictA, conflictB, conflicting := findConflictingDocs(in.Context)

	if !overCeiling && !conflicting {
		return r
	}

	data := map[string]interface{}{
		"context_tokens": tokens,
		"token_ceiling":  d.cfg.TokenCeiling,
	}
	desc := fmt.Sprintf("Context token estimate %d exceeds ceiling %d", tokens, d.cfg.TokenCeiling)
	if conflicting {
		data["conflicting_doc_ids"] = []string{conflictA, conflictB}
		desc = fmt.Sprintf("Context documents %s and %s contradict each other", conflictA, conflictB)
		if overCeiling {
			desc += fmt.Sprintf("; token estimate %d also exceeds ceiling %d", tokens, d.cfg.TokenCeiling)
		}
	}

	r.signal = &model.Signal{
		Rule:        "context_overload",
		Description: desc,
		Data:        data,
	}
	return r
}

// Rule 5: the query itself was too vague to answer well.
func (d *Diagnoser) vagueQuery(in Inputs) rule {
	r := rule{category: model.FailureQueryUnderstanding, confidence: heuristicConfidence}

	if in.Retrieval == nil || in.Retrieval.QuerySpecificity == nil {
		return r
	}

	specificity := *in.Retrieval.QuerySpecificity
	if specificity >= d.cfg.MinSpecificity {
		return r
	}

	r.signal = &model.Signal{
		Rule:        "vague_query",
		Description: fmt.Sprintf("Query specificity %.2f below %.2f", specificity, d.cfg.MinSpecificity),
		Data: map[string]interface{}{
			"query_specificity": specificity,
			"threshold":         d.cfg.MinSpecificity,
		},
	}
	return r
}

// estimateTokens uses the rough 4-characters-per-token heuristic
func estimateTokens(docs []model.ContextDocument) int {
	chars := 0
	for _, doc := range docs {
		chars += len(doc.Text)
	}
	return chars / 4
}

var numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// findConflictingDocs flags a document pair that shares enough content terms
// to be about the same thing yet disagrees on a numeric token or negation
// polarity. A cheap, explainable stand-in for a full cross-document
// entailment check.
func findConflictingDocs(docs []model.ContextDocument) (string, string, bool) {
	if len(docs) < 2 {
		return "", "", false
	}

	type docFacts struct {
		terms   map[string]bool
		numbers map[string]bool
		negated bool
	}

	facts := make([]docFacts, len(docs))
	for i, doc := range docs {
		facts[i] = docFacts{
			terms:   contentTerms(doc.Text),
			numbers: toSet(numberRe.FindAllString(doc.Text, -1)),
			negated: hasNegation(doc.Text),
		}
	}

	for i := 0; i < len(docs); i++ {
		for j := i + 1; j < len(docs); j++ {
			if sharedCount(facts[i].terms, facts[j].terms) < 3 {
				continue
			}
			if numbersDisagree(facts[i].numbers, facts[j].numbers) {
				return docs[i].ID, docs[j].ID, true
			}
			if facts[i].negated != facts[j].negated {
				return docs[i].ID, docs[j].ID, true
			}
		}
	}

	return "", "", false
}

func contentTerms(text string) map[string]bool {
	terms := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if len(word) > 3 {
			terms[word] = true
		}
	}
	return terms
}

func hasNegation(text string) bool {
	for _, word := range strings.Fields(strings.ToLower(text)) {
		switch strings.Trim(word, ".,;:!?\"'()") {
		case "not", "no", "never", "none":
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func sharedCount(a, b map[string]bool) int {
	count := 0
	for term := range a {
		if b[term] {
			count++
		}
	}
	return count
}

// numbersDisagree reports whether both docs carry numbers but neither's set
// overlaps the other's
func numbersDisagree(a, b map[string]bool) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for n := range a {
		if b[n] {
			return false
		}
	}
	return true
}
