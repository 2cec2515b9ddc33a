package score

import (
	"sort"

	"github.com/groundcheck/groundcheck/internal/model"
)

// Scorer aggregates per-claim verdicts into document-level metrics. It is a
// pure function over the verdict set: deterministic, order-independent, and
// free of external calls. Re-scoring the same verdicts yields an identical
// report.
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the attribution report for one evaluation's verdicts.
// docCount is the number of retrieved context documents; goldClaimCount is
// the number of claims extracted from the reference answer, or 0 when no
// reference was supplied.
//
// Faithfulness is deliberately weaker than attribution: a claim that is
// merely unsupported still counts as faithful, while a contradicted claim
// does not. Empty verdict sets produce defined zero rates, never NaN.
func (s *Scorer) Score(verdicts []model.ClaimVerdict, docCount int, goldClaimCount int) model.AttributionReport {
	report := model.AttributionReport{
		ClaimCount: len(verdicts),
		UsedDocIDs: []string{},
	}

	if len(verdicts) == 0 {
		if goldClaimCount > 0 {
			zero := 0.0
			report.Precision = &zero
			recall := 0.0
			report.Recall = &recall
		}
		return report
	}

	attributed := 0
	contradicted := 0
	usedDocs := make(map[string]bool)

	for _, v := range verdicts {
		switch v.Label {
		case model.LabelAttributed:
			attributed++
			if v.EvidenceDocID != "" {
				usedDocs[v.EvidenceDocID] = true
			}
		case model.LabelContradicted:
			contradicted++
		}
	}

	total := float64(len(verdicts))
	report.AttributionRate = float64(attributed) / total
	report.FaithfulnessScore = float64(len(verdicts)-contradicted) / total
	report.ContradictionCount = contradicted

	if docCount > 0 {
		report.ContextUtilizationRate = float64(len(usedDocs)) / float64(docCount)
	}

	for id := range usedDocs {
		report.UsedDocIDs = append(report.UsedDocIDs, id)
	}
	// Sorted so the report is identical regardless of verdict ordering
	sort.Strings(report.UsedDocIDs)

	// Correctness metrics, only meaningful against a reference answer.
	// They never block the faithfulness metrics above.
	if goldClaimCount > 0 {
		precision := float64(attributed) / total
		recall := float64(attributed) / float64(goldClaimCount)
		if recall > 1 {
			recall = 1
		}
		report.Precision = &precision
		report.Recall = &recall
	}

	return report
}
