package model

// VerdictLabel is the closed set of outcomes a claim verification can reach.
type VerdictLabel string

const (
	LabelAttributed   VerdictLabel = "ATTRIBUTED"   // Traceable to a specific context document
	LabelContradicted VerdictLabel = "CONTRADICTED" // Conflicts with the context
	LabelUnsupported  VerdictLabel = "UNSUPPORTED"  // Absent from the context
	LabelAmbiguous    VerdictLabel = "AMBIGUOUS"    // Verifier failed or timed out
)

// Valid reports whether l is one of the four recognized labels.
func (l VerdictLabel) Valid() bool {
	switch l {
	case LabelAttributed, LabelContradicted, LabelUnsupported, LabelAmbiguous:
		return true
	}
	return false
}

// MatcherName identifies which matching strategy produced a verdict.
type MatcherName string

const (
	MatcherLexical  MatcherName = "lexical"
	MatcherSemantic MatcherName = "semantic"
	MatcherJudge    MatcherName = "judge"
	MatcherNone     MatcherName = "none" // No matcher produced evidence
)

// ClaimVerdict is the final verification outcome for one claim. Verdicts are
// produced once per evaluation and never mutated; a re-run produces a new
// verdict object.
type ClaimVerdict struct {
	ClaimID       string       `json:"claim_id"`
	Label         VerdictLabel `json:"label"`
	EvidenceDocID string       `json:"evidence_doc_id,omitempty"`
	EvidenceText  string       `json:"evidence_text,omitempty"`
	Confidence    float64      `json:"confidence"`
	Matcher       MatcherName  `json:"matcher"`
}
