package match

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/groundcheck/groundcheck/internal/llm"
	"github.com/groundcheck/groundcheck/internal/model"
)

const judgeSystem = "You verify factual claims strictly against provided context passages. Respond with JSON only."

const judgePromptTemplate = `Verify the claim against the context passages below. Use only the passages;
outside knowledge does not count as support.

Claim:
%s

Context passages:
%s

Pick exactly one verdict:
- ATTRIBUTED: a passage directly supports the claim.
- CONTRADICTED: a passage states something incompatible with the claim
  (different number, date, negated fact).
- UNSUPPORTED: no passage supports or contradicts the claim.

Respond with a JSON object and nothing else:
{"verdict": "ATTRIBUTED|CONTRADICTED|UNSUPPORTED", "evidence_doc_id": "<passage id or empty>", "evidence": "<verbatim quote or empty>", "confidence": <0.0-1.0>}`

// JudgeVerifier delegates verification to the text-generation collaborator.
// It is the most expensive strategy and the only one able to detect
// contradiction.
type JudgeVerifier struct {
	provider    llm.Provider
	temperature float32
}

// NewJudgeVerifier creates a new judge verifier
func NewJudgeVerifier(provider llm.Provider) *JudgeVerifier {
	return &JudgeVerifier{provider: provider}
}

// Name identifies the strategy in verdicts
func (j *JudgeVerifier) Name() model.MatcherName {
	return model.MatcherJudge
}

// Match requests a three-way verdict with a quoted evidence span. The judge
// never returns NO_MATCH: absence of evidence is itself the UNSUPPORTED
// verdict.
func (j *JudgeVerifier) Match(ctx context.Context, claim model.Claim, docs []model.ContextDocument) (*Match, error) {
	resp, err := j.provider.Complete(ctx, llm.CompletionRequest{
		System:      judgeSystem,
		Prompt:      fmt.Sprintf(judgePromptTemplate, claim.Text, formatContext(docs)),
		Temperature: j.temperature,
	})
	if err != nil {
		return nil, err
	}

	return parseJudgeVerdict(resp.Text)
}

// formatContext renders the documents with their IDs so the judge can cite
// which passage it used.
func formatContext(docs []model.ContextDocument) string {
	if len(docs) == 0 {
		return "(no context passages retrieved)"
	}

	var b strings.Builder
	for _, doc := range docs {
		fmt.Fprintf(&b, "[%s] %s\n\n", doc.ID, doc.Text)
	}
	return strings.TrimSpace(b.String())
}

// parseJudgeVerdict parses the judge's JSON contract
func parseJudgeVerdict(completion string) (*Match, error) {
	body, err := llm.FirstJSONObject(completion)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Verdict       string  `json:"verdict"`
		EvidenceDocID string  `json:"evidence_doc_id"`
		Evidence      string  `json:"evidence"`
		Confidence    float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrInvalidResponse, err)
	}

	label := model.VerdictLabel(strings.ToUpper(strings.TrimSpace(parsed.Verdict)))
	switch label {
	case model.LabelAttributed, model.LabelContradicted, model.LabelUnsupported:
	default:
		return nil, fmt.Errorf("%w: unknown verdict %q", llm.ErrInvalidResponse, parsed.Verdict)
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	m := &Match{
		Label:      label,
		Confidence: confidence,
	}
	// Evidence only makes sense for verdicts grounded in a passage
	if label != model.LabelUnsupported {
		m.EvidenceDocID = strings.TrimSpace(parsed.EvidenceDocID)
		m.EvidenceText = strings.TrimSpace(parsed.Evidence)
	}

	return m, nil
}
