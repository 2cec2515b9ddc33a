package match

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/groundcheck/groundcheck/internal/llm"
	"github.com/groundcheck/groundcheck/internal/model"
)

func judgeResponding(text string) *mockProvider {
	return &mockProvider{
		completeFn: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Text: text}, nil
		},
	}
}

func TestJudgeVerifier_Match_Attributed(t *testing.T) {
	j := NewJudgeVerifier(judgeResponding(`{"verdict": "ATTRIBUTED", "evidence_doc_id": "doc-1", "evidence": "the tower is 330 meters", "confidence": 0.92}`))

	claim := model.Claim{ID: "claim-1", Text: "The tower is 330 meters tall"}
	docs := []model.ContextDocument{
		{ID: "doc-1", Text: "The tower is 330 meters.", Rank: 1},
	}

	match, err := j.Match(context.Background(), claim, docs)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if match.Label != model.LabelAttributed {
		t.Errorf("Expected ATTRIBUTED, got %s", match.Label)
	}
	if match.EvidenceDocID != "doc-1" {
		t.Errorf("Expected doc-1, got %s", match.EvidenceDocID)
	}
	if match.EvidenceText != "the tower is 330 meters" {
		t.Errorf("Unexpected evidence text: %s", match.EvidenceText)
	}
	if match.Confidence != 0.92 {
		t.Errorf("Expected confidence 0.92, got %f", match.Confidence)
	}
}

func TestJudgeVerifier_Match_Contradicted(t *testing.T) {
	j := NewJudgeVerifier(judgeResponding(`{"verdict": "CONTRADICTED", "evidence_doc_id": "doc-2", "evidence": "the tower is 312 meters", "confidence": 0.88}`))

	match, err := j.Match(context.Background(), model.Claim{ID: "claim-1", Text: "The tower is 330 meters"}, []model.ContextDocument{
		{ID: "doc-2", Text: "The tower is 312 meters.", Rank: 1},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if match.Label != model.LabelContradicted {
		t.Errorf("Expected CONTRADICTED, got %s", match.Label)
	}
	if match.EvidenceDocID != "doc-2" {
		t.Errorf("Expected doc-2, got %s", match.EvidenceDocID)
	}
}

func TestJudgeVerifier_Match_UnsupportedDropsEvidence(t *testing.T) {
	// Models sometimes fill in evidence fields anyway; UNSUPPORTED verdicts
	// carry no evidence
	j := NewJudgeVerifier(judgeResponding(`{"verdict": "unsupported", "evidence_doc_id": "doc-1", "evidence": "something", "confidence": 0.7}`))

	match, err := j.Match(context.Background(), model.Claim{ID: "claim-1", Text: "claim"}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if match.Label != model.LabelUnsupported {
		t.Errorf("Expected UNSUPPORTED, got %s", match.Label)
	}
	if match.EvidenceDocID != "" || match.EvidenceText != "" {
		t.Errorf("Expected no evidence for UNSUPPORTED, got %q / %q", match.EvidenceDocID, match.EvidenceText)
	}
}

func TestJudgeVerifier_Match_JSONWrappedInProse(t *testing.T) {
	j := NewJudgeVerifier(judgeResponding("Here is my assessment:\n```json\n{\"verdict\": \"ATTRIBUTED\", \"evidence_doc_id\": \"doc-1\", \"evidence\": \"quote\", \"confidence\": 1.0}\n```\nLet me know if you need more."))

	match, err := j.Match(context.Background(), model.Claim{ID: "claim-1", Text: "claim"}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if match.Label != model.LabelAttributed {
		t.Errorf("Expected ATTRIBUTED, got %s", match.Label)
	}
}

func TestJudgeVerifier_Match_MalformedResponse(t *testing.T) {
	cases := map[string]string{
		"no json":         "I cannot verify this claim.",
		"unknown verdict": `{"verdict": "MAYBE", "confidence": 0.5}`,
		"truncated":       `{"verdict": "ATTRIBUTED", "evidence`,
	}

	for name, response := range cases {
		j := NewJudgeVerifier(judgeResponding(response))
		_, err := j.Match(context.Background(), model.Claim{ID: "claim-1", Text: "claim"}, nil)
		if !errors.Is(err, llm.ErrInvalidResponse) {
			t.Errorf("%s: expected invalid response error, got %v", name, err)
		}
	}
}

func TestJudgeVerifier_Match_ConfidenceClamped(t *testing.T) {
	j := NewJudgeVerifier(judgeResponding(`{"verdict": "ATTRIBUTED", "evidence_doc_id": "doc-1", "evidence": "q", "confidence": 3.5}`))

	match, err := j.Match(context.Background(), model.Claim{ID: "claim-1", Text: "claim"}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if match.Confidence != 1.0 {
		t.Errorf("Expected confidence clamped to 1.0, got %f", match.Confidence)
	}
}

func TestJudgeVerifier_Match_ProviderError(t *testing.T) {
	provider := &mockProvider{
		completeFn: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return nil, llm.ErrTimeout
		},
	}
	j := NewJudgeVerifier(provider)

	_, err := j.Match(context.Background(), model.Claim{ID: "claim-1", Text: "claim"}, nil)
	if !errors.Is(err, llm.ErrTimeout) {
		t.Errorf("Expected timeout passed through, got %v", err)
	}
}

func TestJudgeVerifier_Match_PromptCarriesClaimAndContext(t *testing.T) {
	var captured llm.CompletionRequest
	provider := &mockProvider{
		completeFn: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			captured = req
			return &llm.CompletionResponse{Text: `{"verdict": "UNSUPPORTED", "confidence": 0.5}`}, nil
		},
	}
	j := NewJudgeVerifier(provider)

	claim := model.Claim{ID: "claim-1", Text: "Water boils at 100 degrees"}
	docs := []model.ContextDocument{
		{ID: "doc-7", Text: "Water boils at 100 degrees Celsius at sea level.", Rank: 1},
	}

	if _, err := j.Match(context.Background(), claim, docs); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !strings.Contains(captured.Prompt, claim.Text) {
		t.Error("Expected prompt to carry the claim text")
	}
	if !strings.Contains(captured.Prompt, "[doc-7]") {
		t.Error("Expected prompt to carry labeled passages")
	}
	if captured.System == "" {
		t.Error("Expected a system prompt")
	}
}

func TestFormatContext_Empty(t *testing.T) {
	if got := formatContext(nil); !strings.Contains(got, "no context passages") {
		t.Errorf("Unexpected empty-context rendering: %q", got)
	}
}
