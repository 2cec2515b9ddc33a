package model

// Span records character offsets into the response a claim was derived from.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Claim represents one atomic, self-contained factual assertion extracted
// from a generated response. Claims are immutable; a response always yields
// an ordered sequence of claims in order of first appearance.
type Claim struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	SourceSpan *Span  `json:"source_span,omitempty"` // Offsets in the response, if recoverable
}
