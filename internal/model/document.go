package model

// ContextDocument is one retrieved passage handed to the evaluator.
// Rank is the document's position in the retrieval result (0-based) and
// never changes after construction.
type ContextDocument struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Rank int    `json:"rank"`
}
