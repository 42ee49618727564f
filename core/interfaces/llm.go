package interfaces

import "context"

// RankCandidate is the minimal view of an article sent to the LLM reranker.
type RankCandidate struct {
	Index     int
	Title     string
	Summary   string
	Source    string
	Published string
}

// SummaryInput is one item of the collection passed to the summarizer.
type SummaryInput struct {
	Title     string
	Source    string
	Excerpt   string
	Published string
}

// LLM defines the external language-model scoring service. Both operations
// are best-effort: callers must have a deterministic fallback for any error.
type LLM interface {
	// Available reports whether the client is configured with credentials.
	Available() bool

	// ScoreRelevance asks for a relevance score per candidate against the
	// topic, in one batched request. The result maps candidate index to a
	// score in [0,10]; indices missing from the map were not scored.
	ScoreRelevance(ctx context.Context, topic string, candidates []RankCandidate) (map[int]float64, error)

	// Summarize produces up to maxBullets digest bullet points for the items.
	Summarize(ctx context.Context, topic string, items []SummaryInput, maxBullets int) ([]string, error)
}
