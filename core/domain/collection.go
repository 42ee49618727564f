// ABOUTME: Collection domain models for ranked article sets and their summaries
// ABOUTME: RankedItem carries heuristic, LLM and combined scores for one article

package domain

import "time"

// RankedItem is an article placed in a ranking.
type RankedItem struct {
	Article Article `json:"article"`

	// HeuristicScore is the raw heuristic score before normalization
	HeuristicScore float64 `json:"heuristic_score"`

	// LLMScore is the normalized LLM relevance score in [0,1]; nil when the
	// LLM was unavailable or the item fell outside the rerank window
	LLMScore *float64 `json:"llm_score,omitempty"`

	// CombinedScore orders the collection, descending
	CombinedScore float64 `json:"combined_score"`

	// Rank is dense and 1-based
	Rank int `json:"rank"`
}

// Collection is an ordered, bounded set of ranked items for a topic.
type Collection struct {
	Topic     string       `json:"topic"`
	Items     []RankedItem `json:"items"`
	CreatedAt time.Time    `json:"created_at"`
}

// Summary is a short structured digest of a collection.
type Summary struct {
	Topic       string    `json:"topic"`
	Bullets     []string  `json:"bullets"`
	Method      string    `json:"method"` // "llm" or "extractive"
	GeneratedAt time.Time `json:"generated_at"`
}
