// ABOUTME: Ranking engine combining heuristic scores with optional LLM reranking
// ABOUTME: Deterministic ordering with documented tie-breaks; never fails on LLM errors

package rank

import (
	"context"
	"sort"
	"time"

	"newsfetch-api/core/domain"
	"newsfetch-api/core/interfaces"
)

// Options tunes ranking behavior.
type Options struct {
	// Weights is the heuristic tuning; zero value selects DefaultWeights
	Weights Weights

	// TopK bounds how many heuristic leaders go to the LLM (default 15)
	TopK int

	// TopN is the default collection size (default 5)
	TopN int

	// HeuristicWeight and LLMWeight combine the normalized scores
	// (defaults 0.4 / 0.6)
	HeuristicWeight float64
	LLMWeight       float64

	// LLMTimeout bounds the batched rerank call (default 30s)
	LLMTimeout time.Duration

	// KeywordsBoost and KeywordsFilter come from user preferences
	KeywordsBoost  []string
	KeywordsFilter []string
}

// Service scores and orders candidate articles.
type Service struct {
	deps interfaces.Dependencies
	opts Options
	now  func() time.Time
}

// NewService creates a ranking engine.
func NewService(deps interfaces.Dependencies, opts Options) *Service {
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights()
	}
	if opts.TopK <= 0 {
		opts.TopK = 15
	}
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	if opts.HeuristicWeight == 0 && opts.LLMWeight == 0 {
		opts.HeuristicWeight = 0.4
		opts.LLMWeight = 0.6
	}
	if opts.LLMTimeout <= 0 {
		opts.LLMTimeout = 30 * time.Second
	}
	return &Service{deps: deps, opts: opts, now: time.Now}
}

// Rank orders the items by combined score and returns the top-N collection.
// topN <= 0 selects the configured default. Ranking never fails outright on
// LLM unavailability; the heuristic order stands in.
func (s *Service) Rank(ctx context.Context, items []domain.Article, topic string, topN int) domain.Collection {
	if topN <= 0 {
		topN = s.opts.TopN
	}
	rerankWindow := s.opts.TopK
	if rerankWindow < topN {
		rerankWindow = topN
	}

	collection := domain.Collection{
		Topic:     topic,
		CreatedAt: s.now(),
	}
	if len(items) == 0 {
		return collection
	}

	now := s.now()
	candidates := make([]domain.RankedItem, 0, len(items))
	for _, article := range items {
		score, excluded := heuristicScore(article, topic, s.opts.KeywordsBoost, s.opts.KeywordsFilter, s.opts.Weights, now)
		if excluded {
			continue
		}
		candidates = append(candidates, domain.RankedItem{
			Article:        article,
			HeuristicScore: score,
		})
	}
	if len(candidates) == 0 {
		return collection
	}

	// Heuristic pre-order decides which candidates the LLM sees.
	s.sortByScore(candidates, func(item domain.RankedItem) float64 { return item.HeuristicScore })

	if rerankWindow > len(candidates) {
		rerankWindow = len(candidates)
	}
	leaders := candidates[:rerankWindow]

	raw := make([]float64, len(leaders))
	for i, item := range leaders {
		raw[i] = item.HeuristicScore
	}
	normalized := normalizeScores(raw)

	llmScores := s.scoreWithLLM(ctx, topic, leaders)

	for i := range leaders {
		combined := normalized[i]
		if llmScores != nil {
			if score, ok := llmScores[i]; ok {
				llm := score / 10
				leaders[i].LLMScore = &llm
				combined = s.opts.HeuristicWeight*normalized[i] + s.opts.LLMWeight*llm
			} else {
				// Unscored candidate in a successful batch: heuristic only.
				combined = normalized[i]
			}
		}
		leaders[i].CombinedScore = combined
	}

	s.sortByScore(leaders, func(item domain.RankedItem) float64 { return item.CombinedScore })

	if topN > len(leaders) {
		topN = len(leaders)
	}
	collection.Items = make([]domain.RankedItem, topN)
	copy(collection.Items, leaders[:topN])
	for i := range collection.Items {
		collection.Items[i].Rank = i + 1
	}

	return collection
}

// scoreWithLLM issues the single batched rerank request. Any failure returns
// nil and is logged as a degraded-mode event.
func (s *Service) scoreWithLLM(ctx context.Context, topic string, leaders []domain.RankedItem) map[int]float64 {
	if s.deps.LLM == nil || !s.deps.LLM.Available() || topic == "" {
		return nil
	}

	candidates := make([]interfaces.RankCandidate, len(leaders))
	for i, item := range leaders {
		published := ""
		if !item.Article.PublishedAt.IsZero() {
			published = item.Article.PublishedAt.Format(time.RFC3339)
		}
		candidates[i] = interfaces.RankCandidate{
			Index:     i,
			Title:     item.Article.Title,
			Summary:   item.Article.Excerpt,
			Source:    item.Article.SourceID,
			Published: published,
		}
	}

	llmCtx, cancel := context.WithTimeout(ctx, s.opts.LLMTimeout)
	defer cancel()

	scores, err := s.deps.LLM.ScoreRelevance(llmCtx, topic, candidates)
	if err != nil {
		if s.deps.Logger != nil {
			s.deps.Logger.Warn("LLM rerank failed, using heuristic order", map[string]interface{}{
				"topic": topic,
				"error": err.Error(),
			})
		}
		return nil
	}

	for idx, score := range scores {
		if idx < 0 || idx >= len(leaders) || score < 0 {
			delete(scores, idx)
			continue
		}
		if score > 10 {
			scores[idx] = 10
		}
	}
	return scores
}

// sortByScore orders descending by score with the documented tie-breaks:
// more recent published time first, then higher trust weight, then canonical
// URL ascending for full determinism.
func (s *Service) sortByScore(items []domain.RankedItem, score func(domain.RankedItem) float64) {
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := score(items[i]), score(items[j])
		if si != sj {
			return si > sj
		}
		pi, pj := items[i].Article.PublishedAt, items[j].Article.PublishedAt
		if !pi.Equal(pj) {
			return pi.After(pj)
		}
		ti, tj := items[i].Article.TrustWeight, items[j].Article.TrustWeight
		if ti != tj {
			return ti > tj
		}
		return items[i].Article.CanonicalURL < items[j].Article.CanonicalURL
	})
}
