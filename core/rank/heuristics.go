// ABOUTME: Heuristic scoring for ranking candidates before LLM reranking
// ABOUTME: Weights are configuration; defaults mirror the documented tuning

package rank

import (
	"math"
	"strings"
	"time"

	"newsfetch-api/core/domain"
)

// Weights holds the heuristic scoring configuration.
type Weights struct {
	TopicInTitle   float64 `json:"topic_in_title"`
	TopicInText    float64 `json:"topic_in_text"`
	BoostInTitle   float64 `json:"boost_in_title"`
	BoostInText    float64 `json:"boost_in_text"`
	FilterInTitle  float64 `json:"filter_in_title"`
	FilterInText   float64 `json:"filter_in_text"`
	RecencyBase    float64 `json:"recency_base"`
	RecencyDecay   float64 `json:"recency_decay"`
	Trust          float64 `json:"trust"`
	LongTextBonus  float64 `json:"long_text_bonus"`
	ShortTextBonus float64 `json:"short_text_bonus"`

	// FilterExclusion removes an item outright once its accumulated filter
	// penalty reaches this (negative) threshold.
	FilterExclusion float64 `json:"filter_exclusion"`
}

// DefaultWeights returns the documented default tuning.
func DefaultWeights() Weights {
	return Weights{
		TopicInTitle:    15,
		TopicInText:     10,
		BoostInTitle:    8,
		BoostInText:     5,
		FilterInTitle:   -20,
		FilterInText:    -10,
		RecencyBase:     10,
		RecencyDecay:    0.9,
		Trust:           5,
		LongTextBonus:   3,
		ShortTextBonus:  1,
		FilterExclusion: -20,
	}
}

// heuristicScore computes the weighted heuristic score for one article.
// The second return value is true when the item matched filter keywords hard
// enough to be excluded before LLM consideration.
func heuristicScore(article domain.Article, topic string, boost, filter []string, w Weights, now time.Time) (float64, bool) {
	title := strings.ToLower(article.Title)
	text := strings.ToLower(article.Text)
	if text == "" {
		text = strings.ToLower(article.Excerpt)
	}

	var score float64

	if topic != "" {
		topicLower := strings.ToLower(topic)
		if strings.Contains(title, topicLower) {
			score += w.TopicInTitle
		}
		if strings.Contains(text, topicLower) {
			score += w.TopicInText
		}
	}

	for _, kw := range boost {
		kwLower := strings.ToLower(kw)
		if kwLower == "" {
			continue
		}
		if strings.Contains(title, kwLower) {
			score += w.BoostInTitle
		}
		if strings.Contains(text, kwLower) {
			score += w.BoostInText
		}
	}

	var filterPenalty float64
	for _, kw := range filter {
		kwLower := strings.ToLower(kw)
		if kwLower == "" {
			continue
		}
		if strings.Contains(title, kwLower) {
			filterPenalty += w.FilterInTitle
		}
		if strings.Contains(text, kwLower) {
			filterPenalty += w.FilterInText
		}
	}
	score += filterPenalty
	if w.FilterExclusion < 0 && filterPenalty <= w.FilterExclusion {
		return score, true
	}

	// Recency: exponential decay over article age in days.
	if !article.PublishedAt.IsZero() {
		ageDays := now.Sub(article.PublishedAt).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		score += w.RecencyBase * math.Pow(w.RecencyDecay, ageDays)
	}

	score += w.Trust * article.TrustWeight

	if article.WordCount > 200 {
		score += w.LongTextBonus
	} else if article.WordCount > 100 {
		score += w.ShortTextBonus
	}

	return score, false
}

// normalizeScores min-max scales raw heuristic scores into [0,1]. A constant
// slate maps to 1.0 so combining with LLM scores stays meaningful.
func normalizeScores(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}

	min, max := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	normalized := make([]float64, len(scores))
	if max == min {
		for i := range normalized {
			normalized[i] = 1
		}
		return normalized
	}
	for i, s := range scores {
		normalized[i] = (s - min) / (max - min)
	}
	return normalized
}
