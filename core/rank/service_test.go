package rank

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"newsfetch-api/core/domain"
	"newsfetch-api/core/interfaces"
)

func testArticle(url, title, text string, published time.Time, trust float64) domain.Article {
	a := domain.Article{
		CanonicalURL: url,
		Title:        title,
		Text:         text,
		PublishedAt:  published,
		TrustWeight:  trust,
	}
	a.FillDerived()
	return a
}

func deps(llm interfaces.LLM) interfaces.Dependencies {
	return interfaces.Dependencies{Logger: mockLogger{}, LLM: llm}
}

func TestRankOrdersByTopicRelevance(t *testing.T) {
	now := time.Now()
	items := []domain.Article{
		testArticle("https://a.example/1", "Unrelated piece", "nothing of note", now, 0.5),
		testArticle("https://a.example/2", "Quantum computing advance", "quantum computing progress reported", now, 0.5),
	}

	svc := NewService(deps(nil), Options{})
	collection := svc.Rank(context.Background(), items, "quantum computing", 5)

	if len(collection.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(collection.Items))
	}
	if collection.Items[0].Article.CanonicalURL != "https://a.example/2" {
		t.Errorf("top item = %s, want the on-topic article", collection.Items[0].Article.CanonicalURL)
	}
	if collection.Items[0].Rank != 1 || collection.Items[1].Rank != 2 {
		t.Errorf("ranks = %d, %d; want 1, 2", collection.Items[0].Rank, collection.Items[1].Rank)
	}
	if collection.Topic != "quantum computing" {
		t.Errorf("topic = %q", collection.Topic)
	}
}

func TestRankIsDeterministic(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	items := []domain.Article{
		testArticle("https://a.example/b", "story", "text", now, 0.5),
		testArticle("https://a.example/a", "story", "text", now, 0.5),
		testArticle("https://a.example/c", "story", "text", now, 0.5),
	}

	svc := NewService(deps(nil), Options{})

	var first []string
	for run := 0; run < 5; run++ {
		collection := svc.Rank(context.Background(), items, "story", 3)
		var urls []string
		for _, item := range collection.Items {
			urls = append(urls, item.Article.CanonicalURL)
		}
		if first == nil {
			first = urls
			continue
		}
		if !reflect.DeepEqual(first, urls) {
			t.Fatalf("run %d produced different order: %v vs %v", run, urls, first)
		}
	}

	// Full ties fall through to canonical URL ascending.
	want := []string{"https://a.example/a", "https://a.example/b", "https://a.example/c"}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("tie-break order = %v, want %v", first, want)
	}
}

func TestRankExcludesHardFilteredItems(t *testing.T) {
	now := time.Now()
	items := []domain.Article{
		testArticle("https://a.example/1", "Celebrity gossip special", "gossip text", now, 0.5),
		testArticle("https://a.example/2", "Science news", "research text", now, 0.5),
	}

	svc := NewService(deps(nil), Options{KeywordsFilter: []string{"gossip"}})
	collection := svc.Rank(context.Background(), items, "", 5)

	if len(collection.Items) != 1 {
		t.Fatalf("items = %d, want 1 after exclusion", len(collection.Items))
	}
	if collection.Items[0].Article.CanonicalURL != "https://a.example/2" {
		t.Errorf("surviving item = %s", collection.Items[0].Article.CanonicalURL)
	}
}

func TestRankUsesLLMScoresWhenAvailable(t *testing.T) {
	now := time.Now()
	items := []domain.Article{
		testArticle("https://a.example/heuristic-favorite", "space launch today", "space launch details", now, 0.9),
		testArticle("https://a.example/llm-favorite", "space", "background piece on space", now.Add(-time.Hour), 0.1),
	}

	llm := &mockLLM{
		available: true,
		scoreFunc: func(ctx context.Context, topic string, candidates []interfaces.RankCandidate) (map[int]float64, error) {
			// Invert the heuristic preference decisively.
			scores := make(map[int]float64)
			for _, c := range candidates {
				if c.Title == "space" {
					scores[c.Index] = 10
				} else {
					scores[c.Index] = 0
				}
			}
			return scores, nil
		},
	}

	svc := NewService(deps(llm), Options{})
	collection := svc.Rank(context.Background(), items, "space", 2)

	if collection.Items[0].Article.CanonicalURL != "https://a.example/llm-favorite" {
		t.Errorf("top item = %s, want the LLM favorite", collection.Items[0].Article.CanonicalURL)
	}
	if collection.Items[0].LLMScore == nil || *collection.Items[0].LLMScore != 1.0 {
		t.Errorf("LLMScore = %v, want normalized 1.0", collection.Items[0].LLMScore)
	}
}

func TestRankFallsBackToHeuristicsOnLLMError(t *testing.T) {
	now := time.Now()
	items := []domain.Article{
		testArticle("https://a.example/1", "climate report published", "climate details", now, 0.5),
		testArticle("https://a.example/2", "other news", "unrelated", now, 0.5),
	}

	llm := &mockLLM{
		available: true,
		scoreFunc: func(ctx context.Context, topic string, candidates []interfaces.RankCandidate) (map[int]float64, error) {
			return nil, errors.New("timeout")
		},
	}

	svc := NewService(deps(llm), Options{})
	collection := svc.Rank(context.Background(), items, "climate", 2)

	if len(collection.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(collection.Items))
	}
	if collection.Items[0].Article.CanonicalURL != "https://a.example/1" {
		t.Errorf("top item = %s, want heuristic leader", collection.Items[0].Article.CanonicalURL)
	}
	for _, item := range collection.Items {
		if item.LLMScore != nil {
			t.Error("LLMScore must be nil when the rerank call failed")
		}
	}
}

func TestRankClampsOutOfRangeLLMScores(t *testing.T) {
	now := time.Now()
	items := []domain.Article{
		testArticle("https://a.example/1", "alpha", "alpha text", now, 0.5),
		testArticle("https://a.example/2", "beta", "beta text", now, 0.5),
	}

	llm := &mockLLM{
		available: true,
		scoreFunc: func(ctx context.Context, topic string, candidates []interfaces.RankCandidate) (map[int]float64, error) {
			return map[int]float64{0: 25, 1: -3, 99: 5}, nil
		},
	}

	svc := NewService(deps(llm), Options{})
	collection := svc.Rank(context.Background(), items, "alpha", 2)

	for _, item := range collection.Items {
		if item.LLMScore != nil && (*item.LLMScore < 0 || *item.LLMScore > 1) {
			t.Errorf("normalized LLM score out of range: %v", *item.LLMScore)
		}
	}
}

func TestRankHonorsTopN(t *testing.T) {
	now := time.Now()
	var items []domain.Article
	for i := 0; i < 10; i++ {
		items = append(items, testArticle(
			"https://a.example/"+string(rune('a'+i)), "news", "text", now.Add(-time.Duration(i)*time.Hour), 0.5))
	}

	svc := NewService(deps(nil), Options{})
	collection := svc.Rank(context.Background(), items, "", 3)
	if len(collection.Items) != 3 {
		t.Errorf("items = %d, want 3", len(collection.Items))
	}
}

func TestRankEmptyInput(t *testing.T) {
	svc := NewService(deps(nil), Options{})
	collection := svc.Rank(context.Background(), nil, "anything", 5)
	if len(collection.Items) != 0 {
		t.Errorf("items = %d, want 0", len(collection.Items))
	}
	if collection.CreatedAt.IsZero() {
		t.Error("CreatedAt must be set even for empty collections")
	}
}

func TestHeuristicScoreComponents(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	w := DefaultWeights()

	fresh := domain.Article{
		Title:       "Fusion energy milestone",
		Text:        "A fusion energy breakthrough was announced today.",
		PublishedAt: now,
		TrustWeight: 1.0,
	}
	score, excluded := heuristicScore(fresh, "fusion energy", nil, nil, w, now)
	if excluded {
		t.Fatal("on-topic article must not be excluded")
	}
	// topic in title (15) + topic in text (10) + recency at age 0 (10) + trust (5)
	if score != 40 {
		t.Errorf("score = %v, want 40", score)
	}

	old := fresh
	old.PublishedAt = now.AddDate(0, 0, -7)
	oldScore, _ := heuristicScore(old, "fusion energy", nil, nil, w, now)
	if oldScore >= score {
		t.Errorf("older article scored %v, want less than %v", oldScore, score)
	}
}

func TestHeuristicScoreFilterExclusion(t *testing.T) {
	now := time.Now()
	w := DefaultWeights()

	article := domain.Article{
		Title: "Sponsored content roundup",
		Text:  "This sponsored piece promotes a product.",
	}
	_, excluded := heuristicScore(article, "", nil, []string{"sponsored"}, w, now)
	if !excluded {
		t.Error("title+text filter hits must exclude the item")
	}

	textOnly := domain.Article{
		Title: "Regular headline",
		Text:  "Contains one sponsored mention in passing.",
	}
	score, excluded := heuristicScore(textOnly, "", nil, []string{"sponsored"}, w, now)
	if excluded {
		t.Error("a single text hit (-10) must not exclude")
	}
	if score >= 0 {
		t.Errorf("score = %v, want negative penalty applied", score)
	}
}

func TestNormalizeScores(t *testing.T) {
	got := normalizeScores([]float64{10, 20, 30})
	want := []float64{0, 0.5, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("normalizeScores = %v, want %v", got, want)
	}

	constant := normalizeScores([]float64{7, 7, 7})
	for _, v := range constant {
		if v != 1 {
			t.Errorf("constant slate normalized to %v, want 1", v)
		}
	}

	if normalizeScores(nil) != nil {
		t.Error("nil input must return nil")
	}
}
