// ABOUTME: Summarizer producing a short digest of a ranked collection
// ABOUTME: LLM-backed with an extractive first-sentence fallback; never errors out

package summary

import (
	"context"
	"strings"
	"time"
	"unicode"

	"newsfetch-api/core/domain"
	"newsfetch-api/core/interfaces"
)

// Options tunes summarization.
type Options struct {
	// MaxBullets bounds the digest length (default 5)
	MaxBullets int

	// BulletCharBudget truncates extractive bullets (default 200)
	BulletCharBudget int

	// ExcerptChars is how much item text goes into the LLM prompt (default 300)
	ExcerptChars int

	// LLMTimeout bounds the summarize call (default 30s)
	LLMTimeout time.Duration
}

// Service generates collection digests.
type Service struct {
	deps interfaces.Dependencies
	opts Options
	now  func() time.Time
}

// NewService creates a summarizer.
func NewService(deps interfaces.Dependencies, opts Options) *Service {
	if opts.MaxBullets <= 0 {
		opts.MaxBullets = 5
	}
	if opts.BulletCharBudget <= 0 {
		opts.BulletCharBudget = 200
	}
	if opts.ExcerptChars <= 0 {
		opts.ExcerptChars = 300
	}
	if opts.LLMTimeout <= 0 {
		opts.LLMTimeout = 30 * time.Second
	}
	return &Service{deps: deps, opts: opts, now: time.Now}
}

// Summarize always returns a Summary. LLM failures degrade to the extractive
// path and are logged, never propagated.
func (s *Service) Summarize(ctx context.Context, collection domain.Collection) domain.Summary {
	result := domain.Summary{
		Topic:       collection.Topic,
		GeneratedAt: s.now(),
	}
	if len(collection.Items) == 0 {
		result.Method = "extractive"
		return result
	}

	if bullets := s.summarizeWithLLM(ctx, collection); len(bullets) > 0 {
		result.Bullets = bullets
		result.Method = "llm"
		return result
	}

	result.Bullets = s.extractiveBullets(collection)
	result.Method = "extractive"
	return result
}

func (s *Service) summarizeWithLLM(ctx context.Context, collection domain.Collection) []string {
	if s.deps.LLM == nil || !s.deps.LLM.Available() {
		return nil
	}

	inputs := make([]interfaces.SummaryInput, 0, len(collection.Items))
	for _, item := range collection.Items {
		excerpt := item.Article.Excerpt
		if excerpt == "" {
			excerpt = item.Article.Text
		}
		inputs = append(inputs, interfaces.SummaryInput{
			Title:     item.Article.Title,
			Source:    item.Article.SourceID,
			Excerpt:   truncate(excerpt, s.opts.ExcerptChars),
			Published: formatPublished(item.Article.PublishedAt),
		})
	}

	llmCtx, cancel := context.WithTimeout(ctx, s.opts.LLMTimeout)
	defer cancel()

	bullets, err := s.deps.LLM.Summarize(llmCtx, collection.Topic, inputs, s.opts.MaxBullets)
	if err != nil {
		if s.deps.Logger != nil {
			s.deps.Logger.Warn("LLM summarize failed, using extractive fallback", map[string]interface{}{
				"topic": collection.Topic,
				"error": err.Error(),
			})
		}
		return nil
	}
	if len(bullets) > s.opts.MaxBullets {
		bullets = bullets[:s.opts.MaxBullets]
	}
	return bullets
}

// extractiveBullets takes the first sentence of each item's text, or the
// title when no text survived extraction.
func (s *Service) extractiveBullets(collection domain.Collection) []string {
	bullets := make([]string, 0, s.opts.MaxBullets)
	for _, item := range collection.Items {
		if len(bullets) >= s.opts.MaxBullets {
			break
		}
		bullet := firstSentence(item.Article.Text)
		if bullet == "" {
			bullet = strings.TrimSpace(item.Article.Title)
		}
		if bullet == "" {
			continue
		}
		bullets = append(bullets, truncate(bullet, s.opts.BulletCharBudget))
	}
	return bullets
}

// firstSentence returns text up to the first sentence terminator followed by
// whitespace or end of input.
func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	runes := []rune(text)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
			return string(runes[:i+1])
		}
	}
	return text
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	cut := string(runes[:max-3])
	if idx := strings.LastIndex(cut, " "); idx > (max-3)*7/10 {
		cut = cut[:idx]
	}
	return cut + "..."
}

func formatPublished(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
