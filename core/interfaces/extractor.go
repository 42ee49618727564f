package interfaces

import (
	"context"

	"newsfetch-api/core/domain"
)

// Extractor turns fetched page HTML into a clean article. Implementations are
// tried in a fixed order by the extraction engine; Accept gates whether the
// produced article is good enough to stop the chain.
type Extractor interface {
	// Name identifies the extractor for Article.Method and logging.
	Name() domain.ExtractionMethod

	// Extract produces an article from the raw page HTML. A nil error with
	// empty text is possible and is treated as a rejection by the engine.
	Extract(ctx context.Context, pageURL string, html []byte) (domain.Article, error)

	// Accept reports whether the extracted article meets this extractor's
	// quality gate. raw is the fetched page the article came from.
	Accept(article domain.Article, raw []byte) bool
}
