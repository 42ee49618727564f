// ABOUTME: Primary extractor built on go-shiori/go-readability
// ABOUTME: Accepted only when text length and density clear the configured gates

package extract

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"newsfetch-api/core/domain"
)

// ReadabilityExtractor runs the readability algorithm over fetched HTML. It
// is the first link in the fallback chain and carries an explicit acceptance
// gate: short or low-density output hands over to the fallback extractor.
type ReadabilityExtractor struct {
	// MinTextLength is the minimum accepted text length in bytes
	MinTextLength int

	// MinDensity is the minimum visible-text to raw-markup ratio
	MinDensity float64
}

// NewReadabilityExtractor creates the primary extractor with its gates.
func NewReadabilityExtractor(minTextLength int, minDensity float64) *ReadabilityExtractor {
	if minTextLength <= 0 {
		minTextLength = 200
	}
	if minDensity <= 0 {
		minDensity = 0.05
	}
	return &ReadabilityExtractor{MinTextLength: minTextLength, MinDensity: minDensity}
}

// Name identifies this extractor on produced articles.
func (e *ReadabilityExtractor) Name() domain.ExtractionMethod {
	return domain.ExtractionReadability
}

// Extract runs readability over the page HTML.
func (e *ReadabilityExtractor) Extract(ctx context.Context, pageURL string, html []byte) (domain.Article, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return domain.Article{}, err
	}

	parsed, err := readability.FromReader(bytes.NewReader(html), parsedURL)
	if err != nil {
		return domain.Article{}, err
	}

	article := domain.Article{
		CanonicalURL: pageURL,
		Title:        strings.TrimSpace(parsed.Title),
		Text:         strings.TrimSpace(parsed.TextContent),
		Author:       strings.TrimSpace(parsed.Byline),
		SiteName:     parsed.SiteName,
		Excerpt:      strings.TrimSpace(parsed.Excerpt),
		Method:       domain.ExtractionReadability,
		ExtractedAt:  time.Now(),
	}
	if parsed.PublishedTime != nil {
		article.PublishedAt = *parsed.PublishedTime
	}
	article.FillDerived()

	return article, nil
}

// Accept gates the readability output on length and the page's visible-text
// density. Pages that are mostly markup hand over to the fallback extractor
// even when readability returns enough text.
func (e *ReadabilityExtractor) Accept(article domain.Article, raw []byte) bool {
	if len(article.Text) < e.MinTextLength {
		return false
	}
	return textDensity(visibleText(raw), len(raw)) >= e.MinDensity
}
