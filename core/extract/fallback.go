// ABOUTME: Fallback extractor using goquery paragraph and metadata scraping
// ABOUTME: Accepted unconditionally when it produces any non-empty text

package extract

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newsfetch-api/core/domain"
)

// FallbackExtractor scrapes paragraph text and meta tags directly. It trades
// precision for coverage: pages readability rejects often still yield usable
// text this way.
type FallbackExtractor struct{}

// NewFallbackExtractor creates the fallback extractor.
func NewFallbackExtractor() *FallbackExtractor {
	return &FallbackExtractor{}
}

// Name identifies this extractor on produced articles.
func (e *FallbackExtractor) Name() domain.ExtractionMethod {
	return domain.ExtractionFallback
}

// Extract collects paragraph text and document metadata with goquery.
func (e *FallbackExtractor) Extract(ctx context.Context, pageURL string, html []byte) (domain.Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return domain.Article{}, err
	}

	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()

	var paragraphs []string
	doc.Find("article p, main p, p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) >= 40 {
			paragraphs = append(paragraphs, text)
		}
	})

	text := strings.Join(paragraphs, "\n\n")
	if text == "" {
		// Last resort: whatever visible text the body carries.
		text = strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	}

	article := domain.Article{
		CanonicalURL: pageURL,
		Title:        metaOr(doc, `meta[property="og:title"]`, doc.Find("title").First().Text()),
		Text:         text,
		Author:       metaOr(doc, `meta[name="author"]`, metaOr(doc, `meta[property="article:author"]`, "")),
		SiteName:     metaOr(doc, `meta[property="og:site_name"]`, ""),
		Excerpt:      metaOr(doc, `meta[name="description"]`, metaOr(doc, `meta[property="og:description"]`, "")),
		Method:       domain.ExtractionFallback,
		ExtractedAt:  time.Now(),
	}

	if published := metaOr(doc, `meta[property="article:published_time"]`, ""); published != "" {
		if t, err := time.Parse(time.RFC3339, published); err == nil {
			article.PublishedAt = t
		}
	}

	article.Title = strings.TrimSpace(article.Title)
	article.FillDerived()

	return article, nil
}

// Accept takes any non-empty text; the fallback has no further gate.
func (e *FallbackExtractor) Accept(article domain.Article, _ []byte) bool {
	return strings.TrimSpace(article.Text) != ""
}

func metaOr(doc *goquery.Document, selector, fallback string) string {
	if content, ok := doc.Find(selector).First().Attr("content"); ok && content != "" {
		return content
	}
	return fallback
}
