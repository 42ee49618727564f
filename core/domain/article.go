// ABOUTME: Article domain model holds extracted full content for a URL
// ABOUTME: Content hashes are computed over whitespace-normalized text for dedup

package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// ExtractionMethod records which extractor produced an article's text.
type ExtractionMethod string

const (
	// ExtractionReadability means the primary readability extractor was accepted
	ExtractionReadability ExtractionMethod = "readability"

	// ExtractionFallback means the goquery paragraph extractor was used
	ExtractionFallback ExtractionMethod = "fallback"

	// ExtractionNone means no extractor produced usable text
	ExtractionNone ExtractionMethod = "none"
)

// Article represents extracted full content for a canonical URL.
type Article struct {
	CanonicalURL string `json:"canonical_url"`
	Title        string `json:"title"`
	Text         string `json:"text"`
	Author       string `json:"author,omitempty"`
	SiteName     string `json:"site_name,omitempty"`
	Excerpt      string `json:"excerpt,omitempty"`

	// SourceID and TrustWeight are set when the article came through the
	// aggregator; direct fetches leave them empty.
	SourceID    string  `json:"source_id,omitempty"`
	TrustWeight float64 `json:"trust_weight,omitempty"`

	PublishedAt time.Time        `json:"published_at,omitempty"`
	Method      ExtractionMethod `json:"extraction_method"`
	ContentHash string           `json:"content_hash"`
	WordCount   int              `json:"word_count"`
	ExtractedAt time.Time        `json:"extracted_at"`
}

// HashContent returns the hex sha256 of whitespace-normalized text. Two
// articles with equal content hashes are duplicates regardless of URL.
func HashContent(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// FillDerived computes the content hash and word count from the text.
func (a *Article) FillDerived() {
	a.ContentHash = HashContent(a.Text)
	a.WordCount = len(strings.Fields(a.Text))
}
