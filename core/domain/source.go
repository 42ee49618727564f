// ABOUTME: Source domain model represents a configured feed origin
// ABOUTME: FeedEntry represents a single normalized item pulled from a source

package domain

import (
	"errors"
	"net/url"
	"time"
)

// Source represents a configured RSS/Atom feed origin.
type Source struct {
	// ID is the unique identifier for the source within the registry
	ID string

	// URL is the feed URL to fetch
	URL string

	// Category groups sources by topic (e.g., "technology", "general")
	Category string

	// TrustWeight expresses editorial confidence in the source, in [0,1]
	TrustWeight float64
}

// Validate checks that the source is well-formed.
func (s Source) Validate() error {
	if s.ID == "" {
		return errors.New("source ID cannot be empty")
	}
	parsed, err := url.Parse(s.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return errors.New("source URL must be absolute")
	}
	if s.TrustWeight < 0 || s.TrustWeight > 1 {
		return errors.New("source trust weight must be in [0,1]")
	}
	return nil
}

// FeedEntry represents one item from a parsed feed, after URL normalization.
type FeedEntry struct {
	// GUID is the entry's identifier, unique per source
	GUID string

	// URL is the normalized article URL
	URL string

	// Title is the entry headline
	Title string

	// Summary is the entry's plain-text description, if the feed provided one
	Summary string

	// PublishedAt is the entry publication time; zero when the feed omits it
	PublishedAt time.Time

	// SourceID identifies the source this entry came from
	SourceID string

	// TrustWeight is carried from the source for ranking
	TrustWeight float64
}
