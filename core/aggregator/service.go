// ABOUTME: Feed aggregator fetches and normalizes entries from all configured sources
// ABOUTME: Per-source failures are collected in an error map and never abort the batch

package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"newsfetch-api/core/contentcache"
	"newsfetch-api/core/domain"
	coreerrors "newsfetch-api/core/errors"
	"newsfetch-api/core/interfaces"
)

// Options tunes aggregator behavior. Zero values select the defaults.
type Options struct {
	// Concurrency bounds the per-source fetch fan-out (default 10)
	Concurrency int

	// FeedCacheTTL is the TTL for feed-level cache entries (default 15m)
	FeedCacheTTL time.Duration

	// MaxEntryAge drops entries older than this; 0 disables the cutoff
	MaxEntryAge time.Duration

	// ExcludeDomains skips entries whose article domain matches
	ExcludeDomains []string
}

// Service fetches feeds from the source registry and merges their entries.
type Service struct {
	deps  interfaces.Dependencies
	cache *contentcache.Service
	opts  Options
}

// NewService creates a feed aggregator. cache may be nil to disable
// feed-level caching.
func NewService(deps interfaces.Dependencies, cache *contentcache.Service, opts Options) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 10
	}
	if opts.FeedCacheTTL <= 0 {
		opts.FeedCacheTTL = 15 * time.Minute
	}
	return &Service{deps: deps, cache: cache, opts: opts}
}

// Result is the outcome of one aggregation call.
type Result struct {
	Entries []domain.FeedEntry
	// Errors maps source id to its fetch failure. A source appears in at
	// most one of Entries (via SourceID) or Errors.
	Errors map[string]error
}

// Aggregate fetches each source independently, applies limitPerSource before
// merging, then deduplicates by normalized URL and per-source GUID keeping
// the earliest published time. Entry order within one source is preserved;
// cross-source order is unspecified.
func (s *Service) Aggregate(ctx context.Context, sources []domain.Source, limitPerSource int) (Result, error) {
	result := Result{Errors: make(map[string]error)}
	if len(sources) == 0 {
		return result, nil
	}

	type sourceOutcome struct {
		source  domain.Source
		entries []domain.FeedEntry
		err     error
	}

	outcomes := make(chan sourceOutcome, len(sources))
	semaphore := make(chan struct{}, s.opts.Concurrency)
	var wg sync.WaitGroup

	for _, src := range sources {
		wg.Add(1)
		go func(src domain.Source) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				outcomes <- sourceOutcome{source: src, err: ctx.Err()}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			entries, err := s.fetchSource(ctx, src, limitPerSource)
			outcomes <- sourceOutcome{source: src, entries: entries, err: err}
		}(src)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var merged []domain.FeedEntry
	for outcome := range outcomes {
		if outcome.err != nil {
			result.Errors[outcome.source.ID] = &coreerrors.FetchError{
				SourceID: outcome.source.ID,
				URL:      outcome.source.URL,
				Err:      outcome.err,
			}
			if s.deps.Logger != nil {
				s.deps.Logger.Error("failed to fetch source", map[string]interface{}{
					"source": outcome.source.ID,
					"url":    outcome.source.URL,
					"error":  outcome.err.Error(),
				})
			}
			continue
		}
		merged = append(merged, outcome.entries...)
	}

	result.Entries = dedupeEntries(merged)
	return result, nil
}

// fetchSource returns the normalized, limited entries for one source, going
// through the feed-level cache when configured.
func (s *Service) fetchSource(ctx context.Context, src domain.Source, limit int) ([]domain.FeedEntry, error) {
	if s.cache == nil {
		return s.fetchAndParse(ctx, src, limit)
	}

	key := fmt.Sprintf("feed:%s", src.ID)
	payload, err := s.cache.GetOrCompute(ctx, key, s.opts.FeedCacheTTL, func(ctx context.Context) ([]byte, error) {
		entries, err := s.fetchAndParse(ctx, src, limit)
		if err != nil {
			return nil, err
		}
		return json.Marshal(entries)
	})
	if err != nil {
		return nil, err
	}

	var entries []domain.FeedEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Service) fetchAndParse(ctx context.Context, src domain.Source, limit int) ([]domain.FeedEntry, error) {
	if s.deps.HTTPClient == nil {
		return nil, fmt.Errorf("HTTP client not configured")
	}

	resp, err := s.deps.HTTPClient.Get(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	defer resp.Body().Close()

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode())
	}

	body, err := io.ReadAll(resp.Body())
	if err != nil {
		return nil, err
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	cutoff := time.Time{}
	if s.opts.MaxEntryAge > 0 {
		cutoff = time.Now().Add(-s.opts.MaxEntryAge)
	}

	entries := make([]domain.FeedEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if limit > 0 && len(entries) >= limit {
			break
		}

		entry := convertItem(item, src)
		if entry.URL == "" {
			continue
		}
		if !cutoff.IsZero() && !entry.PublishedAt.IsZero() && entry.PublishedAt.Before(cutoff) {
			continue
		}
		if s.excluded(entry.URL) {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *Service) excluded(articleURL string) bool {
	if len(s.opts.ExcludeDomains) == 0 {
		return false
	}
	domain := Domain(articleURL)
	for _, excluded := range s.opts.ExcludeDomains {
		if domain == strings.ToLower(strings.TrimPrefix(excluded, "www.")) {
			return true
		}
	}
	return false
}

func convertItem(item *gofeed.Item, src domain.Source) domain.FeedEntry {
	entry := domain.FeedEntry{
		GUID:        item.GUID,
		URL:         NormalizeURL(item.Link),
		Title:       strings.TrimSpace(item.Title),
		Summary:     stripHTML(item.Description),
		SourceID:    src.ID,
		TrustWeight: src.TrustWeight,
	}

	if entry.GUID == "" {
		entry.GUID = entry.URL
	}
	if entry.Summary == "" && item.Content != "" {
		entry.Summary = stripHTML(item.Content)
	}

	// Published falls back to updated; zero time when the feed has neither.
	if item.PublishedParsed != nil {
		entry.PublishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		entry.PublishedAt = *item.UpdatedParsed
	}

	return entry
}

// dedupeEntries merges entries sharing a normalized URL, or an identical GUID
// within the same source, keeping the earliest published time and the first
// seen metadata otherwise.
func dedupeEntries(entries []domain.FeedEntry) []domain.FeedEntry {
	if len(entries) == 0 {
		return entries
	}

	keyOf := func(e domain.FeedEntry) string {
		if e.URL != "" {
			return "url\x00" + e.URL
		}
		return "guid\x00" + e.SourceID + "\x00" + e.GUID
	}

	index := make(map[string]int, len(entries))
	guidIndex := make(map[string]int, len(entries))
	deduped := make([]domain.FeedEntry, 0, len(entries))

	for _, entry := range entries {
		key := keyOf(entry)
		guidKey := entry.SourceID + "\x00" + entry.GUID

		pos, seen := index[key]
		if !seen {
			pos, seen = guidIndex[guidKey]
		}

		if seen {
			existing := &deduped[pos]
			if !entry.PublishedAt.IsZero() &&
				(existing.PublishedAt.IsZero() || entry.PublishedAt.Before(existing.PublishedAt)) {
				existing.PublishedAt = entry.PublishedAt
			}
			continue
		}

		deduped = append(deduped, entry)
		index[key] = len(deduped) - 1
		guidIndex[guidKey] = len(deduped) - 1
	}

	return deduped
}

// SortByPublished orders entries newest first, for presentation surfaces that
// want a stable default order. Ranking output order is the only order
// downstream consumers may rely on.
func SortByPublished(entries []domain.FeedEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PublishedAt.After(entries[j].PublishedAt)
	})
}

// stripHTML removes markup and collapses whitespace in feed descriptions.
func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
