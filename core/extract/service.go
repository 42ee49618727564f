// ABOUTME: Extraction engine turning URLs into clean article text
// ABOUTME: Ordered fallback chain, cache-backed under article: keys, errors never cached

package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"newsfetch-api/core/aggregator"
	"newsfetch-api/core/contentcache"
	"newsfetch-api/core/domain"
	coreerrors "newsfetch-api/core/errors"
	"newsfetch-api/core/interfaces"
)

// maxPageBytes caps how much article HTML is read per fetch.
const maxPageBytes = 4 << 20

// Options tunes extraction behavior.
type Options struct {
	// ArticleCacheTTL is how long extracted articles stay cached (default 24h)
	ArticleCacheTTL time.Duration

	// AttemptTimeout bounds each extractor invocation (default 20s)
	AttemptTimeout time.Duration

	// Concurrency bounds ExtractAll fan-out (default 5)
	Concurrency int
}

// Service extracts article content through an ordered extractor chain.
type Service struct {
	deps       interfaces.Dependencies
	cache      *contentcache.Service
	extractors []interfaces.Extractor
	opts       Options
}

// NewService creates an extraction engine. The extractor chain is tried in
// the given order; cache may be nil to disable article caching.
func NewService(deps interfaces.Dependencies, cache *contentcache.Service, extractors []interfaces.Extractor, opts Options) *Service {
	if opts.ArticleCacheTTL <= 0 {
		opts.ArticleCacheTTL = 24 * time.Hour
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = 20 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	return &Service{deps: deps, cache: cache, extractors: extractors, opts: opts}
}

// Extract returns the article for a URL, from cache when fresh. Failed
// extractions are surfaced as ExtractionError and never cached, so later
// retries remain possible.
func (s *Service) Extract(ctx context.Context, rawURL string) (domain.Article, error) {
	normalized := aggregator.NormalizeURL(rawURL)
	if normalized == "" {
		return domain.Article{}, &coreerrors.ValidationError{Field: "url", Message: "url cannot be empty"}
	}

	if s.cache == nil {
		return s.extractDirect(ctx, normalized)
	}

	key := fmt.Sprintf("article:%s", normalized)
	payload, err := s.cache.GetOrCompute(ctx, key, s.opts.ArticleCacheTTL, func(ctx context.Context) ([]byte, error) {
		article, err := s.extractDirect(ctx, normalized)
		if err != nil {
			return nil, err
		}
		return json.Marshal(article)
	})
	if err != nil {
		return domain.Article{}, err
	}

	var article domain.Article
	if err := json.Unmarshal(payload, &article); err != nil {
		return domain.Article{}, err
	}
	return article, nil
}

// ExtractAll extracts multiple URLs with bounded concurrency. Per-URL
// failures leave a nil slot in the result and are returned in the error map.
func (s *Service) ExtractAll(ctx context.Context, urls []string) ([]domain.Article, map[string]error) {
	articles := make([]domain.Article, 0, len(urls))
	failures := make(map[string]error)

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, s.opts.Concurrency)
	)

	for _, u := range urls {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				mu.Lock()
				failures[u] = ctx.Err()
				mu.Unlock()
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			article, err := s.Extract(ctx, u)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[u] = err
				return
			}
			articles = append(articles, article)
		}(u)
	}

	wg.Wait()
	return articles, failures
}

// extractDirect fetches the page once and walks the extractor chain.
func (s *Service) extractDirect(ctx context.Context, pageURL string) (domain.Article, error) {
	html, err := s.fetchPage(ctx, pageURL)
	if err != nil {
		return domain.Article{}, &coreerrors.FetchError{URL: pageURL, Err: err}
	}

	var attempts []string
	for i, extractor := range s.extractors {
		attemptCtx, cancel := context.WithTimeout(ctx, s.opts.AttemptTimeout)
		article, err := extractor.Extract(attemptCtx, pageURL, html)
		cancel()

		attempts = append(attempts, string(extractor.Name()))

		if err != nil {
			// A timeout or parse failure on this extractor transitions to the
			// next link in the chain, it is not retried in place.
			if s.deps.Logger != nil {
				s.deps.Logger.Debug("extractor failed, trying next", map[string]interface{}{
					"extractor": string(extractor.Name()),
					"url":       pageURL,
					"error":     err.Error(),
				})
			}
			continue
		}

		if !extractor.Accept(article, html) {
			if s.deps.Logger != nil && i < len(s.extractors)-1 {
				s.deps.Logger.Debug("extractor output rejected by gate", map[string]interface{}{
					"extractor":   string(extractor.Name()),
					"url":         pageURL,
					"text_length": len(article.Text),
				})
			}
			continue
		}

		return article, nil
	}

	return domain.Article{}, &coreerrors.ExtractionError{URL: pageURL, Attempts: attempts}
}

// fetchPage retrieves the raw page HTML through the injected client. Retry
// and backoff for transient failures live in the HTTP client; 4xx statuses
// are terminal here.
func (s *Service) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	if s.deps.HTTPClient == nil {
		return nil, fmt.Errorf("HTTP client not configured")
	}

	resp, err := s.deps.HTTPClient.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body().Close()

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("page returned status %d", resp.StatusCode())
	}

	return io.ReadAll(io.LimitReader(resp.Body(), maxPageBytes))
}
