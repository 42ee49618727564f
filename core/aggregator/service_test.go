package aggregator

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"newsfetch-api/core/contentcache"
	"newsfetch-api/core/domain"
	coreerrors "newsfetch-api/core/errors"
	"newsfetch-api/core/interfaces"
)

func rssFeed(items ...string) string {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test Feed</title>`
	for _, item := range items {
		feed += item
	}
	return feed + `</channel></rss>`
}

func rssItem(title, link, guid, pubDate string) string {
	item := fmt.Sprintf("<item><title>%s</title><link>%s</link>", title, link)
	if guid != "" {
		item += fmt.Sprintf("<guid>%s</guid>", guid)
	}
	if pubDate != "" {
		item += fmt.Sprintf("<pubDate>%s</pubDate>", pubDate)
	}
	return item + "</item>"
}

func testDeps(client interfaces.HTTPClient) interfaces.Dependencies {
	return interfaces.Dependencies{
		HTTPClient: client,
		Logger:     mockLogger{},
	}
}

func TestAggregateCollectsPerSourceErrors(t *testing.T) {
	feeds := map[string]string{
		"https://good.example/feed": rssFeed(
			rssItem("First", "https://good.example/a", "", "Mon, 02 Jan 2006 15:04:05 GMT"),
		),
	}

	client := &mockHTTPClient{
		getFunc: func(ctx context.Context, url string) (interfaces.Response, error) {
			if body, ok := feeds[url]; ok {
				return &mockResponse{statusCode: 200, body: body}, nil
			}
			return &mockResponse{statusCode: 500, body: "boom"}, nil
		},
	}

	svc := NewService(testDeps(client), nil, Options{})
	result, err := svc.Aggregate(context.Background(), []domain.Source{
		{ID: "good", URL: "https://good.example/feed", TrustWeight: 0.5},
		{ID: "bad", URL: "https://bad.example/feed", TrustWeight: 0.5},
	}, 0)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}
	if result.Entries[0].SourceID != "good" {
		t.Errorf("entry source = %q, want good", result.Entries[0].SourceID)
	}

	srcErr, ok := result.Errors["bad"]
	if !ok {
		t.Fatal("expected an error for source 'bad'")
	}
	if !coreerrors.IsFetch(srcErr) {
		t.Errorf("error for bad source is %T, want *FetchError", srcErr)
	}
	if _, ok := result.Errors["good"]; ok {
		t.Error("good source must not appear in the error map")
	}
}

func TestAggregateDeduplicatesByNormalizedURL(t *testing.T) {
	feedA := rssFeed(
		rssItem("Story", "https://news.example/story?utm_source=rss", "a-1", "Tue, 03 Jan 2006 10:00:00 GMT"),
	)
	feedB := rssFeed(
		rssItem("Story", "https://news.example/story", "b-1", "Mon, 02 Jan 2006 10:00:00 GMT"),
	)

	client := &mockHTTPClient{
		getFunc: func(ctx context.Context, url string) (interfaces.Response, error) {
			if url == "https://a.example/feed" {
				return &mockResponse{statusCode: 200, body: feedA}, nil
			}
			return &mockResponse{statusCode: 200, body: feedB}, nil
		},
	}

	svc := NewService(testDeps(client), nil, Options{})
	result, err := svc.Aggregate(context.Background(), []domain.Source{
		{ID: "a", URL: "https://a.example/feed", TrustWeight: 0.5},
		{ID: "b", URL: "https://b.example/feed", TrustWeight: 0.5},
	}, 0)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 deduplicated entry, got %d", len(result.Entries))
	}

	// The earliest published time wins regardless of arrival order.
	want := time.Date(2006, 1, 2, 10, 0, 0, 0, time.UTC)
	if !result.Entries[0].PublishedAt.Equal(want) {
		t.Errorf("PublishedAt = %v, want %v", result.Entries[0].PublishedAt, want)
	}
}

func TestAggregateAppliesPerSourceLimit(t *testing.T) {
	feed := rssFeed(
		rssItem("One", "https://news.example/1", "", ""),
		rssItem("Two", "https://news.example/2", "", ""),
		rssItem("Three", "https://news.example/3", "", ""),
	)
	client := &mockHTTPClient{
		getFunc: func(ctx context.Context, url string) (interfaces.Response, error) {
			return &mockResponse{statusCode: 200, body: feed}, nil
		},
	}

	svc := NewService(testDeps(client), nil, Options{})
	result, err := svc.Aggregate(context.Background(), []domain.Source{
		{ID: "s", URL: "https://news.example/feed", TrustWeight: 0.5},
	}, 2)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if len(result.Entries) != 2 {
		t.Errorf("expected 2 entries after limit, got %d", len(result.Entries))
	}
}

func TestAggregateSkipsExcludedDomains(t *testing.T) {
	feed := rssFeed(
		rssItem("Kept", "https://kept.example/a", "", ""),
		rssItem("Dropped", "https://www.blocked.example/b", "", ""),
	)
	client := &mockHTTPClient{
		getFunc: func(ctx context.Context, url string) (interfaces.Response, error) {
			return &mockResponse{statusCode: 200, body: feed}, nil
		},
	}

	svc := NewService(testDeps(client), nil, Options{ExcludeDomains: []string{"blocked.example"}})
	result, err := svc.Aggregate(context.Background(), []domain.Source{
		{ID: "s", URL: "https://news.example/feed", TrustWeight: 0.5},
	}, 0)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}
	if result.Entries[0].Title != "Kept" {
		t.Errorf("kept entry = %q, want Kept", result.Entries[0].Title)
	}
}

func TestAggregateServesRepeatCallsFromCache(t *testing.T) {
	var calls int32
	feed := rssFeed(rssItem("Story", "https://news.example/a", "", ""))
	client := &mockHTTPClient{
		getFunc: func(ctx context.Context, url string) (interfaces.Response, error) {
			atomic.AddInt32(&calls, 1)
			return &mockResponse{statusCode: 200, body: feed}, nil
		},
	}

	cache := contentcache.NewService(newMapCache(), mockLogger{})
	svc := NewService(testDeps(client), cache, Options{FeedCacheTTL: time.Minute})

	sources := []domain.Source{{ID: "s", URL: "https://news.example/feed", TrustWeight: 0.5}}
	for i := 0; i < 3; i++ {
		result, err := svc.Aggregate(context.Background(), sources, 0)
		if err != nil {
			t.Fatalf("Aggregate() error = %v", err)
		}
		if len(result.Entries) != 1 {
			t.Fatalf("call %d: expected 1 entry, got %d", i, len(result.Entries))
		}
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("HTTP fetches = %d, want 1", got)
	}
}

func TestAggregateEmptySources(t *testing.T) {
	svc := NewService(testDeps(&mockHTTPClient{}), nil, Options{})
	result, err := svc.Aggregate(context.Background(), nil, 0)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if len(result.Entries) != 0 || len(result.Errors) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestSortByPublishedNewestFirst(t *testing.T) {
	entries := []domain.FeedEntry{
		{Title: "old", PublishedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Title: "new", PublishedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{Title: "mid", PublishedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	SortByPublished(entries)
	if entries[0].Title != "new" || entries[2].Title != "old" {
		t.Errorf("unexpected order: %s, %s, %s", entries[0].Title, entries[1].Title, entries[2].Title)
	}
}

func TestStripHTML(t *testing.T) {
	got := stripHTML("<p>Hello <b>world</b></p>\n  extra")
	if got != "Hello world extra" {
		t.Errorf("stripHTML = %q", got)
	}
}
