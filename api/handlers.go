// ABOUTME: Request handlers for the pipeline endpoints
// ABOUTME: Search, extraction, ranking, summarization, EPUB build and publish

package api

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"newsfetch-api/core/aggregator"
	"newsfetch-api/core/domain"
	coreerrors "newsfetch-api/core/errors"
)

type healthResponse struct {
	Status  string `json:"status"`
	Entries int    `json:"entries"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	entries, err := s.services.Catalog.List(r.Context(), time.Time{}, 0)
	if err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded"})
		return
	}
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Entries: len(entries)})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if !strings.HasSuffix(filename, ".epub") || filename != filepath.Base(filename) {
		s.writeError(w, &coreerrors.ValidationError{Field: "filename", Message: "must be a bare .epub filename"})
		return
	}
	path := filepath.Join(s.cfg.Storage.EPUBDir, filename)
	w.Header().Set("Content-Type", "application/epub+zip")
	http.ServeFile(w, r, path)
}

type searchRequest struct {
	Topic   string   `json:"topic"`
	Sources []string `json:"sources"`
	Limit   int      `json:"limit"`
}

type searchResponse struct {
	Topic    string             `json:"topic,omitempty"`
	Articles []domain.FeedEntry `json:"articles"`
	Errors   map[string]string  `json:"errors,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	var sources []domain.Source
	if len(req.Sources) > 0 {
		for _, raw := range req.Sources {
			sources = append(sources, domain.Source{ID: raw, URL: raw, TrustWeight: 0.5})
		}
	} else {
		sources = s.cfg.SourcesForTopic(req.Topic)
	}
	if len(sources) == 0 {
		s.writeError(w, &coreerrors.ValidationError{Field: "sources", Message: "no sources configured for topic"})
		return
	}

	prefs := s.cfg.Preferences()
	result, err := s.services.Aggregator.Aggregate(r.Context(), sources, prefs.MaxArticlesPerFeed)
	if err != nil {
		s.writeError(w, err)
		return
	}

	entries := result.Entries
	aggregator.SortByPublished(entries)
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	resp := searchResponse{Topic: req.Topic, Articles: entries}
	if len(result.Errors) > 0 {
		resp.Errors = make(map[string]string, len(result.Errors))
		for id, srcErr := range result.Errors {
			resp.Errors[id] = srcErr.Error()
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type fetchArticleRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleFetchArticle(w http.ResponseWriter, r *http.Request) {
	var req fetchArticleRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.URL == "" {
		s.writeError(w, &coreerrors.ValidationError{Field: "url", Message: "url is required"})
		return
	}

	article, err := s.services.Extractor.Extract(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, article)
}

type rankRequest struct {
	Articles []domain.Article `json:"articles"`
	Topic    string           `json:"topic"`
	TopN     int              `json:"top_n"`
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	collection := s.services.Ranker.Rank(r.Context(), req.Articles, req.Topic, req.TopN)
	s.writeJSON(w, http.StatusOK, collection)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var collection domain.Collection
	if !s.decodeBody(w, r, &collection) {
		return
	}
	result := s.services.Summarizer.Summarize(r.Context(), collection)
	s.writeJSON(w, http.StatusOK, result)
}

type buildEPUBRequest struct {
	Articles []domain.Article `json:"articles"`
	Title    string           `json:"title"`
	Filename string           `json:"filename"`
}

func (s *Server) handleBuildEPUB(w http.ResponseWriter, r *http.Request) {
	var req buildEPUBRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if len(req.Articles) == 0 {
		s.writeError(w, &coreerrors.ValidationError{Field: "articles", Message: "at least one article is required"})
		return
	}
	if req.Title == "" {
		s.writeError(w, &coreerrors.ValidationError{Field: "title", Message: "title is required"})
		return
	}

	collection := domain.Collection{Topic: req.Title, CreatedAt: time.Now()}
	for i, article := range req.Articles {
		collection.Items = append(collection.Items, domain.RankedItem{
			Article: article,
			Rank:    i + 1,
		})
	}

	result, err := s.services.Builder.Build(collection, req.Title, req.Filename)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type publishRequest struct {
	FilePath string `json:"file_path"`
	Title    string `json:"title"`
}

type publishResponse struct {
	Entry      domain.CatalogEntry `json:"entry"`
	CatalogURL string              `json:"catalog_url"`
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.FilePath == "" {
		s.writeError(w, &coreerrors.ValidationError{Field: "file_path", Message: "file_path is required"})
		return
	}

	title := req.Title
	if title == "" {
		base := filepath.Base(req.FilePath)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	entry, err := s.services.Catalog.Publish(r.Context(), req.FilePath, title)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, publishResponse{Entry: entry, CatalogURL: "/opds"})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.cfg.Preferences())
}

// handlePutPreferences merges the request body over the current preferences.
// Fields absent from the body keep their current values.
func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	prefs := s.cfg.Preferences()
	if !s.decodeBody(w, r, &prefs) {
		return
	}
	if err := s.cfg.UpdatePreferences(prefs); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, prefs)
}
