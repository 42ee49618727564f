// ABOUTME: HTTP server wiring routes, middleware, and service dependencies
// ABOUTME: Standard library mux with CORS, request logging, and rate limiting

package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/cors"

	"newsfetch-api/api/middleware"
	"newsfetch-api/core/aggregator"
	"newsfetch-api/core/catalog"
	coreerrors "newsfetch-api/core/errors"
	"newsfetch-api/core/extract"
	"newsfetch-api/core/interfaces"
	"newsfetch-api/core/rank"
	"newsfetch-api/core/summary"
	"newsfetch-api/epub"
	"newsfetch-api/pkg/config"
)

// Services bundles the pipeline services the handlers call into.
type Services struct {
	Aggregator *aggregator.Service
	Extractor  *extract.Service
	Ranker     *rank.Service
	Summarizer *summary.Service
	Catalog    *catalog.Service
	Builder    *epub.Builder
}

// Server exposes the pipeline over HTTP.
type Server struct {
	cfg      *config.Config
	logger   interfaces.Logger
	services Services
	limiter  *middleware.RateLimiter
}

// NewServer creates an API server.
func NewServer(cfg *config.Config, logger interfaces.Logger, services Services) *Server {
	var limiter *middleware.RateLimiter
	if cfg.Server.RequestsPerMinute > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.RequestsPerMinute)
	}
	return &Server{
		cfg:      cfg,
		logger:   logger,
		services: services,
		limiter:  limiter,
	}
}

// Handler builds the full middleware and routing chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /opds", s.handleOPDS)
	mux.HandleFunc("GET /opds/recent", s.handleOPDSRecent)
	mux.HandleFunc("GET /epubs/{filename}", s.handleDownload)

	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("POST /articles/fetch", s.handleFetchArticle)
	mux.HandleFunc("POST /rank", s.handleRank)
	mux.HandleFunc("POST /summarize", s.handleSummarize)
	mux.HandleFunc("POST /epub", s.handleBuildEPUB)
	mux.HandleFunc("POST /publish", s.handlePublish)

	mux.HandleFunc("GET /preferences", s.handleGetPreferences)
	mux.HandleFunc("PUT /preferences", s.handlePutPreferences)

	var handler http.Handler = mux
	if s.limiter != nil {
		handler = middleware.RateLimit(s.limiter)(handler)
	}
	if s.logger != nil {
		handler = middleware.RequestLogging(s.logger)(handler)
	}

	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler(handler)
}

// Close stops background middleware goroutines.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && s.logger != nil {
		s.logger.Error("failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps pipeline error types onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case coreerrors.IsValidation(err):
		status = http.StatusBadRequest
	case coreerrors.IsFetch(err):
		status = http.StatusBadGateway
	case coreerrors.IsExtraction(err):
		status = http.StatusUnprocessableEntity
	case coreerrors.IsLLM(err):
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 10<<20))
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, &coreerrors.ValidationError{Field: "body", Message: err.Error()})
		return false
	}
	return true
}
