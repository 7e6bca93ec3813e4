// Package api exposes the HTTP interface for the content crawler service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/localmark/content-crawler/internal/content"
	"github.com/localmark/content-crawler/internal/metrics"
	"github.com/localmark/content-crawler/internal/pipeline"
	"github.com/localmark/content-crawler/internal/search"
)

// Config controls server behavior.
type Config struct {
	RequestTimeout time.Duration
	AuthEnabled    bool
	APIKey         string
	ListLimit      int
}

// Server wires HTTP handlers to the pipeline and stores.
type Server struct {
	router    chi.Router
	pipeline  *pipeline.Pipeline
	collector *search.Collector
	store     content.Store
	clock     content.Clock
	cfg       Config
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	p *pipeline.Pipeline,
	collector *search.Collector,
	store content.Store,
	clock content.Clock,
	cfg Config,
	logger *zap.Logger,
) *Server {
	if cfg.RequestTimeout == 0 {
		// Scrape plus model fallthrough can legitimately take minutes.
		cfg.RequestTimeout = 5 * time.Minute
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		pipeline:  p,
		collector: collector,
		store:     store,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(cfg.RequestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.AuthEnabled {
			r.Use(apiKeyMiddleware(cfg.APIKey))
		}
		r.Post("/crawl", s.crawl)
		r.Post("/search", s.search)
		r.Post("/collect", s.collect)
		r.Put("/stores/{store_id}", s.upsertStore)
		r.Get("/stores/{store_id}", s.getStore)
		r.Get("/content", s.listContent)
		r.Delete("/content", s.deleteContent)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	// The store is the only hard dependency; one cheap query proves it out.
	if _, err := s.store.ListContent(r.Context(), 1); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type crawlRequest struct {
	URL            string `json:"url"`
	Keyword        string `json:"keyword"`
	GroupName      string `json:"group_name"`
	CollectionMode string `json:"collection_mode"`
	StoreID        string `json:"store_id"`
}

func (s *Server) crawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.URL == "" {
		writeFailure(w, http.StatusBadRequest, "url is required")
		return
	}
	mode := content.CollectionMode(req.CollectionMode)
	if req.CollectionMode != "" && !mode.Valid() {
		writeFailure(w, http.StatusBadRequest, "unknown collection_mode")
		return
	}

	res, err := s.pipeline.Run(r.Context(), pipeline.Request{
		URL:            req.URL,
		Keyword:        req.Keyword,
		GroupName:      req.GroupName,
		CollectionMode: mode,
		StoreID:        req.StoreID,
	})
	if err != nil {
		s.logger.Error("crawl failed",
			zap.String("url", req.URL),
			zap.String("stage", string(content.StageOf(err))),
			zap.Error(err),
		)
		writeFailure(w, http.StatusInternalServerError, err.Error())
		return
	}

	body := map[string]any{
		"success": true,
		"status":  res.Status,
		"count":   res.Count,
		"data":    recordsOrEmpty(res.Items),
	}
	if res.Status == content.StatusDuplicate {
		body["message"] = "URL Duplicate"
	}
	writeJSON(w, http.StatusOK, body)
}

type searchRequest struct {
	Keyword        string `json:"keyword"`
	CollectionMode string `json:"collection_mode"`
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Keyword == "" {
		writeFailure(w, http.StatusBadRequest, "keyword is required")
		return
	}

	urls, err := s.collector.Collect(r.Context(), req.Keyword, content.CollectionMode(req.CollectionMode))
	if err != nil {
		s.logger.Error("search failed", zap.String("keyword", req.Keyword), zap.Error(err))
		writeFailure(w, http.StatusInternalServerError, err.Error())
		return
	}
	if urls == nil {
		urls = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "urls": urls})
}

type collectRequest struct {
	Keyword        string `json:"keyword"`
	CollectionMode string `json:"collection_mode"`
	GroupName      string `json:"group_name"`
	StoreID        string `json:"store_id"`
	Limit          int    `json:"limit"`
}

func (s *Server) collect(w http.ResponseWriter, r *http.Request) {
	var req collectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Keyword == "" {
		writeFailure(w, http.StatusBadRequest, "keyword is required")
		return
	}
	mode := content.CollectionMode(req.CollectionMode)
	if req.CollectionMode != "" && !mode.Valid() {
		writeFailure(w, http.StatusBadRequest, "unknown collection_mode")
		return
	}

	urls, err := s.collector.Collect(r.Context(), req.Keyword, mode)
	if err != nil {
		s.logger.Error("collect search failed", zap.String("keyword", req.Keyword), zap.Error(err))
		writeFailure(w, http.StatusInternalServerError, err.Error())
		return
	}
	if req.Limit > 0 && len(urls) > req.Limit {
		urls = urls[:req.Limit]
	}

	result := s.pipeline.RunBatch(r.Context(), urls, pipeline.Request{
		Keyword:        req.Keyword,
		GroupName:      req.GroupName,
		CollectionMode: mode,
		StoreID:        req.StoreID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"result":  result,
	})
}

type storeRequest struct {
	StoreName        string          `json:"store_name"`
	RawInfo          string          `json:"raw_info"`
	ImageURL         string          `json:"image_url"`
	AIStructuredData json.RawMessage `json:"ai_structured_data"`
}

func (s *Server) upsertStore(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "store_id")
	var req storeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.StoreName == "" {
		req.StoreName = storeID
	}

	rec := content.StoreRecord{
		StoreID:          storeID,
		StoreName:        req.StoreName,
		RawInfo:          req.RawInfo,
		ImageURL:         req.ImageURL,
		AIStructuredData: req.AIStructuredData,
		UpdatedAt:        s.clock.Now(),
	}
	if err := s.store.UpsertStore(r.Context(), rec); err != nil {
		s.logger.Error("store upsert failed", zap.String("store_id", storeID), zap.Error(err))
		writeFailure(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": rec})
}

func (s *Server) getStore(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "store_id")
	rec, err := s.store.GetStore(r.Context(), storeID)
	if errors.Is(err, content.ErrNotFound) {
		writeFailure(w, http.StatusNotFound, "store not found")
		return
	}
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": rec})
}

func (s *Server) listContent(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.ListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeFailure(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	records, err := s.store.ListContent(r.Context(), limit)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(records),
		"data":    recordsOrEmpty(records),
	})
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) deleteContent(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.IDs) == 0 {
		writeFailure(w, http.StatusBadRequest, "ids are required")
		return
	}
	if err := s.store.DeleteContent(r.Context(), req.IDs); err != nil {
		writeFailure(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(req.IDs)})
}

func recordsOrEmpty(records []content.ContentRecord) []content.ContentRecord {
	if records == nil {
		return []content.ContentRecord{}
	}
	return records
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
