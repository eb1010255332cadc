// Package api provides the HTTP REST API server for finnews.
//
// It exposes endpoints to analyze ad-hoc text, fetch and analyze the latest
// financial news, render reports, inspect configuration, and stream analysis
// events over WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/finnews/internal/analysis"
	"github.com/seenimoa/finnews/internal/config"
	"github.com/seenimoa/finnews/internal/datasource"
	"github.com/seenimoa/finnews/internal/report"
	"github.com/seenimoa/finnews/pkg/models"
	"github.com/seenimoa/finnews/pkg/utils"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 1 << 20

// ArticleAnalyzer is the analysis pipeline the server drives.
type ArticleAnalyzer interface {
	AnalyzeArticle(ctx context.Context, title, content string) (*models.AnalysisResult, error)
	AnalyzeBatch(ctx context.Context, articles []models.Article) []analysis.BatchItem
}

// Server is the HTTP API server.
type Server struct {
	router     chi.Router
	cfg        *config.Config
	analyzer   ArticleAnalyzer
	fetcher    datasource.NewsFetcher
	thresholds models.SentimentThresholds
	hub        *WSHub
	logger     *slog.Logger
	version    string
	modelName  string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithModelName sets the sentiment model name reported by /health.
func WithModelName(name string) Option {
	return func(s *Server) { s.modelName = name }
}

// NewServer creates a configured API server with all routes and middleware.
// fetcher may be nil, in which case the news endpoints answer 503.
func NewServer(cfg *config.Config, analyzer ArticleAnalyzer, fetcher datasource.NewsFetcher, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		analyzer:   analyzer,
		fetcher:    fetcher,
		thresholds: cfg.Analysis.Thresholds.Table(),
		logger:     slog.Default(),
		version:    "dev",
		modelName:  "keyword fallback",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewWSHub(s.logger)
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.hub
}

// ListenAndServe starts the HTTP server and shuts it down gracefully when
// ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket stays outside the timeout middleware.
		r.Get("/stream", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(120 * time.Second))

			r.Get("/health", s.handleHealth)
			r.Post("/analyze", s.handleAnalyze)
			r.Get("/news", s.handleNews)
			r.Get("/report", s.handleReport)
			r.Get("/config", s.handleGetConfig)
			r.Get("/config/keys", s.handleGetConfigKeys)
		})
	})

	return r
}

// ============================================================
// Request/Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AnalyzeRequest is the body for POST /api/v1/analyze.
type AnalyzeRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// AnalyzeResponse is the data returned by POST /api/v1/analyze.
type AnalyzeResponse struct {
	Analysis *models.AnalysisResult `json:"analysis"`
	Label    models.SentimentLabel  `json:"label"`
}

// NewsResponse is the data returned by GET /api/v1/news.
type NewsResponse struct {
	Source   string         `json:"source"`
	Query    string         `json:"query,omitempty"`
	Count    int            `json:"count"`
	Failed   int            `json:"failed"`
	Articles []report.Entry `json:"articles"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	source := "none"
	if s.fetcher != nil {
		source = s.fetcher.Name()
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":      "ok",
			"version":     s.version,
			"model":       s.modelName,
			"news_source": source,
			"ws_clients":  s.hub.ClientCount(),
			"time":        utils.FormatDateTime(time.Now()),
		},
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "title or content is required")
		return
	}

	result, err := s.analyzer.AnalyzeArticle(r.Context(), req.Title, req.Content)
	if err != nil {
		s.logger.Error("analysis failed", "title", req.Title, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	label := s.thresholds.Label(result.SentimentScore)
	s.hub.Broadcast(WSMessage{
		Type: "analysis_complete",
		Data: map[string]any{
			"title":  req.Title,
			"id":     result.ID,
			"score":  result.SentimentScore,
			"impact": result.MarketImpact,
			"label":  label,
		},
	})

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    AnalyzeResponse{Analysis: result, Label: label},
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	entries, ok := s.fetchAndAnalyze(w, r, query)
	if !ok {
		return
	}

	failed := 0
	for _, e := range entries {
		if e.Failed() {
			failed++
		}
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: NewsResponse{
			Source:   s.fetcher.Name(),
			Query:    query,
			Count:    len(entries),
			Failed:   failed,
			Articles: entries,
		},
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	format := report.FormatHTML
	if raw := r.URL.Query().Get("format"); raw != "" {
		f, err := report.ParseFormat(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = f
	}

	entries, ok := s.fetchAndAnalyze(w, r, strings.TrimSpace(r.URL.Query().Get("q")))
	if !ok {
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	if err := report.Render(w, format, entries, s.thresholds); err != nil {
		s.logger.Error("render report failed", "format", format, "error", err)
	}
}

// fetchAndAnalyze fetches news and analyzes every article. On failure it
// writes the error response and returns false.
func (s *Server) fetchAndAnalyze(w http.ResponseWriter, r *http.Request, query string) ([]report.Entry, bool) {
	if s.fetcher == nil {
		writeError(w, http.StatusServiceUnavailable, "no news source configured")
		return nil, false
	}

	articles, err := s.fetcher.GetFinancialNews(r.Context(), query)
	if err != nil {
		s.logger.Error("fetch news failed", "source", s.fetcher.Name(), "error", err)
		writeError(w, http.StatusBadGateway, "fetch news: "+err.Error())
		return nil, false
	}

	items := s.analyzer.AnalyzeBatch(r.Context(), articles)
	entries := make([]report.Entry, 0, len(items))
	for _, it := range items {
		entries = append(entries, report.NewEntry(it.Article, it.Result, it.Err, s.thresholds))
	}
	return entries, true
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

func contentType(f report.Format) string {
	switch f {
	case report.FormatJSON:
		return "application/json"
	case report.FormatYAML:
		return "application/yaml"
	case report.FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
