// Package analysis combines sentiment scoring, entity extraction and metric
// extraction into one AnalysisResult per article.
package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/finnews/internal/analysis/entity"
	"github.com/seenimoa/finnews/internal/analysis/metrics"
	"github.com/seenimoa/finnews/internal/analysis/sentiment"
	"github.com/seenimoa/finnews/pkg/models"
)

// DefaultConcurrency bounds AnalyzeBatch when no limit is configured.
const DefaultConcurrency = 4

// SentimentScorer scores a piece of text. Implementations must not fail.
type SentimentScorer interface {
	Analyze(ctx context.Context, text string) models.SentimentResult
}

// EntityExtractor finds companies, sectors and instruments in text.
type EntityExtractor interface {
	Extract(text string) entity.Entities
}

// MetricsExtractor finds monetary amounts and percentages in text.
type MetricsExtractor interface {
	Extract(text string) []models.FinancialMetric
}

// Service orchestrates the three analyzers.
type Service struct {
	sentiment   SentimentScorer
	entities    EntityExtractor
	metrics     MetricsExtractor
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithConcurrency limits how many articles AnalyzeBatch processes at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the service's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService wires the analyzers together.
func NewService(scorer SentimentScorer, entities EntityExtractor, metrics MetricsExtractor, opts ...Option) *Service {
	s := &Service{
		sentiment:   scorer,
		entities:    entities,
		metrics:     metrics,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDefaultService builds a Service around the given sentiment analyzer and
// the built-in rule-based extractors.
func NewDefaultService(analyzer *sentiment.Analyzer, opts ...Option) *Service {
	return NewService(analyzer, entity.NewExtractor(), metrics.NewExtractor(), opts...)
}

// ArticleText joins a title and body the way every analyzer sees them.
func ArticleText(title, content string) string {
	return title + ". " + content
}

// AnalyzeArticle runs all analyzers over one article. A failing sentiment
// model never surfaces here; the only error is a context that is already
// done on entry, wrapped in *models.AnalysisError. A deadline that expires
// during the model call yields the keyword fallback result.
func (s *Service) AnalyzeArticle(ctx context.Context, title, content string) (*models.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &models.AnalysisError{Title: title, Err: err}
	}

	text := ArticleText(title, content)
	start := time.Now()

	sent := s.sentiment.Analyze(ctx, text)
	ents := s.entities.Extract(text)
	mets := s.metrics.Extract(text)

	result := &models.AnalysisResult{
		ID:                   uuid.NewString(),
		SentimentScore:       sent.SentimentScore,
		Confidence:           sent.Confidence,
		MarketImpact:         sent.MarketImpact,
		KeyCompanies:         ents.Companies,
		KeySectors:           ents.Sectors,
		FinancialInstruments: ents.Instruments,
		FinancialMetrics:     mets,
		CriticalQuotes:       sent.CriticalQuotes,
		MarketImplications:   sent.MarketImplications,
		AnalyzedAt:           s.now(),
	}

	s.logger.Debug("article analyzed",
		"title", title,
		"score", result.SentimentScore,
		"impact", result.MarketImpact,
		"metrics", len(result.FinancialMetrics),
		"elapsed", time.Since(start),
	)
	return result, nil
}

// BatchItem pairs an article with its analysis outcome.
type BatchItem struct {
	Article models.Article
	Result  *models.AnalysisResult
	Err     error
}

// AnalyzeBatch analyzes articles concurrently. Items come back in input
// order; a failed article carries its error and does not stop the others.
func (s *Service) AnalyzeBatch(ctx context.Context, articles []models.Article) []BatchItem {
	items := make([]BatchItem, len(articles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, article := range articles {
		items[i].Article = article
		g.Go(func() error {
			res, err := s.AnalyzeArticle(gctx, article.Title, article.Content)
			if err != nil {
				s.logger.Warn("article analysis failed", "title", article.Title, "error", err)
			}
			items[i].Result = res
			items[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	return items
}
