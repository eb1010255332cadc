package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/seenimoa/finnews/internal/analysis"
	"github.com/seenimoa/finnews/internal/analysis/sentiment"
	"github.com/seenimoa/finnews/internal/config"
	"github.com/seenimoa/finnews/internal/datasource"
	"github.com/seenimoa/finnews/internal/llm"
	"github.com/seenimoa/finnews/internal/logger"
	"github.com/seenimoa/finnews/pkg/models"
)

// app holds the wired pipeline shared by every command.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	service   *analysis.Service
	fetcher   datasource.NewsFetcher
	router    *llm.Router // nil when no credential is configured
	modelName string
}

// newApp wires config into the model router, sentiment analyzer, analysis
// service and news fetcher. Without a model credential the analyzer runs
// keyword scoring only.
func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	if log == nil {
		log = logger.New("finnews", cfg.Logging)
	}

	var model sentiment.ChatModel
	modelName := "keyword fallback"
	router, err := llm.NewRouterFromConfig(ctx, cfg, log)
	switch {
	case errors.Is(err, llm.ErrNoProviders):
		log.Warn("no model credential configured, using keyword sentiment scoring")
		router = nil
	case err != nil:
		return nil, fmt.Errorf("init model router: %w", err)
	default:
		model = router
		modelName = strings.Join(router.ProviderNames(), ",")
	}

	analyzer := sentiment.NewAnalyzer(model,
		sentiment.WithChatOptions(&llm.ChatOptions{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}),
		sentiment.WithLogger(log),
	)

	service := analysis.NewDefaultService(analyzer,
		analysis.WithConcurrency(cfg.Analysis.Concurrency),
		analysis.WithLogger(log),
	)

	return &app{
		cfg:       cfg,
		logger:    log,
		service:   service,
		fetcher:   datasource.NewFetcherFromConfig(cfg.News, log),
		router:    router,
		modelName: modelName,
	}, nil
}

// modelStatus pings the primary model provider and lists the models the
// router can serve.
func (a *app) modelStatus(ctx context.Context, timeout time.Duration) string {
	if a.router == nil {
		return "not configured (keyword scoring only)"
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := a.router.Ping(ctx); err != nil {
		return "unreachable: " + err.Error()
	}
	return "reachable (models: " + strings.Join(a.router.Models(), ", ") + ")"
}

// readContent returns the article body from --file when set, else --content.
// A file path of "-" reads stdin.
func readContent(content, file string) (string, error) {
	if file == "" {
		return content, nil
	}
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file, err)
	}
	return string(data), nil
}

// adHocArticle wraps command-line input so it renders like a fetched article.
func adHocArticle(title, content string, at time.Time) models.Article {
	if title == "" {
		title = "(untitled)"
	}
	return models.Article{
		Title:       title,
		Content:     content,
		Source:      "command line",
		PublishedAt: at,
	}
}
