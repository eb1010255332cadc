package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/seenimoa/finnews/internal/config"
	"github.com/seenimoa/finnews/pkg/models"
	"github.com/seenimoa/finnews/pkg/utils"
)

// DefaultCurrentsBaseURL is the Currents API v1 endpoint.
const DefaultCurrentsBaseURL = "https://api.currentsapi.services/v1"

// Currents fetches business news from the Currents API.
type Currents struct {
	apiKey      string
	baseURL     string
	category    string
	language    string
	pageSize    int
	maxArticles int
	maxRetries  int
	retryDelay  time.Duration

	client  *http.Client
	cache   *Cache[[]models.Article]
	limiter *RateLimiter
	logger  *slog.Logger
}

// CurrentsOption configures a Currents fetcher.
type CurrentsOption func(*Currents)

// WithCurrentsRetryDelay sets the base delay between retries.
func WithCurrentsRetryDelay(d time.Duration) CurrentsOption {
	return func(c *Currents) { c.retryDelay = d }
}

// WithCurrentsLogger sets the fetcher's logger.
func WithCurrentsLogger(l *slog.Logger) CurrentsOption {
	return func(c *Currents) { c.logger = l }
}

// NewCurrents creates a Currents fetcher from news configuration.
func NewCurrents(cfg config.NewsConfig, opts ...CurrentsOption) (*Currents, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	c := &Currents{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(orDefault(cfg.BaseURL, DefaultCurrentsBaseURL), "/"),
		category:    orDefault(cfg.Category, "business"),
		language:    orDefault(cfg.Language, "en"),
		pageSize:    positiveOr(cfg.PageSize, 20),
		maxArticles: positiveOr(cfg.MaxArticles, 5),
		maxRetries:  max(cfg.MaxRetries, 0),
		retryDelay:  time.Second,
		client:      newHTTPClient(time.Duration(cfg.TimeoutSec) * time.Second),
		cache:       NewCache[[]models.Article](time.Duration(cfg.CacheTTL) * time.Second),
		limiter:     NewRateLimiter(2, time.Second),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the data source name.
func (c *Currents) Name() string { return "Currents API" }

// GetFinancialNews fetches the latest articles in the configured category
// and keeps those with a description that pass the finance filter.
// Items with a missing field or an unparseable date are logged and skipped.
func (c *Currents) GetFinancialNews(ctx context.Context, query string) ([]models.Article, error) {
	cacheKey := "currents:" + strings.ToLower(strings.TrimSpace(query))
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("category", c.category)
	params.Set("language", c.language)
	params.Set("page_size", strconv.Itoa(c.pageSize))
	if query != "" {
		params.Set("keywords", query)
	}
	endpoint := c.baseURL + "/latest-news?" + params.Encode()

	safe := url.Values{}
	for k, v := range params {
		safe[k] = v
	}
	safe.Set("apiKey", config.MaskKey(c.apiKey))
	c.logger.Debug("fetching news", "source", c.Name(), "url", c.baseURL+"/latest-news", "params", safe.Encode())

	raw, err := c.fetchWithRetry(ctx, endpoint)
	if err != nil {
		c.logger.Error("news request failed", "source", c.Name(), "error", err)
		return nil, err
	}

	articles := c.toArticles(raw.News)
	c.logger.Info("fetched finance-related articles", "source", c.Name(), "count", len(articles))

	c.cache.Set(cacheKey, articles)
	return articles, nil
}

// ── Internal Types ──

type currentsResponse struct {
	Status string         `json:"status"`
	News   []currentsItem `json:"news"`
}

type currentsItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	Published   string `json:"published"`
}

// ── Helpers ──

func (c *Currents) fetchWithRetry(ctx context.Context, endpoint string) (*currentsResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}

		resp, err := c.fetchOnce(ctx, endpoint)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !isTransient(err) || ctx.Err() != nil {
			return nil, err
		}
		c.logger.Debug("news request failed, retrying", "source", c.Name(), "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}

func (c *Currents) fetchOnce(ctx context.Context, endpoint string) (*currentsResponse, error) {
	body, err := doGet(ctx, c.client, endpoint, nil)
	if err != nil {
		var httpErr *ErrHTTP
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
		// The URL carries the key; never return it inside the error text.
		return nil, fmt.Errorf("currents: %w", redact(err, c.apiKey))
	}
	defer body.Close()

	var out currentsResponse
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		return nil, fmt.Errorf("currents: decode response: %w", err)
	}
	if out.Status != "" && out.Status != "ok" {
		return nil, fmt.Errorf("currents: API status %q", out.Status)
	}
	return &out, nil
}

func (c *Currents) toArticles(items []currentsItem) []models.Article {
	articles := make([]models.Article, 0, c.maxArticles)
	for _, item := range items {
		if len(articles) >= c.maxArticles {
			break
		}
		if item.Description == "" || !IsFinanceRelated(item.Title, item.Description) {
			continue
		}

		a, err := c.toArticle(item)
		if err != nil {
			c.logger.Warn("skipping article", "source", c.Name(), "id", item.ID, "title", item.Title, "error", err)
			continue
		}
		articles = append(articles, a)
	}
	return articles
}

func (c *Currents) toArticle(item currentsItem) (models.Article, error) {
	var published time.Time
	if item.Published != "" {
		t, err := utils.ParseAPIDate(item.Published)
		if err != nil {
			return models.Article{}, err
		}
		published = t
	}
	return models.NewArticle(item.Title, item.Description, item.Author, item.URL, published)
}

// isTransient reports network failures (client timeouts included), 429 and
// 5xx responses. Callers stop on their own context separately.
func isTransient(err error) bool {
	var httpErr *ErrHTTP
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// redact replaces every occurrence of secret in err's message.
func redact(err error, secret string) error {
	if secret == "" || !strings.Contains(err.Error(), secret) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), secret, config.MaskKey(secret)), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func positiveOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
