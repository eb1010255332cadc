package datasource

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/finnews/internal/config"
	"github.com/seenimoa/finnews/pkg/models"
	"github.com/seenimoa/finnews/pkg/utils"
)

// RSS fetches business news from a fixed list of RSS/Atom feeds. It needs no
// API key and is used when none is configured.
type RSS struct {
	feeds       []string
	maxArticles int

	parser  *gofeed.Parser
	cache   *Cache[[]models.Article]
	limiter *RateLimiter
	logger  *slog.Logger
}

// RSSOption configures an RSS fetcher.
type RSSOption func(*RSS)

// WithRSSLogger sets the fetcher's logger.
func WithRSSLogger(l *slog.Logger) RSSOption {
	return func(r *RSS) { r.logger = l }
}

// NewRSS creates an RSS fetcher over cfg.Feeds, or config.DefaultFeeds when
// none are configured.
func NewRSS(cfg config.NewsConfig, opts ...RSSOption) *RSS {
	feeds := cfg.Feeds
	if len(feeds) == 0 {
		feeds = config.DefaultFeeds
	}
	parser := gofeed.NewParser()
	parser.Client = newHTTPClient(time.Duration(cfg.TimeoutSec) * time.Second)
	parser.UserAgent = DefaultUserAgent

	r := &RSS{
		feeds:       feeds,
		maxArticles: positiveOr(cfg.MaxArticles, 5),
		parser:      parser,
		cache:       NewCache[[]models.Article](time.Duration(cfg.CacheTTL) * time.Second),
		limiter:     NewRateLimiter(2, time.Second),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the data source name.
func (r *RSS) Name() string { return "RSS feeds" }

// GetFinancialNews reads every feed, keeps finance-related items matching
// query (case-insensitive, title or description) and returns the newest
// first. A failing feed is logged and skipped; an error is returned only
// when every feed fails.
func (r *RSS) GetFinancialNews(ctx context.Context, query string) ([]models.Article, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	cacheKey := "rss:" + q
	if cached, ok := r.cache.Get(cacheKey); ok {
		return cached, nil
	}

	var all []models.Article
	var lastErr error
	failed := 0
	for _, feedURL := range r.feeds {
		articles, err := r.fetchFeed(ctx, feedURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failed++
			lastErr = err
			r.logger.Warn("feed failed", "feed", feedURL, "error", err)
			continue
		}
		all = append(all, articles...)
	}
	if failed == len(r.feeds) && lastErr != nil {
		return nil, fmt.Errorf("all %d feeds failed, last error: %w", failed, lastErr)
	}

	filtered := make([]models.Article, 0, r.maxArticles)
	for _, a := range all {
		if a.Content == "" || !IsFinanceRelated(a.Title, a.Content) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(a.Title+" "+a.Content), q) {
			continue
		}
		filtered = append(filtered, a)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].PublishedAt.After(filtered[j].PublishedAt)
	})
	if len(filtered) > r.maxArticles {
		filtered = filtered[:r.maxArticles]
	}

	r.logger.Info("fetched finance-related articles", "source", r.Name(), "count", len(filtered))
	r.cache.Set(cacheKey, filtered)
	return filtered, nil
}

// fetchFeed parses one feed and converts its items. Items missing a
// required field or carrying an unparseable date are skipped.
func (r *RSS) fetchFeed(ctx context.Context, feedURL string) ([]models.Article, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	source := strings.TrimSpace(feed.Title)
	articles := make([]models.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		a, err := toRSSArticle(item, source)
		if err != nil {
			r.logger.Debug("skipping feed item", "feed", feedURL, "title", item.Title, "error", err)
			continue
		}
		articles = append(articles, a)
	}
	return articles, nil
}

func toRSSArticle(item *gofeed.Item, feedTitle string) (models.Article, error) {
	var published time.Time
	switch {
	case item.PublishedParsed != nil:
		published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		published = *item.UpdatedParsed
	case item.Published != "":
		t, err := utils.ParseAPIDate(item.Published)
		if err != nil {
			return models.Article{}, err
		}
		published = t
	}

	source := feedTitle
	if item.Author != nil && item.Author.Name != "" {
		source = item.Author.Name
	}
	return models.NewArticle(
		strings.TrimSpace(item.Title),
		cleanHTML(item.Description),
		source,
		item.Link,
		published,
	)
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
