package datasource

import (
	"log/slog"

	"github.com/seenimoa/finnews/internal/config"
)

// NewFetcherFromConfig returns the Currents fetcher when a news API key is
// configured and the RSS fetcher otherwise.
func NewFetcherFromConfig(cfg config.NewsConfig, logger *slog.Logger) NewsFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey != "" {
		c, err := NewCurrents(cfg, WithCurrentsLogger(logger))
		if err == nil {
			return c
		}
	}
	logger.Info("no news API key configured, using RSS feeds", "feeds", len(cfg.Feeds))
	return NewRSS(cfg, WithRSSLogger(logger))
}
