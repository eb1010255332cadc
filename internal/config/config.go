// Package config handles configuration loading for finnews.
// It supports YAML config files, a .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/seenimoa/finnews/pkg/models"
)

// Config represents the complete application configuration.
type Config struct {
	LLM      LLMConfig      `json:"llm"      mapstructure:"llm"      yaml:"llm"`
	News     NewsConfig     `json:"news"     mapstructure:"news"     yaml:"news"`
	Analysis AnalysisConfig `json:"analysis" mapstructure:"analysis" yaml:"analysis"`
	API      APIConfig      `json:"api"      mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `json:"logging"  mapstructure:"logging"  yaml:"logging"`
}

// LLMConfig holds model provider configuration. With no key set the
// sentiment analyzer runs its rule-based fallback only.
type LLMConfig struct {
	Primary       string  `json:"primary"         mapstructure:"primary"         yaml:"primary"` // "openai" or "gemini"
	OpenAIKey     string  `json:"openai_key"      mapstructure:"openai_key"      yaml:"openai_key"`
	OpenAIBaseURL string  `json:"openai_base_url" mapstructure:"openai_base_url" yaml:"openai_base_url"`
	GeminiKey     string  `json:"gemini_key"      mapstructure:"gemini_key"      yaml:"gemini_key"`
	Model         string  `json:"model"           mapstructure:"model"           yaml:"model"`
	Temperature   float64 `json:"temperature"     mapstructure:"temperature"     yaml:"temperature"`
	MaxTokens     int     `json:"max_tokens"      mapstructure:"max_tokens"      yaml:"max_tokens"`
	TimeoutSec    int     `json:"timeout_sec"     mapstructure:"timeout_sec"     yaml:"timeout_sec"`
	MaxRetries    int     `json:"max_retries"     mapstructure:"max_retries"     yaml:"max_retries"`
}

// HasCredential reports whether any model provider key is configured.
func (c LLMConfig) HasCredential() bool {
	return c.OpenAIKey != "" || c.GeminiKey != ""
}

// NewsConfig holds the news fetcher settings.
type NewsConfig struct {
	APIKey      string   `json:"api_key"      mapstructure:"api_key"      yaml:"api_key"`
	BaseURL     string   `json:"base_url"     mapstructure:"base_url"     yaml:"base_url"`
	Category    string   `json:"category"     mapstructure:"category"     yaml:"category"`
	Language    string   `json:"language"     mapstructure:"language"     yaml:"language"`
	PageSize    int      `json:"page_size"    mapstructure:"page_size"    yaml:"page_size"`
	MaxArticles int      `json:"max_articles" mapstructure:"max_articles" yaml:"max_articles"`
	CacheTTL    int      `json:"cache_ttl"    mapstructure:"cache_ttl"    yaml:"cache_ttl"` // seconds
	TimeoutSec  int      `json:"timeout_sec"  mapstructure:"timeout_sec"  yaml:"timeout_sec"`
	MaxRetries  int      `json:"max_retries"  mapstructure:"max_retries"  yaml:"max_retries"`
	Feeds       []string `json:"feeds"        mapstructure:"feeds"        yaml:"feeds"` // RSS feeds used without an API key
}

// AnalysisConfig holds analysis pipeline settings.
type AnalysisConfig struct {
	Concurrency int              `json:"concurrency" mapstructure:"concurrency" yaml:"concurrency"`
	Thresholds  ThresholdsConfig `json:"thresholds"  mapstructure:"thresholds"  yaml:"thresholds"`
}

// ThresholdsConfig is the lower bound of each sentiment label band.
type ThresholdsConfig struct {
	VeryPositive float64 `json:"very_positive" mapstructure:"very_positive" yaml:"very_positive"`
	Positive     float64 `json:"positive"      mapstructure:"positive"      yaml:"positive"`
	Neutral      float64 `json:"neutral"       mapstructure:"neutral"       yaml:"neutral"`
	Negative     float64 `json:"negative"      mapstructure:"negative"      yaml:"negative"`
}

// Table converts the thresholds to the model type used for labelling.
func (t ThresholdsConfig) Table() models.SentimentThresholds {
	return models.SentimentThresholds{
		VeryPositive: t.VeryPositive,
		Positive:     t.Positive,
		Neutral:      t.Neutral,
		Negative:     t.Negative,
	}
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `json:"host"         mapstructure:"host"         yaml:"host"`
	Port        int      `json:"port"         mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `json:"cors_origins" mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"  mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `json:"format" mapstructure:"format" yaml:"format"` // "text" or "json"
}

// DefaultFeeds are business RSS feeds used when no news API key is configured.
var DefaultFeeds = []string{
	"https://feeds.bbci.co.uk/news/business/rss.xml",
	"https://www.cnbc.com/id/10001147/device/rss/rss.html",
	"https://economictimes.indiatimes.com/markets/rssfeeds/1977021501.cms",
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml
//  2. ~/.finnews/config.yaml
//  3. /etc/finnews/config.yaml
//
// A .env file in the working directory is loaded first when present.
// Environment variables override config file values.
// Format: FINNEWS_<SECTION>_<KEY>, e.g., FINNEWS_LLM_OPENAI_KEY
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".finnews"))
	v.AddConfigPath("/etc/finnews")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FINNEWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// loadDotEnv loads KEY=VALUE pairs from path without overriding variables
// already set in the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// LLM defaults
	v.SetDefault("llm.primary", "openai")
	v.SetDefault("llm.model", "gpt-3.5-turbo")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout_sec", 30)
	v.SetDefault("llm.max_retries", 2)

	// News defaults
	v.SetDefault("news.base_url", "https://api.currentsapi.services/v1")
	v.SetDefault("news.category", "business")
	v.SetDefault("news.language", "en")
	v.SetDefault("news.page_size", 20)
	v.SetDefault("news.max_articles", 5)
	v.SetDefault("news.cache_ttl", 600) // 10 minutes
	v.SetDefault("news.timeout_sec", 30)
	v.SetDefault("news.max_retries", 2)
	v.SetDefault("news.feeds", DefaultFeeds)

	// Analysis defaults
	v.SetDefault("analysis.concurrency", 1)
	v.SetDefault("analysis.thresholds.very_positive", 0.6)
	v.SetDefault("analysis.thresholds.positive", 0.2)
	v.SetDefault("analysis.thresholds.neutral", -0.2)
	v.SetDefault("analysis.thresholds.negative", -0.6)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
// The unprefixed OPENAI_API_KEY, GEMINI_API_KEY and NEWS_API_KEY are honoured
// when the prefixed variable and the config file leave a key empty.
func overrideFromEnv(cfg *Config) {
	if key := firstEnv("FINNEWS_LLM_OPENAI_KEY"); key != "" {
		cfg.LLM.OpenAIKey = key
	} else if cfg.LLM.OpenAIKey == "" {
		cfg.LLM.OpenAIKey = firstEnv("OPENAI_API_KEY")
	}
	if key := firstEnv("FINNEWS_LLM_GEMINI_KEY"); key != "" {
		cfg.LLM.GeminiKey = key
	} else if cfg.LLM.GeminiKey == "" {
		cfg.LLM.GeminiKey = firstEnv("GEMINI_API_KEY")
	}
	if key := firstEnv("FINNEWS_NEWS_API_KEY"); key != "" {
		cfg.News.APIKey = key
	} else if cfg.News.APIKey == "" {
		cfg.News.APIKey = firstEnv("NEWS_API_KEY")
	}
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(os.Getenv(n)); v != "" {
			return v
		}
	}
	return ""
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
