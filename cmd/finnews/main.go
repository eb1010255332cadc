// finnews - financial news sentiment, entity and metrics analysis.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/finnews/api"
	"github.com/seenimoa/finnews/internal/config"
	"github.com/seenimoa/finnews/internal/report"
	"github.com/seenimoa/finnews/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "finnews",
	Short: "finnews - financial news sentiment and entity analysis",
	Long: `finnews fetches business news and turns each article into a structured
analysis record: a sentiment score with market impact, the companies, sectors
and instruments it mentions, and the currency amounts and percentages it quotes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "finnews %s\n", version)
		fmt.Fprintf(out, "  commit:  %s\n", commit)
		fmt.Fprintf(out, "  built:   %s\n", date)
	},
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Fetch the latest financial news and analyze each article",
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		rawFormat, _ := cmd.Flags().GetString("format")
		format, err := report.ParseFormat(rawFormat)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if format == report.FormatText {
			fmt.Fprintln(out, "Fetching latest financial news...")
		}
		articles, err := a.fetcher.GetFinancialNews(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("fetch news from %s: %w", a.fetcher.Name(), err)
		}

		thresholds := cfg.Analysis.Thresholds.Table()
		items := a.service.AnalyzeBatch(cmd.Context(), articles)
		entries := make([]report.Entry, 0, len(items))
		for _, it := range items {
			entries = append(entries, report.NewEntry(it.Article, it.Result, it.Err, thresholds))
		}
		return report.Render(out, format, entries, thresholds)
	},
}

func init() {
	newsCmd.Flags().StringP("query", "q", "", "only fetch articles matching this keyword")
	newsCmd.Flags().StringP("format", "f", "text", "output format (text, json, yaml, html)")
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze an ad-hoc title and content",
	Long:  "Analyze text given on the command line, in a file, or on stdin (--file -).",
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		content, _ := cmd.Flags().GetString("content")
		file, _ := cmd.Flags().GetString("file")
		rawFormat, _ := cmd.Flags().GetString("format")

		format, err := report.ParseFormat(rawFormat)
		if err != nil {
			return err
		}
		content, err = readContent(content, file)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}

		thresholds := cfg.Analysis.Thresholds.Table()
		result, err := a.service.AnalyzeArticle(cmd.Context(), title, content)
		entry := report.NewEntry(adHocArticle(title, content, time.Now()), result, err, thresholds)
		return report.Render(cmd.OutOrStdout(), format, []report.Entry{entry}, thresholds)
	},
}

func init() {
	analyzeCmd.Flags().String("title", "", "article title")
	analyzeCmd.Flags().String("content", "", "article content")
	analyzeCmd.Flags().String("file", "", "read content from file (- for stdin)")
	analyzeCmd.Flags().StringP("format", "f", "text", "output format (text, json, yaml, html)")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}

		srv := api.NewServer(cfg, a.service, a.fetcher,
			api.WithLogger(a.logger),
			api.WithVersion(version),
			api.WithModelName(a.modelName),
		)
		addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
		fmt.Fprintf(cmd.OutOrStdout(), "🌐 Starting finnews API server on %s\n", addr)

		if err := srv.ListenAndServe(cmd.Context(), addr); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  finnews System Status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintf(out, "  Time:          %s\n", utils.FormatDateTime(time.Now()))
		fmt.Fprintln(out)

		a, err := newApp(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}

		fmt.Fprintln(out, "  Configuration:")
		fmt.Fprintf(out, "    Sentiment:     %s (model: %s)\n", a.modelName, cfg.LLM.Model)
		fmt.Fprintf(out, "    News Source:   %s (max %d articles)\n", a.fetcher.Name(), cfg.News.MaxArticles)
		fmt.Fprintf(out, "    Concurrency:   %d\n", cfg.Analysis.Concurrency)
		fmt.Fprintf(out, "    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Fprintln(out)

		pingTimeout := time.Duration(cfg.LLM.TimeoutSec) * time.Second
		if pingTimeout <= 0 {
			pingTimeout = 10 * time.Second
		}
		fmt.Fprintln(out, "  Model Provider:")
		fmt.Fprintf(out, "    %s\n", a.modelStatus(cmd.Context(), pingTimeout))
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Fprintf(out, "    %-25s %s\n", k.Name+":", status)
		}

		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}
