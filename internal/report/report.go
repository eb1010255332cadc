// Package report renders analysis results for terminals, files and browsers.
// Text output follows the classic analysis report layout; JSON and YAML carry
// the same data for machines; HTML wraps it in a standalone page.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/seenimoa/finnews/pkg/models"
	"github.com/seenimoa/finnews/pkg/utils"
)

// Format specifies the output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHTML Format = "html"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML, FormatHTML}
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown report format %q (want text, json, yaml or html)", s)
}

// Entry is one article with either its analysis or the error that stopped it.
type Entry struct {
	Article  models.Article         `json:"article"            yaml:"article"`
	Analysis *models.AnalysisResult `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Label    models.SentimentLabel  `json:"label,omitempty"    yaml:"label,omitempty"`
	Error    string                 `json:"error,omitempty"    yaml:"error,omitempty"`
}

// NewEntry builds an Entry, labelling the score with thresholds on success.
func NewEntry(article models.Article, result *models.AnalysisResult, err error, thresholds models.SentimentThresholds) Entry {
	e := Entry{Article: article, Analysis: result}
	if err != nil {
		e.Error = err.Error()
		e.Analysis = nil
		return e
	}
	if result != nil {
		e.Label = thresholds.Label(result.SentimentScore)
	}
	return e
}

// Failed reports whether the article could not be analyzed.
func (e Entry) Failed() bool { return e.Error != "" || e.Analysis == nil }

// Render writes entries to w in the given format.
func Render(w io.Writer, format Format, entries []Entry, thresholds models.SentimentThresholds) error {
	switch format {
	case FormatText, "":
		return renderText(w, entries, thresholds)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	case FormatHTML:
		page, err := GenerateHTML(entries)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, page)
		return err
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func renderText(w io.Writer, entries []Entry, thresholds models.SentimentThresholds) error {
	for _, e := range entries {
		var out string
		if e.Failed() {
			out = FailureText(e.Article.Title, e.Error)
		} else {
			text, err := GenerateText(e.Article, e.Analysis, thresholds)
			if err != nil {
				return err
			}
			out = text
		}
		if _, err := fmt.Fprintln(w, out); err != nil {
			return err
		}
	}
	return nil
}

// FailureText is printed in place of a report for an article that failed.
func FailureText(title, msg string) string {
	return "Error analyzing article: " + title + "\nError: " + msg
}

// ════════════════════════════════════════════════════════════════════
// Plain-text renderer
// ════════════════════════════════════════════════════════════════════

// GenerateText renders one article's analysis as a plain-text report.
func GenerateText(article models.Article, result *models.AnalysisResult, thresholds models.SentimentThresholds) (string, error) {
	if result == nil {
		return "", fmt.Errorf("analysis is nil")
	}

	line := strings.Repeat("=", 80)
	rule := strings.Repeat("=", 20)

	lines := []string{
		"\n" + line,
		"FINANCIAL NEWS ANALYSIS REPORT",
		line,
		"\nArticle: " + article.Title,
		"Source: " + article.Source,
		"Published: " + utils.FormatDateTime(article.PublishedAt),
		"URL: " + article.URL + "\n",

		"\nSENTIMENT ANALYSIS",
		rule,
		fmt.Sprintf("Overall Sentiment: %+.2f", result.SentimentScore),
		fmt.Sprintf("Confidence Level: %.1f%%", result.Confidence),
		"Market Impact: " + strings.ToUpper(string(result.MarketImpact)),
		"Sentiment Label: " + string(thresholds.Label(result.SentimentScore)),

		"\nKEY ENTITIES",
		rule,
		"Companies: " + joinOrNone(result.KeyCompanies),
		"Sectors: " + joinOrNone(result.KeySectors),
		"Financial Instruments: " + joinOrNone(result.FinancialInstruments),

		"\nFINANCIAL METRICS",
		rule,
	}

	for _, m := range result.FinancialMetrics {
		lines = append(lines,
			fmt.Sprintf("• %s: %s", metricTitle(m.Name), m.Value),
			`  Context: "`+strings.TrimSpace(m.Context)+`"`,
		)
	}

	lines = append(lines, "\nCRITICAL QUOTES", rule)
	for _, q := range result.CriticalQuotes {
		lines = append(lines, `• "`+q+`"`)
	}

	lines = append(lines, "\nMARKET IMPLICATIONS", rule)
	for _, imp := range result.MarketImplications {
		lines = append(lines, "• "+imp)
	}

	return strings.Join(lines, "\n"), nil
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None detected"
	}
	return strings.Join(items, ", ")
}

// metricTitle capitalises a metric kind: "amount" → "Amount".
func metricTitle(k models.MetricKind) string {
	s := string(k)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
