package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/seenimoa/finnews/pkg/models"
	"github.com/seenimoa/finnews/pkg/utils"
)

var pageTmpl = template.Must(template.New("page").Parse(PageTemplate))

// pageData is the template model passed to PageTemplate.
type pageData struct {
	Title       string
	GeneratedAt string
	Total       int
	Failed      int
	Articles    []articleView
}

type articleView struct {
	Title     string
	Source    string
	URL       string
	Published string
	Failed    bool
	Error     string

	Score      string
	ScoreClass string // CSS class: positive, negative or empty
	Confidence string
	Impact     string
	Label      string

	Companies   string
	Sectors     string
	Instruments string

	Metrics      []metricView
	Quotes       []string
	Implications []string
}

type metricView struct {
	Kind       string
	Value      string
	Normalized string
	Context    string
}

// GenerateHTML renders entries as a standalone HTML page.
func GenerateHTML(entries []Entry) (string, error) {
	data := buildPageData(entries, time.Now())

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

func buildPageData(entries []Entry, now time.Time) pageData {
	d := pageData{
		Title:       "Financial News Analysis Report",
		GeneratedAt: utils.FormatDateTime(now),
		Total:       len(entries),
		Articles:    make([]articleView, 0, len(entries)),
	}
	for _, e := range entries {
		v := articleView{
			Title:  e.Article.Title,
			Source: e.Article.Source,
			URL:    e.Article.URL,
		}
		if !e.Article.PublishedAt.IsZero() {
			v.Published = utils.FormatDateTime(e.Article.PublishedAt)
		}
		if e.Failed() {
			d.Failed++
			v.Failed = true
			v.Error = e.Error
			d.Articles = append(d.Articles, v)
			continue
		}

		r := e.Analysis
		v.Score = fmt.Sprintf("%+.2f", r.SentimentScore)
		v.ScoreClass = scoreClass(r.MarketImpact)
		v.Confidence = fmt.Sprintf("%.1f%%", r.Confidence)
		v.Impact = strings.ToUpper(string(r.MarketImpact))
		v.Label = string(e.Label)
		v.Companies = joinOrNone(r.KeyCompanies)
		v.Sectors = joinOrNone(r.KeySectors)
		v.Instruments = joinOrNone(r.FinancialInstruments)
		v.Quotes = r.CriticalQuotes
		v.Implications = r.MarketImplications
		for _, m := range r.FinancialMetrics {
			mv := metricView{Kind: metricTitle(m.Name), Value: m.Value, Context: m.Context}
			mv.Normalized = normalizedValue(m)
			v.Metrics = append(v.Metrics, mv)
		}
		d.Articles = append(d.Articles, v)
	}
	return d
}

// normalizedValue renders a metric's parsed number in compact form. Rupee
// amounts use lakh/crore notation.
func normalizedValue(m models.FinancialMetric) string {
	n, ok := m.Numeric()
	if !ok {
		return ""
	}
	switch {
	case m.Name == models.MetricPercentage:
		return utils.FormatPct(n)
	case strings.HasPrefix(m.Value, "Rs."):
		return "₹" + utils.FormatIndianCompact(n)
	default:
		return utils.FormatCompact(n)
	}
}

func scoreClass(impact models.MarketImpact) string {
	switch impact {
	case models.ImpactBullish:
		return "positive"
	case models.ImpactBearish:
		return "negative"
	default:
		return ""
	}
}
