package models

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// MarketImpact is the expected market reaction to a piece of news.
type MarketImpact string

const (
	ImpactBullish MarketImpact = "bullish"
	ImpactBearish MarketImpact = "bearish"
	ImpactNeutral MarketImpact = "neutral"
)

// NeutralBand is the absolute score below which news is considered neutral.
const NeutralBand = 0.2

// ImpactForScore maps a sentiment score to a market impact.
// Scores with |s| < NeutralBand are neutral; otherwise the sign decides.
func ImpactForScore(score float64) MarketImpact {
	switch {
	case math.Abs(score) < NeutralBand:
		return ImpactNeutral
	case score > 0:
		return ImpactBullish
	default:
		return ImpactBearish
	}
}

// MetricKind tags a FinancialMetric.
type MetricKind string

const (
	MetricAmount     MetricKind = "amount"
	MetricPercentage MetricKind = "percentage"
)

// FinancialMetric is a currency amount or percentage found in article text.
type FinancialMetric struct {
	Name    MetricKind `json:"name"    yaml:"name"`
	Value   string     `json:"value"   yaml:"value"`   // literal matched text
	Context string     `json:"context" yaml:"context"` // surrounding text, trimmed
}

// currencyMarkers are the prefixes recognised in amount values.
var currencyMarkers = []string{"Rs.", "USD", "€", "£", "$"}

var scaleFactors = map[string]decimal.Decimal{
	"trillion": decimal.New(1, 12),
	"T":        decimal.New(1, 12),
	"billion":  decimal.New(1, 9),
	"B":        decimal.New(1, 9),
	"million":  decimal.New(1, 6),
	"M":        decimal.New(1, 6),
}

// Numeric parses the metric value into a decimal, applying scale words
// (so "$5.2 million" yields 5200000). Percentages yield the bare number.
// The second return is false when the literal holds no parseable number.
func (m FinancialMetric) Numeric() (decimal.Decimal, bool) {
	v := strings.TrimSpace(m.Value)

	if m.Name == MetricPercentage {
		d, err := decimal.NewFromString(strings.TrimSuffix(v, "%"))
		return d, err == nil
	}

	for _, marker := range currencyMarkers {
		if strings.HasPrefix(v, marker) {
			v = strings.TrimSpace(v[len(marker):])
			break
		}
	}

	num := strings.TrimRightFunc(v, unicode.IsLetter)
	scale := strings.TrimSpace(v[len(num):])
	num = strings.TrimRight(strings.TrimSpace(num), ".,")
	num = strings.ReplaceAll(num, ",", "")

	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, false
	}
	if f, ok := scaleFactors[scale]; ok {
		d = d.Mul(f)
	}
	return d, true
}

// SentimentResult is the sentiment analyzer's output for one text.
type SentimentResult struct {
	SentimentScore     float64      `json:"sentiment_score"     yaml:"sentiment_score"` // -1.0 to +1.0
	Confidence         float64      `json:"confidence"          yaml:"confidence"`      // 0 to 100
	MarketImpact       MarketImpact `json:"market_impact"       yaml:"market_impact"`
	CriticalQuotes     []string     `json:"critical_quotes"     yaml:"critical_quotes"`
	MarketImplications []string     `json:"market_implications" yaml:"market_implications"`
}

// AnalysisResult is the structured record produced for one article.
type AnalysisResult struct {
	ID                   string            `json:"id"                    yaml:"id"`
	SentimentScore       float64           `json:"sentiment_score"       yaml:"sentiment_score"`
	Confidence           float64           `json:"confidence"            yaml:"confidence"`
	MarketImpact         MarketImpact      `json:"market_impact"         yaml:"market_impact"`
	KeyCompanies         []string          `json:"key_companies"         yaml:"key_companies"`
	KeySectors           []string          `json:"key_sectors"           yaml:"key_sectors"`
	FinancialInstruments []string          `json:"financial_instruments" yaml:"financial_instruments"`
	FinancialMetrics     []FinancialMetric `json:"financial_metrics"     yaml:"financial_metrics"`
	CriticalQuotes       []string          `json:"critical_quotes"       yaml:"critical_quotes"`
	MarketImplications   []string          `json:"market_implications"   yaml:"market_implications"`
	AnalyzedAt           time.Time         `json:"analyzed_at"           yaml:"analyzed_at"`
}

// SentimentLabel is a finer-grained qualitative reading of a sentiment score.
type SentimentLabel string

const (
	LabelVeryPositive SentimentLabel = "Very Positive"
	LabelPositive     SentimentLabel = "Positive"
	LabelNeutral      SentimentLabel = "Neutral"
	LabelNegative     SentimentLabel = "Negative"
	LabelVeryNegative SentimentLabel = "Very Negative"
)

// SentimentThresholds holds the lower bound of each label band.
// Scores below Negative are very negative.
type SentimentThresholds struct {
	VeryPositive float64 `json:"very_positive" yaml:"very_positive"`
	Positive     float64 `json:"positive"      yaml:"positive"`
	Neutral      float64 `json:"neutral"       yaml:"neutral"`
	Negative     float64 `json:"negative"      yaml:"negative"`
}

// DefaultSentimentThresholds returns the standard band table.
func DefaultSentimentThresholds() SentimentThresholds {
	return SentimentThresholds{
		VeryPositive: 0.6,
		Positive:     0.2,
		Neutral:      -0.2,
		Negative:     -0.6,
	}
}

// Label returns the band a score falls in.
func (t SentimentThresholds) Label(score float64) SentimentLabel {
	switch {
	case score >= t.VeryPositive:
		return LabelVeryPositive
	case score >= t.Positive:
		return LabelPositive
	case score >= t.Neutral:
		return LabelNeutral
	case score >= t.Negative:
		return LabelNegative
	default:
		return LabelVeryNegative
	}
}
