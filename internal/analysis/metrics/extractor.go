// Package metrics pulls currency amounts and percentages out of article text.
package metrics

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/seenimoa/finnews/pkg/models"
)

// ContextWindow is the number of characters kept on each side of a match.
const ContextWindow = 50

var (
	currencyPattern   = regexp.MustCompile(`(?:Rs\.|USD|€|£|\$)\s*[\d,.]+(?:\s*(?:billion|million|trillion|B|M|T))?`)
	percentagePattern = regexp.MustCompile(`\d+(?:\.\d+)?%`)
)

// Extractor finds financial metrics in text. It holds no state and is safe
// for concurrent use.
type Extractor struct{}

// NewExtractor returns a metrics extractor.
func NewExtractor() *Extractor { return &Extractor{} }

// Extract returns all currency amounts in order of appearance followed by all
// percentages in order of appearance.
func (e *Extractor) Extract(text string) []models.FinancialMetric {
	out := make([]models.FinancialMetric, 0)
	out = appendMatches(out, text, currencyPattern, models.MetricAmount)
	out = appendMatches(out, text, percentagePattern, models.MetricPercentage)
	return out
}

func appendMatches(out []models.FinancialMetric, text string, re *regexp.Regexp, kind models.MetricKind) []models.FinancialMetric {
	for _, loc := range re.FindAllStringIndex(text, -1) {
		out = append(out, models.FinancialMetric{
			Name:    kind,
			Value:   text[loc[0]:loc[1]],
			Context: surrounding(text, loc[0], loc[1], ContextWindow),
		})
	}
	return out
}

// surrounding returns text[start:end] widened by window characters on each
// side, clamped to the text bounds and trimmed. Offsets are byte offsets;
// the window counts runes so multi-byte currency signs are not split.
func surrounding(text string, start, end, window int) string {
	from := start
	for i := 0; i < window && from > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:from])
		from -= size
	}
	to := end
	for i := 0; i < window && to < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[to:])
		to += size
	}
	return strings.TrimSpace(text[from:to])
}
