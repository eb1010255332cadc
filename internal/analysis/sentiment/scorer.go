package sentiment

import (
	"strings"

	"github.com/seenimoa/finnews/pkg/models"
)

// ------------------------------------------------------------------
// Keyword-based sentiment scorer (offline, no LLM needed).
// Used when no model credential is configured or the model call fails.
// ------------------------------------------------------------------

// FallbackConfidence is the confidence reported by the keyword scorer.
const FallbackConfidence = 50.0

// FallbackImplication is the single implication the keyword scorer reports.
const FallbackImplication = "Market impact cannot be determined with high confidence"

var positiveWords = map[string]bool{
	"growth": true, "profit": true, "surge": true, "rise": true, "gain": true,
	"positive": true, "up": true, "higher": true, "increase": true,
	"improved": true, "growing": true, "strong": true, "bullish": true,
	"outperform": true,
}

var negativeWords = map[string]bool{
	"loss": true, "decline": true, "fall": true, "negative": true, "down": true,
	"lower": true, "decrease": true, "bearish": true, "weak": true, "poor": true,
	"underperform": true, "risk": true, "volatile": true,
}

// CountKeywords returns how many distinct positive and negative keywords
// appear as whitespace-delimited lowercase tokens of text. Punctuation is
// not stripped, so "surge," does not count as "surge".
func CountKeywords(text string) (pos, neg int) {
	seen := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if seen[w] {
			continue
		}
		seen[w] = true
		if positiveWords[w] {
			pos++
		}
		if negativeWords[w] {
			neg++
		}
	}
	return pos, neg
}

// KeywordScore returns (pos-neg)/(pos+neg), or exactly 0 when no keyword
// matched. The result is always within [-1, +1].
func KeywordScore(text string) float64 {
	pos, neg := CountKeywords(text)
	total := pos + neg
	if total == 0 {
		return 0
	}
	return float64(pos-neg) / float64(total)
}

// Fallback scores text with the keyword heuristic.
func Fallback(text string) models.SentimentResult {
	score := KeywordScore(text)
	return models.SentimentResult{
		SentimentScore:     score,
		Confidence:         FallbackConfidence,
		MarketImpact:       models.ImpactForScore(score),
		CriticalQuotes:     []string{},
		MarketImplications: []string{FallbackImplication},
	}
}
