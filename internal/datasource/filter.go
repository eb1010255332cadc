package datasource

import "strings"

// financeKeywords mark an article as finance-related. Matching is a
// lowercase substring test, so "bond" also matches "bondholders".
var financeKeywords = []string{
	"market", "stock", "shares", "trading", "investor", "investment",
	"financial", "economy", "economic", "bank", "finance", "profit",
	"revenue", "earnings", "ipo", "merger", "acquisition", "dividend",
	"nasdaq", "dow", "nifty", "sensex", "treasury", "forex", "bond",
}

// IsFinanceRelated reports whether the lowercased title and description
// contain any finance keyword.
func IsFinanceRelated(title, description string) bool {
	text := strings.ToLower(title + " " + description)
	for _, kw := range financeKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
