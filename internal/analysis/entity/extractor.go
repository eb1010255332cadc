// Package entity is a keyword heuristic for companies, sectors and financial
// instruments mentioned in article text. It is not named-entity recognition;
// false positives are expected.
package entity

import "strings"

// Entities holds the extractor's independent result lists.
type Entities struct {
	Companies   []string `json:"companies"`
	Sectors     []string `json:"sectors"`
	Instruments []string `json:"instruments"`
}

// companyIndicators are corporate suffixes that mark the preceding token as
// part of a company name.
var companyIndicators = map[string]bool{
	"Ltd": true, "Limited": true, "Corp": true, "Inc": true,
	"AG": true, "NV": true, "SA": true,
}

// sector pairs a sector name with lowercase keywords.
type sector struct {
	name     string
	keywords []string
}

var sectors = []sector{
	{"technology", []string{"tech", "software", "digital"}},
	{"finance", []string{"bank", "insurance", "financial", "investment"}},
	{"healthcare", []string{"pharma", "health", "medical", "biotech"}},
	{"energy", []string{"oil", "gas", "renewable", "power"}},
}

var instruments = []string{
	"stocks", "shares", "bonds", "futures", "options",
	"etf", "mutual fund", "derivatives", "forex",
}

// Extractor scans text for entities. Its tables are fixed at package level,
// so one Extractor may be shared across goroutines.
type Extractor struct{}

// NewExtractor returns an entity extractor.
func NewExtractor() *Extractor { return &Extractor{} }

// Extract runs all three scans over text.
func (e *Extractor) Extract(text string) Entities {
	return Entities{
		Companies:   e.Companies(text),
		Sectors:     e.Sectors(text),
		Instruments: e.Instruments(text),
	}
}

// Companies returns "<previous token> <indicator>" for every whitespace token
// that is exactly a corporate indicator and is not the first token.
// Repeated mentions are kept.
func (e *Extractor) Companies(text string) []string {
	companies := make([]string, 0)
	words := strings.Fields(text)
	for i, w := range words {
		if i > 0 && companyIndicators[w] {
			companies = append(companies, words[i-1]+" "+w)
		}
	}
	return companies
}

// Sectors returns, in declaration order, each sector with at least one
// keyword occurring in the lowercased text.
func (e *Extractor) Sectors(text string) []string {
	lower := strings.ToLower(text)
	found := make([]string, 0)
	for _, s := range sectors {
		for _, kw := range s.keywords {
			if strings.Contains(lower, kw) {
				found = append(found, s.name)
				break
			}
		}
	}
	return found
}

// Instruments returns each instrument term that occurs in the lowercased text.
func (e *Extractor) Instruments(text string) []string {
	lower := strings.ToLower(text)
	found := make([]string, 0)
	for _, term := range instruments {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	return found
}
