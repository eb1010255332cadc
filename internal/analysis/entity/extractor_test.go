package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractCompanyAndSector(t *testing.T) {
	got := NewExtractor().Extract("Acme Corp reported strong tech growth")
	require.Equal(t, []string{"Acme Corp"}, got.Companies)
	require.Contains(t, got.Sectors, "technology")
}

func TestCompanies(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"single", "Shares of Reliance Ltd jumped", []string{"Reliance Ltd"}},
		{"several", "Siemens AG and Apple Inc agreed", []string{"Siemens AG", "Apple Inc"}},
		{"duplicates kept", "Acme Corp beat. Acme Corp again", []string{"Acme Corp", "Acme Corp"}},
		{"first token ignored", "Inc filings rose", []string{}},
		{"exact token only", "Acme Corp. and Foo Inc, Bar incorporated", []string{}},
		{"limited", "Tata Motors Limited said", []string{"Motors Limited"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, NewExtractor().Companies(tc.text))
		})
	}
}

func TestSectorsDeclarationOrder(t *testing.T) {
	text := "Oil majors and PHARMA firms lean on Bank loans for SOFTWARE upgrades"
	require.Equal(t,
		[]string{"technology", "finance", "healthcare", "energy"},
		NewExtractor().Sectors(text))
}

func TestSectorsNone(t *testing.T) {
	require.Empty(t, NewExtractor().Sectors("Quarterly results were announced"))
}

func TestSectorsSubstringMatch(t *testing.T) {
	// "power" inside "powerful" still counts.
	require.Equal(t, []string{"energy"}, NewExtractor().Sectors("A powerful rally"))
}

func TestInstruments(t *testing.T) {
	text := "Investors moved from Stocks into Bonds and a Mutual Fund; ETF flows and forex were flat"
	require.Equal(t,
		[]string{"stocks", "bonds", "etf", "mutual fund", "forex"},
		NewExtractor().Instruments(text))
}

func TestInstrumentsStableAcrossCalls(t *testing.T) {
	e := NewExtractor()
	text := "options and futures on shares and derivatives"
	first := e.Instruments(text)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, e.Instruments(text))
	}
	require.Equal(t, []string{"shares", "futures", "options", "derivatives"}, first)
}
