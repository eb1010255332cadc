package metrics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seenimoa/finnews/pkg/models"
)

func TestExtractAmountAndPercentage(t *testing.T) {
	text := "Revenue rose to $5.2 million, up 12.5% year over year"
	got := NewExtractor().Extract(text)

	require.Len(t, got, 2)
	require.Equal(t, models.MetricAmount, got[0].Name)
	require.Equal(t, "$5.2 million", got[0].Value)
	require.NotEmpty(t, got[0].Context)
	require.Equal(t, models.MetricPercentage, got[1].Name)
	require.Equal(t, "12.5%", got[1].Value)
	require.NotEmpty(t, got[1].Context)
}

func TestExtractAmountsBeforePercentages(t *testing.T) {
	text := "Shares fell 3% after a Rs. 450 crore loss; margins at 8.25% on USD 12 billion sales"
	got := NewExtractor().Extract(text)

	values := make([]string, len(got))
	for i, m := range got {
		values[i] = m.Value
	}
	require.Equal(t, []string{"Rs. 450", "USD 12 billion", "3%", "8.25%"}, values)
	require.Equal(t, models.MetricAmount, got[0].Name)
	require.Equal(t, models.MetricAmount, got[1].Name)
	require.Equal(t, models.MetricPercentage, got[2].Name)
	require.Equal(t, models.MetricPercentage, got[3].Name)
}

func TestExtractCurrencyMarkers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"dollar", "raised $300M in funding", "$300M"},
		{"euro", "a €2,500 fine", "€2,500"},
		{"pound", "worth £1.2 trillion overall", "£1.2 trillion"},
		{"rupee", "priced at Rs.1,200", "Rs.1,200"},
		{"usd", "USD 40 per barrel", "USD 40"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NewExtractor().Extract(tc.text)
			require.Len(t, got, 1)
			require.Equal(t, tc.want, got[0].Value)
		})
	}
}

func TestExtractIdempotent(t *testing.T) {
	text := "Profit of $1.1 billion, up 4%, beat estimates of $900 million and 2.5% growth"
	e := NewExtractor()
	require.Equal(t, e.Extract(text), e.Extract(text))
}

func TestExtractNoMatches(t *testing.T) {
	got := NewExtractor().Extract("No numbers in this sentence")
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestContextWindow(t *testing.T) {
	prefix := strings.Repeat("a", 80)
	suffix := strings.Repeat("b", 80)
	text := prefix + " 7% " + suffix
	got := NewExtractor().Extract(text)
	require.Len(t, got, 1)

	want := strings.Repeat("a", 49) + " 7% " + strings.Repeat("b", 49)
	require.Equal(t, want, got[0].Context)
}

func TestContextClampedAndTrimmed(t *testing.T) {
	got := NewExtractor().Extract("  9% ")
	require.Len(t, got, 1)
	require.Equal(t, "9%", got[0].Context)
}

func TestSurroundingMultibyte(t *testing.T) {
	text := "€€€ x"
	// 1-rune window around "x" keeps the space only.
	require.Equal(t, "x", surrounding(text, len(text)-1, len(text), 1))
	require.Equal(t, "€ x", surrounding(text, len(text)-1, len(text), 2))
}
