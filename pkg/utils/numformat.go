// Package utils provides common formatting and parsing helpers for finnews.
package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	thousand  = decimal.New(1, 3)
	lakh      = decimal.New(1, 5)
	million   = decimal.New(1, 6)
	crore     = decimal.New(1, 7)
	billion   = decimal.New(1, 9)
	trillion  = decimal.New(1, 12)
	lakhCrore = decimal.New(1, 12)
)

// FormatCompact formats an amount with a western scale suffix.
// e.g., 5200000000 → "5.2 B", 1500 → "1.5 K", 42 → "42"
func FormatCompact(amount decimal.Decimal) string {
	sign, abs := splitSign(amount)
	switch {
	case abs.GreaterThanOrEqual(trillion):
		return sign + formatWithDecimals(abs.Div(trillion)) + " T"
	case abs.GreaterThanOrEqual(billion):
		return sign + formatWithDecimals(abs.Div(billion)) + " B"
	case abs.GreaterThanOrEqual(million):
		return sign + formatWithDecimals(abs.Div(million)) + " M"
	case abs.GreaterThanOrEqual(thousand):
		return sign + formatWithDecimals(abs.Div(thousand)) + " K"
	default:
		return sign + formatWithDecimals(abs)
	}
}

// FormatIndianCompact formats an amount in compact Indian notation.
// e.g., 1927345 → "19.27 L", 192734500000 → "19273.45 Cr"
func FormatIndianCompact(amount decimal.Decimal) string {
	sign, abs := splitSign(amount)
	switch {
	case abs.GreaterThanOrEqual(lakhCrore):
		// Lakh crores
		return sign + formatWithDecimals(abs.Div(lakhCrore)) + " L Cr"
	case abs.GreaterThanOrEqual(crore):
		return sign + formatWithDecimals(abs.Div(crore)) + " Cr"
	case abs.GreaterThanOrEqual(lakh):
		return sign + formatWithDecimals(abs.Div(lakh)) + " L"
	case abs.GreaterThanOrEqual(thousand):
		return sign + formatWithDecimals(abs.Div(thousand)) + " K"
	default:
		return sign + formatWithDecimals(abs)
	}
}

// FormatPct formats a percentage value with sign and suffix.
// e.g., 2.45 → "+2.45%", -1.23 → "-1.23%"
func FormatPct(pct decimal.Decimal) string {
	if pct.IsNegative() {
		return pct.StringFixed(2) + "%"
	}
	return "+" + pct.StringFixed(2) + "%"
}

func splitSign(d decimal.Decimal) (string, decimal.Decimal) {
	if d.IsNegative() {
		return "-", d.Abs()
	}
	return "", d
}

// formatWithDecimals formats a number with up to 2 decimal places,
// removing trailing zeros.
func formatWithDecimals(n decimal.Decimal) string {
	s := n.StringFixed(2)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
