// Package core provides money formatting utilities.
//
// Amounts are kept as decimals end to end and only turned into strings
// at the presentation edge.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount en-US style with two decimals and
// comma thousands separators.
//
// Examples:
//
//	FormatAmount(decimal.RequireFromString("1234.5")) -> "1,234.50"
//	FormatAmount(decimal.RequireFromString("-12"))     -> "-12.00"
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// SumAmounts adds up amounts; the zero value is returned for an empty list.
func SumAmounts(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
