// Package format renders amounts the way the reports show them: euro
// amounts and percentages in German notation.
package format

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	centsLayout  = "#.###,##"
	tenthsLayout = "#.###,#"
)

// Currency returns a euro string with German separators (e.g., "€1.234,56",
// "€-12,50").
func Currency(amount float64) string {
	return "€" + NumericCurrency(amount)
}

// NumericCurrency returns the amount with German separators and no symbol
// (e.g., "-1.234,56").
func NumericCurrency(amount float64) string {
	return humanize.FormatFloat(centsLayout, round(amount, 2))
}

// Percent renders a percentage with one decimal (e.g., "18,6%").
func Percent(value float64) string {
	return humanize.FormatFloat(tenthsLayout, round(value, 1)) + "%"
}

// Ratio renders a multiple with one decimal (e.g., "2,8:1").
func Ratio(value float64) string {
	return humanize.FormatFloat(tenthsLayout, round(value, 1)) + ":1"
}

// round rounds half away from zero on the decimal value.
func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
