package util

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var countPrinter = message.NewPrinter(language.English)

// FormatCount renders an exact count with thousands separators.
// Example: 1234567 -> "1,234,567"
func FormatCount(n int64) string {
	return countPrinter.Sprintf("%d", n)
}

// FormatPercent renders a ratio as a percentage with one decimal.
// Example: 0.1834 -> "18.3%"
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}
