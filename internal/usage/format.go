package usage

import (
	"fmt"
	"strconv"
)

// FormatCost renders a USD amount for display. Sub-cent costs keep four
// decimal places so streaming costs don't round to $0.00.
func FormatCost(cost float64) string {
	if cost < 0.01 {
		return fmt.Sprintf("$%.4f", cost)
	}
	return fmt.Sprintf("$%.2f", cost)
}

// FormatTokens renders a token count with k/M suffixes above 1,000 and
// 1,000,000 respectively, else as a grouped integer.
func FormatTokens(tokens int) string {
	switch {
	case tokens >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(tokens)/1_000_000)
	case tokens >= 1_000:
		return fmt.Sprintf("%.1fk", float64(tokens)/1_000)
	default:
		return strconv.Itoa(tokens)
	}
}
