package narrative

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BritishEnglish)

// gbp formats a GBP amount for board copy. Units: "full" = £1,234,567,
// "m" = £1.2M, "k" = £1,235k.
func gbp(value float64, units string) string {
	abs := math.Abs(value)
	sign := ""
	if value < 0 {
		sign = "-"
	}
	switch units {
	case "m":
		return fmt.Sprintf("%s£%.1fM", sign, abs/1_000_000)
	case "k":
		return printer.Sprintf("%s£%.0fk", sign, abs/1_000)
	default:
		return printer.Sprintf("%s£%.0f", sign, abs)
	}
}

// pct renders a fraction as a percentage; withSign adds a leading + for
// non-negative values (0.142 → "+14.2%").
func pct(value float64, withSign bool) string {
	prefix := ""
	if withSign && value >= 0 {
		prefix = "+"
	}
	return fmt.Sprintf("%s%.1f%%", prefix, value*100)
}

// pp renders a fractional difference in percentage points ("2.3pp").
func pp(value float64) string {
	return fmt.Sprintf("%.1fpp", math.Abs(value*100))
}

func aboveBelow(value, budget float64) string {
	if value >= budget {
		return "above"
	}
	return "below"
}
