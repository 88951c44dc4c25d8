package metrics

import "github.com/shopspring/decimal"

// Money values round to 2dp at finalization, ratios to 4dp, churn rates to
// 5dp. Intermediate accumulation stays unrounded.

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func round4(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(4).Float64()
	return f
}

func round5(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(5).Float64()
	return f
}

// round10 scrubs float noise from variance ratios before threshold
// comparison, so 980/1000-1 lands exactly on -0.02.
func round10(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(10).Float64()
	return f
}
