package metrics

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/boardpack/internal/dataset"
)

// ComputeCustomers derives ARR, churn and NPS KPIs for the latest period.
// The oldest row stands in for the prior-year comparator; with the standard
// 24 months of history that is roughly one year before the trend window
// begins, and it is used for comparison only.
func ComputeCustomers(rows []dataset.CustomerRow) (CustomerMetrics, error) {
	if len(rows) == 0 {
		return CustomerMetrics{}, eris.New("metrics: customers dataset has no rows")
	}

	periods := make([]string, len(rows))
	for i, r := range rows {
		periods[i] = r.Period
	}
	latest := maxPeriod(periods)

	var current, oldest dataset.CustomerRow
	oldestPeriod := ""
	for _, r := range rows {
		if r.Period == latest && current.Period == "" {
			current = r
		}
		if oldestPeriod == "" || r.Period < oldestPeriod {
			oldestPeriod = r.Period
			oldest = r
		}
	}

	m := CustomerMetrics{
		Period:           latest,
		ARRActual:        round2(current.ARRGBP),
		ARRBudget:        round2(current.ARRBudgetGBP),
		ARRPriorYear:     round2(oldest.ARRGBP),
		NewARRGBP:        round2(current.NewARRGBP),
		ChurnedARRGBP:    round2(current.ChurnedARRGBP),
		NetARRMovement:   round2(current.NewARRGBP - current.ChurnedARRGBP),
		ChurnRateActual:  round5(current.ChurnRateActual),
		ChurnRateBudget:  current.ChurnRateBudget,
		NPSActual:        current.NPSActual,
		NPSBudget:        current.NPSBudget,
		NewCustomers:     current.NewCustomers,
		ChurnedCustomers: current.ChurnedCustomers,
	}

	for _, p := range lastN(distinctSorted(periods), 12) {
		for _, r := range rows {
			if r.Period == p {
				m.ARRTrendPeriods = append(m.ARRTrendPeriods, p)
				m.ARRTrend = append(m.ARRTrend, round2(r.ARRGBP))
				break
			}
		}
	}
	return m, nil
}
