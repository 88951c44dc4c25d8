package metrics

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/boardpack/internal/dataset"
)

// ComputeHeadcount derives headcount and people-cost KPIs for the latest
// period. The prior-year total comes from the prior_year column of the rows
// at the oldest available period, the same proxy convention the customer
// calculator uses. Duplicate department rows for one period are
// last-write-wins in the breakdown; totals still count every row.
func ComputeHeadcount(rows []dataset.HeadcountRow) (HeadcountMetrics, error) {
	if len(rows) == 0 {
		return HeadcountMetrics{}, eris.New("metrics: headcount dataset has no rows")
	}

	periods := make([]string, len(rows))
	for i, r := range rows {
		periods[i] = r.Period
	}
	latest := maxPeriod(periods)
	oldest := distinctSorted(periods)[0]

	var (
		totalAct, totalBud, totalPY int
		costAct, costBud            float64
	)
	byDept := make(map[string]DeptHeadcount)
	for _, r := range rows {
		switch r.Period {
		case latest:
			totalAct += r.HeadcountActual
			totalBud += r.HeadcountBudget
			costAct += r.CostActualGBP
			costBud += r.CostBudgetGBP
			byDept[r.Department] = DeptHeadcount{
				Actual:   r.HeadcountActual,
				Budget:   r.HeadcountBudget,
				Variance: r.HeadcountActual - r.HeadcountBudget,
			}
		case oldest:
			totalPY += r.HeadcountPriorYear
		}
	}

	var cphAct, cphBud float64
	if totalAct > 0 {
		cphAct = costAct / float64(totalAct)
	}
	if totalBud > 0 {
		cphBud = costBud / float64(totalBud)
	}

	m := HeadcountMetrics{
		Period:            latest,
		TotalHCActual:     totalAct,
		TotalHCBudget:     totalBud,
		TotalHCPriorYear:  totalPY,
		TotalCostActual:   round2(costAct),
		TotalCostBudget:   round2(costBud),
		CostPerHeadActual: round2(cphAct),
		CostPerHeadBudget: round2(cphBud),
		ByDepartment:      byDept,
	}

	for _, p := range lastN(distinctSorted(periods), 12) {
		total := 0
		for _, r := range rows {
			if r.Period == p {
				total += r.HeadcountActual
			}
		}
		m.HCTrendPeriods = append(m.HCTrendPeriods, p)
		m.HCTrend = append(m.HCTrend, total)
	}
	return m, nil
}
