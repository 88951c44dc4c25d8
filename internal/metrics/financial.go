package metrics

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/boardpack/internal/dataset"
)

type plSums struct {
	revenue, cogs, opex float64
}

func sumPL(rows []dataset.FinancialRow, period string, pick func(dataset.FinancialRow) float64) plSums {
	var s plSums
	for _, r := range rows {
		if r.Period != period {
			continue
		}
		switch r.LineType {
		case "Revenue":
			s.revenue += pick(r)
		case "COGS":
			s.cogs += pick(r)
		case "OpEx":
			s.opex += pick(r)
		}
	}
	return s
}

func actualGBP(r dataset.FinancialRow) float64    { return r.ActualGBP }
func budgetGBP(r dataset.FinancialRow) float64    { return r.BudgetGBP }
func priorYearGBP(r dataset.FinancialRow) float64 { return r.PriorYearGBP }

// ratio is x/y with the zero-denominator guard every margin uses.
func ratio(x, y float64) float64 {
	if y == 0 {
		return 0
	}
	return x / y
}

// ComputeFinancial derives the P&L KPIs for the latest period present in
// the financial rows, fiscal YTD aggregates, and the 12-month trend.
// Actual and budget figures are always derived from their own sums; a
// missing line type contributes a zero sum rather than an error.
func ComputeFinancial(rows []dataset.FinancialRow, fyStartMonth int) (FinancialMetrics, error) {
	if len(rows) == 0 {
		return FinancialMetrics{}, eris.New("metrics: financials dataset has no rows")
	}

	periods := make([]string, len(rows))
	for i, r := range rows {
		periods[i] = r.Period
	}
	current := maxPeriod(periods)

	ytdStart, err := fiscalYTDStart(current, fyStartMonth)
	if err != nil {
		return FinancialMetrics{}, err
	}

	act := sumPL(rows, current, actualGBP)
	bud := sumPL(rows, current, budgetGBP)
	py := sumPL(rows, current, priorYearGBP)

	grossAct := act.revenue - act.cogs
	grossBud := bud.revenue - bud.cogs
	ebitdaAct := grossAct - act.opex
	ebitdaBud := grossBud - bud.opex

	// YTD EBITDA comes from the window's summed Revenue/COGS/OpEx, not
	// from summing monthly EBITDA values, so rounding happens once.
	var ytdAct, ytdBud plSums
	for _, r := range rows {
		if !inYTDWindow(r.Period, current, ytdStart) {
			continue
		}
		switch r.LineType {
		case "Revenue":
			ytdAct.revenue += r.ActualGBP
			ytdBud.revenue += r.BudgetGBP
		case "COGS":
			ytdAct.cogs += r.ActualGBP
			ytdBud.cogs += r.BudgetGBP
		case "OpEx":
			ytdAct.opex += r.ActualGBP
			ytdBud.opex += r.BudgetGBP
		}
	}

	trendPeriods := lastN(distinctSorted(periods), 12)
	m := FinancialMetrics{
		Period:                current,
		RevenueActual:         round2(act.revenue),
		RevenueBudget:         round2(bud.revenue),
		RevenuePriorYear:      round2(py.revenue),
		GrossProfitActual:     round2(grossAct),
		GrossProfitBudget:     round2(grossBud),
		GrossMarginPctActual:  round4(ratio(grossAct, act.revenue)),
		GrossMarginPctBudget:  round4(ratio(grossBud, bud.revenue)),
		OpexActual:            round2(act.opex),
		OpexBudget:            round2(bud.opex),
		EBITDAActual:          round2(ebitdaAct),
		EBITDABudget:          round2(ebitdaBud),
		EBITDAMarginPctActual: round4(ratio(ebitdaAct, act.revenue)),
		EBITDAMarginPctBudget: round4(ratio(ebitdaBud, bud.revenue)),
		YTDRevenueActual:      round2(ytdAct.revenue),
		YTDRevenueBudget:      round2(ytdBud.revenue),
		YTDEBITDAActual:       round2(ytdAct.revenue - ytdAct.cogs - ytdAct.opex),
		YTDEBITDABudget:       round2(ytdBud.revenue - ytdBud.cogs - ytdBud.opex),
		MonthlyPeriods:        trendPeriods,
	}

	for _, p := range trendPeriods {
		s := sumPL(rows, p, actualGBP)
		m.MonthlyRevenue = append(m.MonthlyRevenue, round2(s.revenue))
		m.MonthlyEBITDA = append(m.MonthlyEBITDA, round2(s.revenue-s.cogs-s.opex))
		m.MonthlyGrossMargin = append(m.MonthlyGrossMargin,
			round2(ratio(s.revenue-s.cogs, s.revenue)*100))
	}
	return m, nil
}
