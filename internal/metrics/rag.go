package metrics

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/boardpack/internal/config"
)

// variancePct is value/budget - 1, defined as 0 for a zero budget. Used by
// every banding strategy regardless of how the status itself is decided.
func variancePct(value, budget float64) float64 {
	if budget == 0 {
		return 0
	}
	return value/budget - 1
}

// ragHigherIsBetter bands on the budget variance ratio, where a higher
// actual is better. Thresholds are (usually negative) variance ratios and
// are inclusive: a variance exactly at the green threshold is Green.
func ragHigherIsBetter(value, budget, greenThreshold, amberThreshold float64) RagStatus {
	// Thresholds are inclusive, so the ratio must be noise-free before
	// comparison: 980/1000-1 is -0.020000000000000018 in raw float64.
	pct := round10(variancePct(value, budget))
	status := StatusRed
	switch {
	case pct >= greenThreshold:
		status = StatusGreen
	case pct >= amberThreshold:
		status = StatusAmber
	}
	return RagStatus{
		Status:      status,
		Value:       value,
		Budget:      budget,
		VarianceAbs: round2(value - budget),
		VariancePct: round4(pct),
	}
}

// ragAbsolute bands the raw value against two absolute cutoffs, higher
// being better. Budget feeds the variance fields only, never the decision.
func ragAbsolute(value, greenCutoff, amberCutoff, budget float64) RagStatus {
	status := StatusRed
	switch {
	case value >= greenCutoff:
		status = StatusGreen
	case value >= amberCutoff:
		status = StatusAmber
	}
	return RagStatus{
		Status:      status,
		Value:       value,
		Budget:      budget,
		VarianceAbs: round2(value - budget),
		VariancePct: round4(variancePct(value, budget)),
	}
}

// ragLowerIsBetter bands the raw value against two absolute cutoffs where
// lower is better (churn, costs). Budget is display-only here too.
func ragLowerIsBetter(value, greenCutoff, amberCutoff, budget float64) RagStatus {
	status := StatusRed
	switch {
	case value <= greenCutoff:
		status = StatusGreen
	case value <= amberCutoff:
		status = StatusAmber
	}
	return RagStatus{
		Status:      status,
		Value:       value,
		Budget:      budget,
		VarianceAbs: round5(value - budget),
		VariancePct: round4(variancePct(value, budget)),
	}
}

// BuildDashboard classifies the eight headline KPIs using the configured
// threshold bands. The headcount band is configured as positive shortfall
// ratios ("up to 5% under plan is still Green") and negated here to fit
// the higher-is-better comparison.
func BuildDashboard(
	fin FinancialMetrics,
	comm CommercialMetrics,
	cust CustomerMetrics,
	hc HeadcountMetrics,
	rag config.RAGConfig,
) (RagDashboard, error) {
	bands := make(map[string]config.Band, len(config.DashboardKPIs))
	for _, kpi := range config.DashboardKPIs {
		b, ok := rag.Band(kpi)
		if !ok {
			return RagDashboard{}, eris.Errorf("metrics: no RAG band configured for %q", kpi)
		}
		bands[kpi] = b
	}

	return RagDashboard{
		Revenue: ragHigherIsBetter(fin.RevenueActual, fin.RevenueBudget,
			bands["revenue"].Green, bands["revenue"].Amber),
		GrossMargin: ragAbsolute(fin.GrossMarginPctActual,
			bands["gross_margin"].Green, bands["gross_margin"].Amber,
			fin.GrossMarginPctBudget),
		EBITDAMargin: ragAbsolute(fin.EBITDAMarginPctActual,
			bands["ebitda_margin"].Green, bands["ebitda_margin"].Amber,
			fin.EBITDAMarginPctBudget),
		PipelineCoverage: ragAbsolute(comm.PipelineCoverageRatio,
			bands["pipeline_coverage"].Green, bands["pipeline_coverage"].Amber, 0),
		WinRate: ragAbsolute(comm.WinRateActual,
			bands["win_rate"].Green, bands["win_rate"].Amber,
			comm.WinRateBudget),
		ChurnRate: ragLowerIsBetter(cust.ChurnRateActual,
			bands["churn_rate"].Green, bands["churn_rate"].Amber,
			cust.ChurnRateBudget),
		NPS: ragAbsolute(float64(cust.NPSActual),
			bands["nps"].Green, bands["nps"].Amber,
			float64(cust.NPSBudget)),
		Headcount: ragHigherIsBetter(float64(hc.TotalHCActual), float64(hc.TotalHCBudget),
			-bands["headcount"].Green, -bands["headcount"].Amber),
	}, nil
}
