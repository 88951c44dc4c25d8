// Package metrics turns the four raw datasets into the per-period KPI
// snapshot every renderer consumes: four domain metric records, trailing
// trend series for charting, and a RAG status dashboard. All computation is
// pure; the same input tables always produce the same package.
package metrics

// RagStatus carries the Red/Amber/Green classification for one KPI together
// with its value, reference and variances.
type RagStatus struct {
	Status      string  `json:"status"`
	Value       float64 `json:"value"`
	Budget      float64 `json:"budget"`
	VarianceAbs float64 `json:"variance_abs"`
	VariancePct float64 `json:"variance_pct"`
}

// Valid RagStatus.Status values.
const (
	StatusGreen = "Green"
	StatusAmber = "Amber"
	StatusRed   = "Red"
)

// FinancialMetrics holds the monthly P&L KPIs, fiscal YTD aggregates and
// 12-month trend series.
type FinancialMetrics struct {
	Period string `json:"period"`

	RevenueActual    float64 `json:"revenue_actual"`
	RevenueBudget    float64 `json:"revenue_budget"`
	RevenuePriorYear float64 `json:"revenue_prior_year"`

	GrossProfitActual    float64 `json:"gross_profit_actual"`
	GrossProfitBudget    float64 `json:"gross_profit_budget"`
	GrossMarginPctActual float64 `json:"gross_margin_pct_actual"`
	GrossMarginPctBudget float64 `json:"gross_margin_pct_budget"`

	OpexActual float64 `json:"opex_actual"`
	OpexBudget float64 `json:"opex_budget"`

	EBITDAActual          float64 `json:"ebitda_actual"`
	EBITDABudget          float64 `json:"ebitda_budget"`
	EBITDAMarginPctActual float64 `json:"ebitda_margin_pct_actual"`
	EBITDAMarginPctBudget float64 `json:"ebitda_margin_pct_budget"`

	YTDRevenueActual float64 `json:"ytd_revenue_actual"`
	YTDRevenueBudget float64 `json:"ytd_revenue_budget"`
	YTDEBITDAActual  float64 `json:"ytd_ebitda_actual"`
	YTDEBITDABudget  float64 `json:"ytd_ebitda_budget"`

	// Trailing trend, oldest first. MonthlyGrossMargin is in percent
	// points (58.2, not 0.582) for chart axes.
	MonthlyPeriods     []string  `json:"monthly_periods"`
	MonthlyRevenue     []float64 `json:"monthly_revenue"`
	MonthlyEBITDA      []float64 `json:"monthly_ebitda"`
	MonthlyGrossMargin []float64 `json:"monthly_gross_margin"`
}

// StageValue is one slice of the pipeline stage breakdown. Stages keep
// their canonical funnel order, so the breakdown is a slice, not a map.
type StageValue struct {
	Stage    string  `json:"stage"`
	ValueGBP float64 `json:"value_gbp"`
}

// CommercialMetrics holds the sales pipeline KPIs over the trailing
// four-week window plus a 12-week trend.
type CommercialMetrics struct {
	Period string `json:"period"` // latest snapshot week, YYYY-MM-DD

	TotalPipelineGBP      float64 `json:"total_pipeline_gbp"`
	PipelineBudgetGBP     float64 `json:"pipeline_budget_gbp"`
	PipelineCoverageRatio float64 `json:"pipeline_coverage_ratio"`
	WinRateActual         float64 `json:"win_rate_actual"`
	WinRateBudget         float64 `json:"win_rate_budget"`
	AvgDealSizeGBP        float64 `json:"avg_deal_size_gbp"`
	NewPipeline4WGBP      float64 `json:"new_pipeline_4w_gbp"`

	PipelineByStage []StageValue `json:"pipeline_by_stage"`

	PipelineTrendPeriods []string  `json:"pipeline_trend_periods"`
	PipelineTrend        []float64 `json:"pipeline_trend"`
}

// CustomerMetrics holds ARR, churn and NPS KPIs.
type CustomerMetrics struct {
	Period string `json:"period"`

	ARRActual    float64 `json:"arr_actual"`
	ARRBudget    float64 `json:"arr_budget"`
	ARRPriorYear float64 `json:"arr_prior_year"`

	NewARRGBP      float64 `json:"new_arr_gbp"`
	ChurnedARRGBP  float64 `json:"churned_arr_gbp"`
	NetARRMovement float64 `json:"net_arr_movement"`

	ChurnRateActual float64 `json:"churn_rate_actual"`
	ChurnRateBudget float64 `json:"churn_rate_budget"`
	NPSActual       int     `json:"nps_actual"`
	NPSBudget       int     `json:"nps_budget"`

	NewCustomers     int `json:"new_customers"`
	ChurnedCustomers int `json:"churned_customers"`

	ARRTrendPeriods []string  `json:"arr_trend_periods"`
	ARRTrend        []float64 `json:"arr_trend"`
}

// DeptHeadcount is the per-department headcount breakdown entry.
type DeptHeadcount struct {
	Actual   int `json:"actual"`
	Budget   int `json:"budget"`
	Variance int `json:"variance"`
}

// HeadcountMetrics holds headcount and people-cost KPIs.
type HeadcountMetrics struct {
	Period string `json:"period"`

	TotalHCActual    int `json:"total_hc_actual"`
	TotalHCBudget    int `json:"total_hc_budget"`
	TotalHCPriorYear int `json:"total_hc_prior_year"`

	TotalCostActual   float64 `json:"total_cost_actual"`
	TotalCostBudget   float64 `json:"total_cost_budget"`
	CostPerHeadActual float64 `json:"cost_per_head_actual"`
	CostPerHeadBudget float64 `json:"cost_per_head_budget"`

	ByDepartment map[string]DeptHeadcount `json:"by_department"`

	HCTrendPeriods []string `json:"hc_trend_periods"`
	HCTrend        []int    `json:"hc_trend"`
}

// RagDashboard holds the eight headline KPI statuses.
type RagDashboard struct {
	Revenue          RagStatus `json:"revenue"`
	GrossMargin      RagStatus `json:"gross_margin"`
	EBITDAMargin     RagStatus `json:"ebitda_margin"`
	PipelineCoverage RagStatus `json:"pipeline_coverage"`
	WinRate          RagStatus `json:"win_rate"`
	ChurnRate        RagStatus `json:"churn_rate"`
	NPS              RagStatus `json:"nps"`
	Headcount        RagStatus `json:"headcount"`
}

// Package is the complete metrics pack for one reporting period. It is
// built once per run and never mutated afterwards.
type Package struct {
	ReportPeriod string `json:"report_period"`
	CompanyName  string `json:"company_name"`

	Financial  FinancialMetrics  `json:"financial"`
	Commercial CommercialMetrics `json:"commercial"`
	Customers  CustomerMetrics   `json:"customers"`
	Headcount  HeadcountMetrics  `json:"headcount"`
	RAG        RagDashboard      `json:"rag"`
}
