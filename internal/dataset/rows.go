// Package dataset loads the four raw reporting tables from CSV into typed
// row records, validating shape at the boundary so the KPI calculators can
// assume clean input.
package dataset

// Dataset names, used in error messages and config lookups.
const (
	NameFinancials = "financials"
	NamePipeline   = "pipeline"
	NameHeadcount  = "headcount"
	NameCustomers  = "customers"
)

// FinancialRow is one month x one P&L line.
type FinancialRow struct {
	Period       string  `json:"period"`
	Year         int     `json:"year"`
	Month        int     `json:"month"`
	LineType     string  `json:"line_type"`
	LineName     string  `json:"line_name"`
	BudgetGBP    float64 `json:"budget_gbp"`
	ActualGBP    float64 `json:"actual_gbp"`
	PriorYearGBP float64 `json:"prior_year_gbp"`
}

// PipelineRow is one weekly snapshot x one pipeline stage.
type PipelineRow struct {
	WeekStart         string  `json:"week_start"`
	Stage             string  `json:"stage"`
	PipelineValueGBP  float64 `json:"pipeline_value_gbp"`
	BudgetPipelineGBP float64 `json:"budget_pipeline_gbp"`
	DealCount         int     `json:"deal_count"`
	WinRateActual     float64 `json:"win_rate_actual"`
	WinRateBudget     float64 `json:"win_rate_budget"`
}

// HeadcountRow is one month x one department.
type HeadcountRow struct {
	Period             string  `json:"period"`
	Year               int     `json:"year"`
	Month              int     `json:"month"`
	Department         string  `json:"department"`
	HeadcountBudget    int     `json:"headcount_budget"`
	HeadcountActual    int     `json:"headcount_actual"`
	HeadcountPriorYear int     `json:"headcount_prior_year"`
	CostBudgetGBP      float64 `json:"cost_budget_gbp"`
	CostActualGBP      float64 `json:"cost_actual_gbp"`
}

// CustomerRow is one month of ARR, churn, and NPS figures.
type CustomerRow struct {
	Period           string  `json:"period"`
	Year             int     `json:"year"`
	Month            int     `json:"month"`
	ARRGBP           float64 `json:"arr_gbp"`
	ARRBudgetGBP     float64 `json:"arr_budget_gbp"`
	NewARRGBP        float64 `json:"new_arr_gbp"`
	ChurnedARRGBP    float64 `json:"churned_arr_gbp"`
	ChurnRateActual  float64 `json:"churn_rate_actual"`
	ChurnRateBudget  float64 `json:"churn_rate_budget"`
	NPSActual        int     `json:"nps_actual"`
	NPSBudget        int     `json:"nps_budget"`
	NewCustomers     int     `json:"new_customers"`
	ChurnedCustomers int     `json:"churned_customers"`
}

// Tables holds all four loaded datasets for one pipeline run.
type Tables struct {
	Financials []FinancialRow
	Pipeline   []PipelineRow
	Headcount  []HeadcountRow
	Customers  []CustomerRow
}
