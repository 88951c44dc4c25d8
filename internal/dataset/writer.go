package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
)

func writeCSV(path string, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "dataset: mkdir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "dataset: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "dataset: write header")
	}
	if err := w.WriteAll(records); err != nil {
		return eris.Wrap(err, "dataset: write rows")
	}
	w.Flush()
	return eris.Wrap(w.Error(), "dataset: flush")
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
func itoa(v int) string     { return strconv.Itoa(v) }

// WriteFinancials writes financial line-item rows as CSV.
func WriteFinancials(path string, rows []FinancialRow) error {
	header := []string{"period", "year", "month", "line_type", "line_name",
		"budget_gbp", "actual_gbp", "prior_year_gbp"}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Period, itoa(r.Year), itoa(r.Month), r.LineType, r.LineName,
			ftoa(r.BudgetGBP), ftoa(r.ActualGBP), ftoa(r.PriorYearGBP),
		})
	}
	return writeCSV(path, header, records)
}

// WritePipeline writes weekly pipeline snapshot rows as CSV.
func WritePipeline(path string, rows []PipelineRow) error {
	header := []string{"week_start", "stage", "pipeline_value_gbp",
		"budget_pipeline_gbp", "deal_count", "win_rate_actual", "win_rate_budget"}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.WeekStart, r.Stage, ftoa(r.PipelineValueGBP), ftoa(r.BudgetPipelineGBP),
			itoa(r.DealCount), ftoa(r.WinRateActual), ftoa(r.WinRateBudget),
		})
	}
	return writeCSV(path, header, records)
}

// WriteHeadcount writes monthly headcount rows as CSV.
func WriteHeadcount(path string, rows []HeadcountRow) error {
	header := []string{"period", "year", "month", "department", "headcount_budget",
		"headcount_actual", "headcount_prior_year", "cost_budget_gbp", "cost_actual_gbp"}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Period, itoa(r.Year), itoa(r.Month), r.Department,
			itoa(r.HeadcountBudget), itoa(r.HeadcountActual), itoa(r.HeadcountPriorYear),
			ftoa(r.CostBudgetGBP), ftoa(r.CostActualGBP),
		})
	}
	return writeCSV(path, header, records)
}

// WriteCustomers writes monthly customer rows as CSV.
func WriteCustomers(path string, rows []CustomerRow) error {
	header := []string{"period", "year", "month", "arr_gbp", "arr_budget_gbp",
		"new_arr_gbp", "churned_arr_gbp", "churn_rate_actual", "churn_rate_budget",
		"nps_actual", "nps_budget", "new_customers", "churned_customers"}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Period, itoa(r.Year), itoa(r.Month), ftoa(r.ARRGBP), ftoa(r.ARRBudgetGBP),
			ftoa(r.NewARRGBP), ftoa(r.ChurnedARRGBP), ftoa(r.ChurnRateActual),
			ftoa(r.ChurnRateBudget), itoa(r.NPSActual), itoa(r.NPSBudget),
			itoa(r.NewCustomers), itoa(r.ChurnedCustomers),
		})
	}
	return writeCSV(path, header, records)
}
