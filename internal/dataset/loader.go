package dataset

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boardpack/internal/config"
)

// Load reads all four datasets from the configured paths.
// Either every table loads, or Load fails before any KPI computation:
// missing files surface as *MissingError, shape problems as *MalformedError.
func Load(paths config.PathsConfig) (*Tables, error) {
	files := map[string]string{
		NameFinancials: paths.FinancialsFile,
		NamePipeline:   paths.PipelineFile,
		NameHeadcount:  paths.HeadcountFile,
		NameCustomers:  paths.CustomersFile,
	}
	for _, name := range []string{NameFinancials, NamePipeline, NameHeadcount, NameCustomers} {
		if _, err := os.Stat(files[name]); err != nil {
			return nil, &MissingError{Dataset: name, Path: files[name]}
		}
	}

	var t Tables
	var err error
	if t.Financials, err = LoadFinancials(paths.FinancialsFile); err != nil {
		return nil, err
	}
	if t.Pipeline, err = LoadPipeline(paths.PipelineFile); err != nil {
		return nil, err
	}
	if t.Headcount, err = LoadHeadcount(paths.HeadcountFile); err != nil {
		return nil, err
	}
	if t.Customers, err = LoadCustomers(paths.CustomersFile); err != nil {
		return nil, err
	}

	zap.L().Debug("datasets loaded",
		zap.Int("financial_rows", len(t.Financials)),
		zap.Int("pipeline_rows", len(t.Pipeline)),
		zap.Int("headcount_rows", len(t.Headcount)),
		zap.Int("customer_rows", len(t.Customers)),
	)
	return &t, nil
}

// table is a parsed CSV with a header index, the unit every row decoder
// works from.
type table struct {
	dataset string
	cols    map[string]int
	rows    [][]string
}

func readTable(dataset, path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingError{Dataset: dataset, Path: path}
		}
		return nil, eris.Wrapf(err, "dataset: open %s", dataset)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", dataset)
	}
	if len(records) < 2 {
		return nil, &MalformedError{Dataset: dataset, Column: "", Detail: "no data rows"}
	}

	cols := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		cols[strings.TrimSpace(col)] = i
	}
	return &table{dataset: dataset, cols: cols, rows: records[1:]}, nil
}

func (t *table) require(columns ...string) error {
	for _, col := range columns {
		if _, ok := t.cols[col]; !ok {
			return &MalformedError{Dataset: t.dataset, Column: col, Detail: "required column absent"}
		}
	}
	return nil
}

func (t *table) str(row []string, col string) string {
	idx, ok := t.cols[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (t *table) float(row []string, rowNum int, col string) (float64, error) {
	raw := t.str(row, col)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &MalformedError{Dataset: t.dataset, Column: col, Row: rowNum,
			Detail: "not a number: " + raw}
	}
	return v, nil
}

func (t *table) int(row []string, rowNum int, col string) (int, error) {
	raw := t.str(row, col)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &MalformedError{Dataset: t.dataset, Column: col, Row: rowNum,
			Detail: "not an integer: " + raw}
	}
	return v, nil
}

// LoadFinancials reads the monthly P&L line-item table.
func LoadFinancials(path string) ([]FinancialRow, error) {
	t, err := readTable(NameFinancials, path)
	if err != nil {
		return nil, err
	}
	if err := t.require("period", "year", "month", "line_type", "line_name",
		"budget_gbp", "actual_gbp", "prior_year_gbp"); err != nil {
		return nil, err
	}

	rows := make([]FinancialRow, 0, len(t.rows))
	for i, raw := range t.rows {
		n := i + 1
		var r FinancialRow
		r.Period = t.str(raw, "period")
		r.LineType = t.str(raw, "line_type")
		r.LineName = t.str(raw, "line_name")
		if r.Year, err = t.int(raw, n, "year"); err != nil {
			return nil, err
		}
		if r.Month, err = t.int(raw, n, "month"); err != nil {
			return nil, err
		}
		if r.BudgetGBP, err = t.float(raw, n, "budget_gbp"); err != nil {
			return nil, err
		}
		if r.ActualGBP, err = t.float(raw, n, "actual_gbp"); err != nil {
			return nil, err
		}
		if r.PriorYearGBP, err = t.float(raw, n, "prior_year_gbp"); err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// LoadPipeline reads the weekly pipeline snapshot table.
func LoadPipeline(path string) ([]PipelineRow, error) {
	t, err := readTable(NamePipeline, path)
	if err != nil {
		return nil, err
	}
	if err := t.require("week_start", "stage", "pipeline_value_gbp",
		"budget_pipeline_gbp", "deal_count", "win_rate_actual", "win_rate_budget"); err != nil {
		return nil, err
	}

	rows := make([]PipelineRow, 0, len(t.rows))
	for i, raw := range t.rows {
		n := i + 1
		var r PipelineRow
		r.WeekStart = t.str(raw, "week_start")
		r.Stage = t.str(raw, "stage")
		if r.PipelineValueGBP, err = t.float(raw, n, "pipeline_value_gbp"); err != nil {
			return nil, err
		}
		if r.BudgetPipelineGBP, err = t.float(raw, n, "budget_pipeline_gbp"); err != nil {
			return nil, err
		}
		if r.DealCount, err = t.int(raw, n, "deal_count"); err != nil {
			return nil, err
		}
		if r.WinRateActual, err = t.float(raw, n, "win_rate_actual"); err != nil {
			return nil, err
		}
		if r.WinRateBudget, err = t.float(raw, n, "win_rate_budget"); err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// LoadHeadcount reads the monthly headcount-by-department table.
func LoadHeadcount(path string) ([]HeadcountRow, error) {
	t, err := readTable(NameHeadcount, path)
	if err != nil {
		return nil, err
	}
	if err := t.require("period", "department", "headcount_budget", "headcount_actual",
		"headcount_prior_year", "cost_budget_gbp", "cost_actual_gbp"); err != nil {
		return nil, err
	}

	rows := make([]HeadcountRow, 0, len(t.rows))
	for i, raw := range t.rows {
		n := i + 1
		var r HeadcountRow
		r.Period = t.str(raw, "period")
		r.Department = t.str(raw, "department")
		if r.Year, err = t.int(raw, n, "year"); err != nil {
			return nil, err
		}
		if r.Month, err = t.int(raw, n, "month"); err != nil {
			return nil, err
		}
		if r.HeadcountBudget, err = t.int(raw, n, "headcount_budget"); err != nil {
			return nil, err
		}
		if r.HeadcountActual, err = t.int(raw, n, "headcount_actual"); err != nil {
			return nil, err
		}
		if r.HeadcountPriorYear, err = t.int(raw, n, "headcount_prior_year"); err != nil {
			return nil, err
		}
		if r.CostBudgetGBP, err = t.float(raw, n, "cost_budget_gbp"); err != nil {
			return nil, err
		}
		if r.CostActualGBP, err = t.float(raw, n, "cost_actual_gbp"); err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// LoadCustomers reads the monthly customer/ARR table.
func LoadCustomers(path string) ([]CustomerRow, error) {
	t, err := readTable(NameCustomers, path)
	if err != nil {
		return nil, err
	}
	if err := t.require("period", "arr_gbp", "arr_budget_gbp", "new_arr_gbp",
		"churned_arr_gbp", "churn_rate_actual", "churn_rate_budget",
		"nps_actual", "nps_budget", "new_customers", "churned_customers"); err != nil {
		return nil, err
	}

	rows := make([]CustomerRow, 0, len(t.rows))
	for i, raw := range t.rows {
		n := i + 1
		var r CustomerRow
		r.Period = t.str(raw, "period")
		if r.Year, err = t.int(raw, n, "year"); err != nil {
			return nil, err
		}
		if r.Month, err = t.int(raw, n, "month"); err != nil {
			return nil, err
		}
		if r.ARRGBP, err = t.float(raw, n, "arr_gbp"); err != nil {
			return nil, err
		}
		if r.ARRBudgetGBP, err = t.float(raw, n, "arr_budget_gbp"); err != nil {
			return nil, err
		}
		if r.NewARRGBP, err = t.float(raw, n, "new_arr_gbp"); err != nil {
			return nil, err
		}
		if r.ChurnedARRGBP, err = t.float(raw, n, "churned_arr_gbp"); err != nil {
			return nil, err
		}
		if r.ChurnRateActual, err = t.float(raw, n, "churn_rate_actual"); err != nil {
			return nil, err
		}
		if r.ChurnRateBudget, err = t.float(raw, n, "churn_rate_budget"); err != nil {
			return nil, err
		}
		if r.NPSActual, err = t.int(raw, n, "nps_actual"); err != nil {
			return nil, err
		}
		if r.NPSBudget, err = t.int(raw, n, "nps_budget"); err != nil {
			return nil, err
		}
		if r.NewCustomers, err = t.int(raw, n, "new_customers"); err != nil {
			return nil, err
		}
		if r.ChurnedCustomers, err = t.int(raw, n, "churned_customers"); err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	return rows, nil
}
