// Package excelpack builds the six-sheet Excel data pack that accompanies
// the board PDF: a styled KPI summary plus the full P&L, pipeline, customer
// and headcount tables with derived variance columns, and a data dictionary.
package excelpack

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/boardpack/internal/config"
	"github.com/sells-group/boardpack/internal/dataset"
	"github.com/sells-group/boardpack/internal/metrics"
)

// Generate writes the data pack to the configured output directory and
// returns its path.
func Generate(pkg *metrics.Package, tables *dataset.Tables, cfg *config.Config) (string, error) {
	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		return "", eris.Wrap(err, "excelpack: create output dir")
	}
	path := filepath.Join(cfg.Paths.OutputDir,
		fmt.Sprintf("board_data_pack_%s.xlsx", pkg.ReportPeriod))

	f := xlsx.NewFile()
	brand := cfg.Report.Brand

	builders := []struct {
		name  string
		build func(*xlsx.Sheet) error
	}{
		{"Summary", func(s *xlsx.Sheet) error { return summarySheet(s, pkg, brand) }},
		{"P&L", func(s *xlsx.Sheet) error { return plSheet(s, tables.Financials, brand) }},
		{"Pipeline", func(s *xlsx.Sheet) error { return pipelineSheet(s, tables.Pipeline, brand) }},
		{"Customers", func(s *xlsx.Sheet) error { return customersSheet(s, tables.Customers, brand) }},
		{"Headcount", func(s *xlsx.Sheet) error { return headcountSheet(s, tables.Headcount, brand) }},
		{"Data Dictionary", func(s *xlsx.Sheet) error { return dataDictSheet(s, brand) }},
	}
	for _, b := range builders {
		sheet, err := f.AddSheet(b.name)
		if err != nil {
			return "", eris.Wrapf(err, "excelpack: add sheet %s", b.name)
		}
		if err := b.build(sheet); err != nil {
			return "", eris.Wrapf(err, "excelpack: build sheet %s", b.name)
		}
		zap.L().Debug("built sheet", zap.String("sheet", b.name))
	}

	if err := f.Save(path); err != nil {
		return "", eris.Wrapf(err, "excelpack: save %s", path)
	}
	zap.L().Info("excel data pack written", zap.String("path", path))
	return path, nil
}

func addHeaderRow(sheet *xlsx.Sheet, brand config.BrandConfig, headers ...string) {
	row := sheet.AddRow()
	row.SetHeight(20)
	style := headerStyle(brand)
	for _, h := range headers {
		cell := row.AddCell()
		cell.SetString(h)
		cell.SetStyle(style)
	}
}

func addStrCell(row *xlsx.Row, style *xlsx.Style, v string) {
	c := row.AddCell()
	c.SetString(v)
	c.SetStyle(style)
}

func addMoneyCell(row *xlsx.Row, style *xlsx.Style, v float64) {
	c := row.AddCell()
	c.SetFloatWithFormat(v, "#,##0")
	c.SetStyle(style)
}

func addPctCell(row *xlsx.Row, style *xlsx.Style, v float64) {
	c := row.AddCell()
	c.SetFloatWithFormat(v, "0.0%")
	c.SetStyle(style)
}

func addIntCell(row *xlsx.Row, style *xlsx.Style, v int) {
	c := row.AddCell()
	c.SetInt(v)
	c.SetStyle(style)
}

// varPct is actual/base - 1 with a zero guard, so an absent budget renders
// as 0% rather than infinity.
func varPct(actual, base float64) float64 {
	if base == 0 {
		return 0
	}
	return actual/base - 1
}

func summarySheet(sheet *xlsx.Sheet, pkg *metrics.Package, brand config.BrandConfig) error {
	fin, comm, cust, hc, rag := pkg.Financial, pkg.Commercial, pkg.Customers, pkg.Headcount, pkg.RAG

	title := sheet.AddRow()
	title.SetHeight(30)
	tc := title.AddCell()
	tc.SetString(fmt.Sprintf("%s — Board Report KPI Dashboard", pkg.CompanyName))
	tc.SetStyle(titleStyle(brand))
	tc.Merge(3, 0)

	sub := sheet.AddRow()
	sc := sub.AddCell()
	sc.SetString(fmt.Sprintf("Period: %s  |  Generated: %s",
		pkg.ReportPeriod, time.Now().Format("2006-01-02 15:04")))
	sc.Merge(3, 0)
	sheet.AddRow()

	ytdStatus := "Amber"
	if fin.YTDRevenueActual >= fin.YTDRevenueBudget*0.95 {
		ytdStatus = "Green"
	}

	type kpiRow struct {
		metric, actual, budget, status string
	}
	sections := []struct {
		title string
		rows  []kpiRow
	}{
		{"FINANCIAL PERFORMANCE", []kpiRow{
			{"Revenue", fmt.Sprintf("£%.2fM", fin.RevenueActual/1e6),
				fmt.Sprintf("£%.2fM", fin.RevenueBudget/1e6), rag.Revenue.Status},
			{"Gross Margin %", fmt.Sprintf("%.1f%%", fin.GrossMarginPctActual*100),
				fmt.Sprintf("%.1f%%", fin.GrossMarginPctBudget*100), rag.GrossMargin.Status},
			{"EBITDA", fmt.Sprintf("£%.0fk", fin.EBITDAActual/1000),
				fmt.Sprintf("£%.0fk", fin.EBITDABudget/1000), rag.EBITDAMargin.Status},
			{"EBITDA Margin %", fmt.Sprintf("%.1f%%", fin.EBITDAMarginPctActual*100),
				fmt.Sprintf("%.1f%%", fin.EBITDAMarginPctBudget*100), rag.EBITDAMargin.Status},
			{"YTD Revenue", fmt.Sprintf("£%.2fM", fin.YTDRevenueActual/1e6),
				fmt.Sprintf("£%.2fM", fin.YTDRevenueBudget/1e6), ytdStatus},
		}},
		{"COMMERCIAL PERFORMANCE", []kpiRow{
			{"Pipeline Coverage", fmt.Sprintf("%.1fx", comm.PipelineCoverageRatio),
				"3.0x", rag.PipelineCoverage.Status},
			{"Win Rate", fmt.Sprintf("%.1f%%", comm.WinRateActual*100),
				fmt.Sprintf("%.1f%%", comm.WinRateBudget*100), rag.WinRate.Status},
			{"Total Pipeline", fmt.Sprintf("£%.1fM", comm.TotalPipelineGBP/1e6),
				fmt.Sprintf("£%.1fM", comm.PipelineBudgetGBP/1e6), "Green"},
		}},
		{"CUSTOMER METRICS", []kpiRow{
			{"ARR", fmt.Sprintf("£%.2fM", cust.ARRActual/1e6),
				fmt.Sprintf("£%.2fM", cust.ARRBudget/1e6), "Green"},
			{"Monthly Churn Rate", fmt.Sprintf("%.2f%%", cust.ChurnRateActual*100),
				fmt.Sprintf("%.2f%%", cust.ChurnRateBudget*100), rag.ChurnRate.Status},
			{"NPS", fmt.Sprintf("%d", cust.NPSActual), fmt.Sprintf("%d", cust.NPSBudget), rag.NPS.Status},
		}},
		{"PEOPLE & OPERATIONS", []kpiRow{
			{"Total Headcount", fmt.Sprintf("%d", hc.TotalHCActual),
				fmt.Sprintf("%d", hc.TotalHCBudget), rag.Headcount.Status},
			{"Monthly People Cost", fmt.Sprintf("£%.0fk", hc.TotalCostActual/1000),
				fmt.Sprintf("£%.0fk", hc.TotalCostBudget/1000), "Green"},
			{"Cost Per Head (monthly)", fmt.Sprintf("£%.0f", hc.CostPerHeadActual),
				fmt.Sprintf("£%.0f", hc.CostPerHeadBudget), "Green"},
		}},
	}

	body := bodyStyle()
	sub2 := subHeaderStyle(brand)
	for _, sec := range sections {
		row := sheet.AddRow()
		row.SetHeight(18)
		c := row.AddCell()
		c.SetString(sec.title)
		c.SetStyle(sectionStyle(brand))
		c.Merge(3, 0)

		hdr := sheet.AddRow()
		for _, h := range []string{"Metric", "Actual", "Budget", "RAG"} {
			addStrCell(hdr, sub2, h)
		}
		for _, kr := range sec.rows {
			row := sheet.AddRow()
			addStrCell(row, body, kr.metric)
			addStrCell(row, body, kr.actual)
			addStrCell(row, body, kr.budget)
			addStrCell(row, ragStyle(brand, kr.status), kr.status)
		}
		sheet.AddRow()
	}

	sheet.SetColWidth(0, 3, 28)
	return nil
}

func plSheet(sheet *xlsx.Sheet, rows []dataset.FinancialRow, brand config.BrandConfig) error {
	addHeaderRow(sheet, brand, "Period", "Type", "Line",
		"Actual (£)", "Budget (£)", "Variance (£)", "Variance %",
		"Prior Year (£)", "YoY Growth %")

	body := bodyStyle()
	for _, r := range rows {
		row := sheet.AddRow()
		addStrCell(row, body, r.Period)
		addStrCell(row, body, r.LineType)
		addStrCell(row, body, r.LineName)
		addMoneyCell(row, body, r.ActualGBP)
		addMoneyCell(row, body, r.BudgetGBP)
		addMoneyCell(row, body, r.ActualGBP-r.BudgetGBP)
		addPctCell(row, body, varPct(r.ActualGBP, r.BudgetGBP))
		addMoneyCell(row, body, r.PriorYearGBP)
		addPctCell(row, body, varPct(r.ActualGBP, r.PriorYearGBP))
	}
	sheet.SetColWidth(0, 8, 16)
	sheet.SetColWidth(2, 2, 28)
	return nil
}

func pipelineSheet(sheet *xlsx.Sheet, rows []dataset.PipelineRow, brand config.BrandConfig) error {
	addHeaderRow(sheet, brand, "Week Start", "Stage", "Pipeline (£)",
		"Budget Pipeline (£)", "Variance (£)", "Deals", "Win Rate", "Win Rate Budget")

	body := bodyStyle()
	for _, r := range rows {
		row := sheet.AddRow()
		addStrCell(row, body, r.WeekStart)
		addStrCell(row, body, r.Stage)
		addMoneyCell(row, body, r.PipelineValueGBP)
		addMoneyCell(row, body, r.BudgetPipelineGBP)
		addMoneyCell(row, body, r.PipelineValueGBP-r.BudgetPipelineGBP)
		addIntCell(row, body, r.DealCount)
		addPctCell(row, body, r.WinRateActual)
		addPctCell(row, body, r.WinRateBudget)
	}
	sheet.SetColWidth(0, 7, 18)
	return nil
}

func customersSheet(sheet *xlsx.Sheet, rows []dataset.CustomerRow, brand config.BrandConfig) error {
	addHeaderRow(sheet, brand, "Period", "ARR (£)", "ARR Budget (£)",
		"New ARR (£)", "Churned ARR (£)", "Net ARR (£)", "ARR vs Budget %",
		"Churn Rate", "Churn Budget", "NPS", "NPS Budget", "New Customers", "Churned Customers")

	body := bodyStyle()
	for _, r := range rows {
		row := sheet.AddRow()
		addStrCell(row, body, r.Period)
		addMoneyCell(row, body, r.ARRGBP)
		addMoneyCell(row, body, r.ARRBudgetGBP)
		addMoneyCell(row, body, r.NewARRGBP)
		addMoneyCell(row, body, r.ChurnedARRGBP)
		addMoneyCell(row, body, r.NewARRGBP-r.ChurnedARRGBP)
		addPctCell(row, body, varPct(r.ARRGBP, r.ARRBudgetGBP))
		addPctCell(row, body, r.ChurnRateActual)
		addPctCell(row, body, r.ChurnRateBudget)
		addIntCell(row, body, r.NPSActual)
		addIntCell(row, body, r.NPSBudget)
		addIntCell(row, body, r.NewCustomers)
		addIntCell(row, body, r.ChurnedCustomers)
	}
	sheet.SetColWidth(0, 12, 16)
	return nil
}

func headcountSheet(sheet *xlsx.Sheet, rows []dataset.HeadcountRow, brand config.BrandConfig) error {
	addHeaderRow(sheet, brand, "Period", "Department", "HC Budget", "HC Actual",
		"HC Variance", "HC Prior Year", "Cost Budget (£)", "Cost Actual (£)", "Cost Variance (£)")

	body := bodyStyle()
	for _, r := range rows {
		row := sheet.AddRow()
		addStrCell(row, body, r.Period)
		addStrCell(row, body, r.Department)
		addIntCell(row, body, r.HeadcountBudget)
		addIntCell(row, body, r.HeadcountActual)
		addIntCell(row, body, r.HeadcountActual-r.HeadcountBudget)
		addIntCell(row, body, r.HeadcountPriorYear)
		addMoneyCell(row, body, r.CostBudgetGBP)
		addMoneyCell(row, body, r.CostActualGBP)
		addMoneyCell(row, body, r.CostActualGBP-r.CostBudgetGBP)
	}
	sheet.SetColWidth(0, 8, 18)
	return nil
}

func dataDictSheet(sheet *xlsx.Sheet, brand config.BrandConfig) error {
	addHeaderRow(sheet, brand, "Sheet", "Column", "Description", "Format")

	defs := [][4]string{
		{"P&L", "Actual (£)", "Invoiced/recorded amount for the period", "£ integer"},
		{"P&L", "Budget (£)", "Board-approved budget for the period", "£ integer"},
		{"P&L", "Variance (£)", "Actual minus Budget; positive = favourable for Revenue, negative for costs", "£ integer"},
		{"P&L", "Variance %", "Variance as % of Budget", "Percentage"},
		{"P&L", "Prior Year (£)", "Same period prior year actuals", "£ integer"},
		{"P&L", "YoY Growth %", "Actual vs Prior Year growth rate", "Percentage"},
		{"Pipeline", "Pipeline (£)", "Total pipeline value in stage for the week", "£ integer"},
		{"Pipeline", "Win Rate", "Estimated win rate for opportunities in this stage", "Decimal"},
		{"Customers", "ARR (£)", "Annual Recurring Revenue at period end", "£ integer"},
		{"Customers", "Churn Rate", "Monthly churn rate (churned ARR / opening ARR)", "Decimal"},
		{"Customers", "NPS", "Net Promoter Score (-100 to +100)", "Integer"},
		{"Headcount", "HC Actual", "FTEs on payroll at period end", "Integer"},
		{"Headcount", "Cost Actual (£)", "Total payroll cost for the period", "£ integer"},
	}
	body := bodyStyle()
	for _, d := range defs {
		row := sheet.AddRow()
		for _, v := range d {
			addStrCell(row, body, v)
		}
	}
	sheet.SetColWidth(0, 0, 12)
	sheet.SetColWidth(1, 1, 30)
	sheet.SetColWidth(2, 2, 65)
	sheet.SetColWidth(3, 3, 18)
	return nil
}
