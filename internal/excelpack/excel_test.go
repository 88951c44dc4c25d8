package excelpack

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/boardpack/internal/config"
	"github.com/sells-group/boardpack/internal/dataset"
	"github.com/sells-group/boardpack/internal/metrics"
)

func fixtureConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Paths: config.PathsConfig{OutputDir: t.TempDir()},
		Report: config.ReportConfig{Brand: config.BrandConfig{
			Primary: "1B3A5C", Secondary: "7A94AD", Accent: "C8A95B",
			Light: "F4F7FA", Green: "2E8B57", Amber: "D98E04", Red: "B02E2E",
		}},
	}
}

func fixturePackage() *metrics.Package {
	return &metrics.Package{
		ReportPeriod: "2025-07",
		CompanyName:  "Meridian Software Group Ltd",
		Financial: metrics.FinancialMetrics{
			RevenueActual: 1_960_000, RevenueBudget: 2_000_000,
			GrossMarginPctActual: 0.64, GrossMarginPctBudget: 0.63,
			EBITDAActual: 254_400, EBITDABudget: 280_000,
			EBITDAMarginPctActual: 0.13, EBITDAMarginPctBudget: 0.14,
			YTDRevenueActual: 13_700_000, YTDRevenueBudget: 14_000_000,
		},
		Commercial: metrics.CommercialMetrics{
			TotalPipelineGBP: 17_500_000, PipelineBudgetGBP: 17_000_000,
			PipelineCoverageRatio: 2.9, WinRateActual: 0.25, WinRateBudget: 0.24,
		},
		Customers: metrics.CustomerMetrics{
			ARRActual: 19_500_000, ARRBudget: 19_400_000,
			ChurnRateActual: 0.011, ChurnRateBudget: 0.012,
			NPSActual: 44, NPSBudget: 42,
		},
		Headcount: metrics.HeadcountMetrics{
			TotalHCActual: 148, TotalHCBudget: 146,
			TotalCostActual: 780_000, TotalCostBudget: 760_000,
			CostPerHeadActual: 5_270, CostPerHeadBudget: 5_205,
		},
		RAG: metrics.RagDashboard{
			Revenue:     metrics.RagStatus{Status: "Green"},
			GrossMargin: metrics.RagStatus{Status: "Green"},
			ChurnRate:   metrics.RagStatus{Status: "Green"},
			NPS:         metrics.RagStatus{Status: "Green"},
			Headcount:   metrics.RagStatus{Status: "Amber"},
		},
	}
}

func fixtureTables() *dataset.Tables {
	return &dataset.Tables{
		Financials: []dataset.FinancialRow{
			{Period: "2025-07", LineType: "Revenue", LineName: "SaaS Subscriptions",
				BudgetGBP: 1_000_000, ActualGBP: 980_000, PriorYearGBP: 870_000},
		},
		Pipeline: []dataset.PipelineRow{
			{WeekStart: "2025-07-28", Stage: "Qualified", PipelineValueGBP: 400_000,
				BudgetPipelineGBP: 390_000, DealCount: 6, WinRateActual: 0.25, WinRateBudget: 0.24},
		},
		Headcount: []dataset.HeadcountRow{
			{Period: "2025-07", Department: "Engineering", HeadcountBudget: 58,
				HeadcountActual: 60, HeadcountPriorYear: 52, CostBudgetGBP: 377_000, CostActualGBP: 389_000},
		},
		Customers: []dataset.CustomerRow{
			{Period: "2025-07", ARRGBP: 19_500_000, ARRBudgetGBP: 19_400_000,
				NewARRGBP: 430_000, ChurnedARRGBP: 210_000, ChurnRateActual: 0.011,
				ChurnRateBudget: 0.012, NPSActual: 44, NPSBudget: 42},
		},
	}
}

func TestGenerateWorkbook(t *testing.T) {
	cfg := fixtureConfig(t)
	path, err := Generate(fixturePackage(), fixtureTables(), cfg)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cfg.Paths.OutputDir, "board_data_pack_2025-07.xlsx"), path)

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	var names []string
	for _, s := range f.Sheets {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Summary", "P&L", "Pipeline", "Customers",
		"Headcount", "Data Dictionary"}, names)
}

func TestGeneratePLVarianceColumns(t *testing.T) {
	cfg := fixtureConfig(t)
	path, err := Generate(fixturePackage(), fixtureTables(), cfg)
	require.NoError(t, err)

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	pl := f.Sheet["P&L"]
	require.NotNil(t, pl)
	require.GreaterOrEqual(t, len(pl.Rows), 2)

	dataRow := pl.Rows[1]
	variance, err := dataRow.Cells[5].Float()
	require.NoError(t, err)
	assert.InDelta(t, -20_000, variance, 0.01)
}

func TestGenerateSummaryTitle(t *testing.T) {
	cfg := fixtureConfig(t)
	path, err := Generate(fixturePackage(), fixtureTables(), cfg)
	require.NoError(t, err)

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sum := f.Sheet["Summary"]
	require.NotNil(t, sum)
	assert.Contains(t, sum.Rows[0].Cells[0].String(), "Board Report KPI Dashboard")
}
