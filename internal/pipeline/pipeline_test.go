package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boardpack/internal/config"
	"github.com/sells-group/boardpack/internal/dataset"
	"github.com/sells-group/boardpack/internal/simulate"
	"github.com/sells-group/boardpack/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Project: config.ProjectConfig{
			CompanyName:          "Meridian Software Group Ltd",
			FiscalYearStartMonth: 1,
		},
		Paths: config.PathsConfig{
			RawDataDir:     filepath.Join(dir, "raw"),
			OutputDir:      filepath.Join(dir, "out"),
			FinancialsFile: filepath.Join(dir, "raw", "financials.csv"),
			PipelineFile:   filepath.Join(dir, "raw", "pipeline.csv"),
			HeadcountFile:  filepath.Join(dir, "raw", "headcount.csv"),
			CustomersFile:  filepath.Join(dir, "raw", "customers.csv"),
		},
		RAG: config.RAGConfig{Thresholds: map[string]config.Band{
			"revenue":           {Green: -0.02, Amber: -0.08},
			"gross_margin":      {Green: 0.62, Amber: 0.55},
			"ebitda_margin":     {Green: 0.12, Amber: 0.06},
			"pipeline_coverage": {Green: 3.0, Amber: 2.0},
			"win_rate":          {Green: 0.22, Amber: 0.16},
			"churn_rate":        {Green: 0.015, Amber: 0.022},
			"nps":               {Green: 35, Amber: 20},
			"headcount":         {Green: 0.05, Amber: 0.12},
		}},
		Report: config.ReportConfig{Brand: config.BrandConfig{
			Primary: "1B3A5C", Secondary: "7A94AD", Accent: "C8A95B",
			Light: "F4F7FA", Green: "2E8B57", Amber: "D98E04", Red: "B02E2E",
		}},
		Distribution: config.DistributionConfig{
			EmailSubject: "Board Report {period}",
		},
	}
}

func writeFixtureDatasets(t *testing.T, cfg *config.Config) {
	t.Helper()
	sim := config.SimulationConfig{
		Seed:                    7,
		MonthsHistory:           24,
		AnnualRevenueBudget:     24_000_000,
		AnnualRevenueGrowthRate: 0.14,
		RevenueMix:              map[string]float64{"SaaS Subscriptions": 1.0},
		COGSRates:               map[string]float64{"SaaS Subscriptions": 0.22},
		OpexBudgetPct:           map[string]float64{"Engineering": 0.22, "Sales & Marketing": 0.2},
		Seasonality:             []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		WeeklyNewPipelineBudget: 1_400_000,
		PipelineWinRateBudget:   0.24,
		AvgDealSizeBudget:       65_000,
		HeadcountBudget:         map[string]int{"Engineering": 58, "Sales & Marketing": 32},
		AvgSalaryByDept:         map[string]float64{"Engineering": 78_000, "Sales & Marketing": 62_000},
		StartingARR:             18_500_000,
		MonthlyChurnRateBudget:  0.012,
		MonthlyNewARRBudget:     420_000,
		NPSTarget:               42,
	}
	anchor := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	tables := simulate.New(sim, anchor).Build()

	require.NoError(t, dataset.WriteFinancials(cfg.Paths.FinancialsFile, tables.Financials))
	require.NoError(t, dataset.WritePipeline(cfg.Paths.PipelineFile, tables.Pipeline))
	require.NoError(t, dataset.WriteHeadcount(cfg.Paths.HeadcountFile, tables.Headcount))
	require.NoError(t, dataset.WriteCustomers(cfg.Paths.CustomersFile, tables.Customers))
}

func testStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), config.StoreConfig{
		Driver:      "sqlite",
		DatabaseURL: filepath.Join(t.TempDir(), "runs.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunProducesAllArtefacts(t *testing.T) {
	cfg := testConfig(t)
	writeFixtureDatasets(t, cfg)
	st := testStore(t)

	outcome, err := New(cfg, st).Run(context.Background(), Options{Trigger: "manual"})
	require.NoError(t, err)

	assert.Equal(t, "2025-08", outcome.Period)
	for _, path := range []string{outcome.PDFPath, outcome.ExcelPath, outcome.DashboardURL} {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Positive(t, info.Size())
	}
	assert.Contains(t, outcome.PDFPath, "board_report_2025-08.pdf")
	assert.Contains(t, outcome.ExcelPath, "board_data_pack_2025-08.xlsx")
	assert.Contains(t, outcome.DashboardURL, "dashboard_2025-08.html")
}

func TestRunRecordsHistory(t *testing.T) {
	cfg := testConfig(t)
	writeFixtureDatasets(t, cfg)
	st := testStore(t)

	outcome, err := New(cfg, st).Run(context.Background(), Options{Trigger: "scheduler"})
	require.NoError(t, err)
	require.NotEmpty(t, outcome.RunID)

	run, err := st.GetRun(context.Background(), outcome.RunID)
	require.NoError(t, err)
	assert.Equal(t, store.RunStatusComplete, run.Status)
	assert.Equal(t, "scheduler", run.Trigger)
	assert.Equal(t, "2025-08", run.Period)
	require.NotNil(t, run.Summary)
	assert.Equal(t, outcome.PDFPath, run.Summary.Outputs.PDFPath)
	assert.Equal(t, 8,
		run.Summary.KPIs.GreenCount+run.Summary.KPIs.AmberCount+run.Summary.KPIs.RedCount)
}

func TestRunWithDistributionDryRun(t *testing.T) {
	cfg := testConfig(t)
	writeFixtureDatasets(t, cfg)

	outcome, err := New(cfg, nil).Run(context.Background(), Options{Distribute: true})
	require.NoError(t, err)
	require.NotNil(t, outcome.Distribution)
	assert.True(t, outcome.Distribution.EmailDryRun)
	assert.True(t, outcome.Distribution.SlackDryRun)
	assert.True(t, outcome.Distribution.NotionDryRun)
}

func TestRunMissingDatasetFails(t *testing.T) {
	cfg := testConfig(t)
	// No datasets written.
	_, err := New(cfg, nil).Run(context.Background(), Options{})
	require.Error(t, err)
	var missing *dataset.MissingError
	assert.ErrorAs(t, err, &missing)
}

func TestRunWithoutStoreHasNoRunID(t *testing.T) {
	cfg := testConfig(t)
	writeFixtureDatasets(t, cfg)

	outcome, err := New(cfg, nil).Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Empty(t, outcome.RunID)
}
