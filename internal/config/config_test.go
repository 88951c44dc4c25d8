package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chtmp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	chtmp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Meridian Software Group Ltd", cfg.Project.CompanyName)
	assert.Equal(t, 1, cfg.Project.FiscalYearStartMonth)
	assert.Equal(t, "data/raw/financials.csv", cfg.Paths.FinancialsFile)
	assert.Equal(t, "data/raw/pipeline.csv", cfg.Paths.PipelineFile)
	assert.Equal(t, "data/raw/headcount.csv", cfg.Paths.HeadcountFile)
	assert.Equal(t, "data/raw/customers.csv", cfg.Paths.CustomersFile)
	assert.Equal(t, int64(42), cfg.Simulation.Seed)
	assert.Equal(t, 24, cfg.Simulation.MonthsHistory)
	assert.Len(t, cfg.Simulation.Seasonality, 12)
	assert.Equal(t, "mon", cfg.Scheduler.RunDayOfWeek)
	assert.Equal(t, "Europe/London", cfg.Scheduler.Timezone)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadRAGThresholdDefaults(t *testing.T) {
	chtmp(t)

	cfg, err := Load()
	require.NoError(t, err)

	require.NoError(t, cfg.RAG.Validate())

	rev, ok := cfg.RAG.Band("revenue")
	require.True(t, ok)
	assert.InDelta(t, -0.02, rev.Green, 1e-9)
	assert.InDelta(t, -0.08, rev.Amber, 1e-9)

	gm, ok := cfg.RAG.Band("gross_margin")
	require.True(t, ok)
	assert.InDelta(t, 0.62, gm.Green, 1e-9)
	assert.InDelta(t, 0.55, gm.Amber, 1e-9)

	nps, ok := cfg.RAG.Band("nps")
	require.True(t, ok)
	assert.InDelta(t, 35, nps.Green, 1e-9)
}

func TestLoadFromYAML(t *testing.T) {
	chtmp(t)

	yaml := `
project:
  company_name: Harbourview Analytics Ltd
  fiscal_year_start_month: 4
rag_thresholds:
  churn_rate:
    green: 0.010
    amber: 0.018
store:
  driver: postgres
  database_url: postgres://localhost/boardpack
log:
  level: debug
  format: console
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Harbourview Analytics Ltd", cfg.Project.CompanyName)
	assert.Equal(t, 4, cfg.Project.FiscalYearStartMonth)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)

	churn, ok := cfg.RAG.Band("churn_rate")
	require.True(t, ok)
	assert.InDelta(t, 0.010, churn.Green, 1e-9)
	assert.InDelta(t, 0.018, churn.Amber, 1e-9)

	// Defaults still apply for bands the file does not override.
	win, ok := cfg.RAG.Band("win_rate")
	require.True(t, ok)
	assert.InDelta(t, 0.22, win.Green, 1e-9)
}

func TestLoadRejectsScalarRAGBand(t *testing.T) {
	chtmp(t)

	dir, _ := os.Getwd()
	yaml := "rag_thresholds:\n  revenue: 0.02\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rag_thresholds.revenue")
}

func TestLoadRejectsBadFiscalMonth(t *testing.T) {
	chtmp(t)

	dir, _ := os.Getwd()
	yaml := "project:\n  fiscal_year_start_month: 13\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fiscal_year_start_month")
}

func TestRAGValidateMissingBand(t *testing.T) {
	ragCfg := RAGConfig{Thresholds: map[string]Band{"revenue": {Green: -0.02, Amber: -0.08}}}
	err := ragCfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gross_margin")
}
