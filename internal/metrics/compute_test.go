package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boardpack/internal/config"
	"github.com/sells-group/boardpack/internal/dataset"
	"github.com/sells-group/boardpack/internal/simulate"
)

func computeFixture(t *testing.T) (*dataset.Tables, config.ProjectConfig, config.RAGConfig) {
	t.Helper()
	sim := config.SimulationConfig{
		Seed:                    42,
		MonthsHistory:           24,
		AnnualRevenueBudget:     24_000_000,
		AnnualRevenueGrowthRate: 0.14,
		RevenueMix:              map[string]float64{"SaaS Subscriptions": 1.0},
		COGSRates:               map[string]float64{"SaaS Subscriptions": 0.22},
		OpexBudgetPct:           map[string]float64{"Engineering": 0.22, "General & Admin": 0.11},
		Seasonality:             []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		WeeklyNewPipelineBudget: 1_400_000,
		PipelineWinRateBudget:   0.24,
		AvgDealSizeBudget:       65_000,
		HeadcountBudget:         map[string]int{"Engineering": 58, "General & Admin": 14},
		AvgSalaryByDept:         map[string]float64{"Engineering": 78_000, "General & Admin": 54_000},
		StartingARR:             18_500_000,
		MonthlyChurnRateBudget:  0.012,
		MonthlyNewARRBudget:     420_000,
		NPSTarget:               42,
	}
	anchor := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	tables := simulate.New(sim, anchor).Build()
	project := config.ProjectConfig{CompanyName: "Meridian Software Group Ltd", FiscalYearStartMonth: 1}
	return tables, project, testRAGConfig()
}

func TestComputePackage(t *testing.T) {
	tables, project, rag := computeFixture(t)
	pkg, err := Compute(tables, project, rag)
	require.NoError(t, err)

	assert.Equal(t, "2025-08", pkg.ReportPeriod)
	assert.Equal(t, pkg.Financial.Period, pkg.ReportPeriod)
	assert.Equal(t, "Meridian Software Group Ltd", pkg.CompanyName)

	assert.Positive(t, pkg.Financial.RevenueActual)
	assert.Positive(t, pkg.Customers.ARRActual)
	assert.Positive(t, pkg.Headcount.TotalHCBudget)
	assert.Positive(t, pkg.Commercial.PipelineCoverageRatio)
	assert.GreaterOrEqual(t, pkg.Financial.EBITDAMarginPctActual, -0.5)
	assert.LessOrEqual(t, pkg.Financial.EBITDAMarginPctActual, 0.5)
}

func TestComputeValidStatuses(t *testing.T) {
	tables, project, rag := computeFixture(t)
	pkg, err := Compute(tables, project, rag)
	require.NoError(t, err)

	valid := map[string]bool{StatusGreen: true, StatusAmber: true, StatusRed: true}
	for name, s := range map[string]RagStatus{
		"revenue":           pkg.RAG.Revenue,
		"gross_margin":      pkg.RAG.GrossMargin,
		"ebitda_margin":     pkg.RAG.EBITDAMargin,
		"pipeline_coverage": pkg.RAG.PipelineCoverage,
		"win_rate":          pkg.RAG.WinRate,
		"churn_rate":        pkg.RAG.ChurnRate,
		"nps":               pkg.RAG.NPS,
		"headcount":         pkg.RAG.Headcount,
	} {
		assert.True(t, valid[s.Status], "RAG %s has status %q", name, s.Status)
	}
}

func TestComputeIdempotent(t *testing.T) {
	tables, project, rag := computeFixture(t)
	a, err := Compute(tables, project, rag)
	require.NoError(t, err)
	b, err := Compute(tables, project, rag)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComputeTrendLengthsCapped(t *testing.T) {
	tables, project, rag := computeFixture(t)
	pkg, err := Compute(tables, project, rag)
	require.NoError(t, err)

	assert.Len(t, pkg.Financial.MonthlyPeriods, 12)
	assert.Len(t, pkg.Financial.MonthlyRevenue, 12)
	assert.Len(t, pkg.Commercial.PipelineTrend, 12)
	assert.Len(t, pkg.Customers.ARRTrend, 12)
	assert.Len(t, pkg.Headcount.HCTrend, 12)
}

func TestComputePropagatesCalculatorFailure(t *testing.T) {
	tables, project, rag := computeFixture(t)
	tables.Pipeline = nil
	_, err := Compute(tables, project, rag)
	require.Error(t, err)
}
