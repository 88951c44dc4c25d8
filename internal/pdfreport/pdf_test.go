package pdfreport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boardpack/internal/config"
	"github.com/sells-group/boardpack/internal/metrics"
	"github.com/sells-group/boardpack/internal/narrative"
)

func fixtureConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Paths: config.PathsConfig{OutputDir: t.TempDir()},
		Report: config.ReportConfig{Brand: config.BrandConfig{
			Primary:   "1B3A5C",
			Secondary: "2E86AB",
			Accent:    "F18F01",
			Light:     "F4F7FA",
			Green:     "2E8540",
			Amber:     "C9862B",
			Red:       "B33A3A",
		}},
	}
}

func fixturePackage() *metrics.Package {
	green := metrics.RagStatus{Status: metrics.StatusGreen}
	return &metrics.Package{
		ReportPeriod: "2025-08",
		CompanyName:  "Meridian Software Group Ltd",
		Financial: metrics.FinancialMetrics{
			Period:                "2025-08",
			RevenueActual:         2_450_000,
			RevenueBudget:         2_400_000,
			GrossProfitActual:     1_560_000,
			GrossMarginPctActual:  0.6367,
			OpexActual:            1_180_000,
			EBITDAActual:          380_000,
			EBITDABudget:          344_000,
			EBITDAMarginPctActual: 0.1551,
			YTDRevenueActual:      11_900_000,
			YTDRevenueBudget:      11_800_000,
			YTDEBITDAActual:       1_700_000,
			YTDEBITDABudget:       1_650_000,
			MonthlyPeriods:        []string{"2025-06", "2025-07", "2025-08"},
			MonthlyRevenue:        []float64{2_300_000, 2_380_000, 2_450_000},
		},
		Commercial: metrics.CommercialMetrics{
			Period:                "2025-08-25",
			TotalPipelineGBP:      22_600_000,
			PipelineCoverageRatio: 3.1,
			WinRateActual:         0.24,
			WinRateBudget:         0.25,
			AvgDealSizeGBP:        28_000,
			PipelineByStage: []metrics.StageValue{
				{Stage: "Prospecting", ValueGBP: 6_300_000},
				{Stage: "Qualified", ValueGBP: 7_200_000},
			},
			PipelineTrendPeriods: []string{"2025-08-18", "2025-08-25"},
			PipelineTrend:        []float64{21_900_000, 22_600_000},
		},
		Customers: metrics.CustomerMetrics{
			Period:          "2025-08",
			ARRActual:       29_400_000,
			ARRBudget:       29_000_000,
			NetARRMovement:  310_000,
			ChurnRateActual: 0.011,
			ChurnRateBudget: 0.012,
			NPSActual:       42,
			NPSBudget:       40,
			NewCustomers:    6,
			ChurnedCustomers: 2,
			ARRTrendPeriods: []string{"2025-07", "2025-08"},
			ARRTrend:        []float64{29_100_000, 29_400_000},
		},
		Headcount: metrics.HeadcountMetrics{
			Period:            "2025-08",
			TotalHCActual:     182,
			TotalHCBudget:     185,
			TotalCostActual:   940_000,
			CostPerHeadActual: 5164,
			ByDepartment: map[string]metrics.DeptHeadcount{
				"Engineering": {Actual: 74, Budget: 76, Variance: -2},
				"Sales":       {Actual: 38, Budget: 37, Variance: 1},
			},
			HCTrendPeriods: []string{"2025-07", "2025-08"},
			HCTrend:        []int{180, 182},
		},
		RAG: metrics.RagDashboard{
			Revenue: green, GrossMargin: green, EBITDAMargin: green,
			PipelineCoverage: green,
			WinRate:          metrics.RagStatus{Status: metrics.StatusAmber},
			ChurnRate:        green, NPS: green, Headcount: green,
		},
	}
}

func fixtureNarrative() *narrative.Package {
	return &narrative.Package{
		Period:                "2025-08",
		CompanyName:           "Meridian Software Group Ltd",
		ExecutiveSummary:      "Revenue finished ahead of budget for the period.",
		FinancialPerformance:  "Gross margin held comfortably above plan.",
		CommercialPerformance: "Pipeline coverage remains above the 3x target.",
		CustomerMetrics:       "ARR grew with churn inside budget.",
		OperationalMetrics:    "Headcount sits marginally under plan.",
		OutlookAndRisks:       "The outlook for the remainder of the year is stable.",
		RiskRegister: []narrative.Risk{
			{Risk: "Enterprise deal slippage", Likelihood: "Medium", Impact: "High",
				Mitigation: "Weekly pipeline reviews with deal-level scrutiny."},
			{Risk: "Engineering attrition", Likelihood: "Low", Impact: "Medium",
				Mitigation: "Retention programme and backfill pipeline."},
		},
	}
}

func TestGenerateWritesPDF(t *testing.T) {
	cfg := fixtureConfig(t)
	path, err := Generate(fixturePackage(), fixtureNarrative(), cfg)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cfg.Paths.OutputDir, "board_report_2025-08.pdf"), path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(2000))

	head := make([]byte, 5)
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.Read(head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(head))
}

func TestGenerateCreatesOutputDir(t *testing.T) {
	cfg := fixtureConfig(t)
	cfg.Paths.OutputDir = filepath.Join(cfg.Paths.OutputDir, "nested", "out")
	_, err := Generate(fixturePackage(), fixtureNarrative(), cfg)
	require.NoError(t, err)
}

func TestParseHex(t *testing.T) {
	c := parseHex("1B3A5C")
	assert.Equal(t, rgb{27, 58, 92}, c)
	assert.Equal(t, rgb{}, parseHex("nope"))
}

func TestShortLabel(t *testing.T) {
	assert.Equal(t, "08", shortLabel("2025-08"))
	assert.Equal(t, "08-25", shortLabel("2025-08-25"))
	assert.Equal(t, "wk3", shortLabel("wk3"))
}
