package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boardpack/internal/config"
)

func TestRagHigherIsBetter(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		budget float64
		want   string
	}{
		{"above budget", 1020, 1000, StatusGreen},
		{"within green band", 985, 1000, StatusGreen},
		{"exact green boundary inclusive", 980, 1000, StatusGreen},
		{"green boundary with float noise", 9.8, 10, StatusGreen},
		{"amber band", 950, 1000, StatusAmber},
		{"exact amber boundary inclusive", 920, 1000, StatusAmber},
		{"below amber threshold", 900, 1000, StatusRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ragHigherIsBetter(tt.value, tt.budget, -0.02, -0.08)
			assert.Equal(t, tt.want, got.Status)
		})
	}
}

func TestRagHigherIsBetterVariances(t *testing.T) {
	got := ragHigherIsBetter(1100, 1000, -0.02, -0.08)
	assert.InDelta(t, 100, got.VarianceAbs, 0.01)
	assert.InDelta(t, 0.10, got.VariancePct, 0.001)

	boundary := ragHigherIsBetter(980, 1000, -0.02, -0.08)
	assert.InDelta(t, -20, boundary.VarianceAbs, 0.001)
	assert.InDelta(t, -0.02, boundary.VariancePct, 1e-9)
}

func TestRagHigherIsBetterZeroBudget(t *testing.T) {
	got := ragHigherIsBetter(100, 0, -0.02, -0.08)
	assert.Zero(t, got.VariancePct)
	assert.Equal(t, StatusGreen, got.Status) // 0 >= -0.02
}

func TestRagAbsolute(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		green float64
		amber float64
		want  string
	}{
		{"above green cutoff", 0.65, 0.62, 0.55, StatusGreen},
		{"at green cutoff", 0.62, 0.62, 0.55, StatusGreen},
		{"between cutoffs", 0.58, 0.62, 0.55, StatusAmber},
		{"below amber cutoff", 0.50, 0.62, 0.55, StatusRed},
		{"nps comfortably green", 45, 35, 20, StatusGreen},
		{"nps below amber", 15, 35, 20, StatusRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ragAbsolute(tt.value, tt.green, tt.amber, 0)
			assert.Equal(t, tt.want, got.Status)
			assert.Zero(t, got.VariancePct)
		})
	}
}

func TestRagAbsoluteBudgetIsDisplayOnly(t *testing.T) {
	// Value beats the cutoffs even though it badly misses budget.
	got := ragAbsolute(0.65, 0.62, 0.55, 0.80)
	assert.Equal(t, StatusGreen, got.Status)
	assert.InDelta(t, -0.15, got.VarianceAbs, 0.001)
	assert.InDelta(t, 0.65/0.80-1, got.VariancePct, 0.0001)
}

func TestRagLowerIsBetter(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{"below green cutoff", 0.010, StatusGreen},
		{"at green cutoff", 0.015, StatusGreen},
		{"between cutoffs", 0.018, StatusAmber},
		{"above amber cutoff", 0.025, StatusRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ragLowerIsBetter(tt.value, 0.015, 0.022, 0.012)
			assert.Equal(t, tt.want, got.Status)
		})
	}
}

func TestRagLowerIsBetterVariancePrecision(t *testing.T) {
	got := ragLowerIsBetter(0.01234, 0.015, 0.022, 0.012)
	assert.InDelta(t, 0.00034, got.VarianceAbs, 1e-9)
}

func testRAGConfig() config.RAGConfig {
	return config.RAGConfig{Thresholds: map[string]config.Band{
		"revenue":           {Green: -0.02, Amber: -0.08},
		"gross_margin":      {Green: 0.62, Amber: 0.55},
		"ebitda_margin":     {Green: 0.12, Amber: 0.06},
		"pipeline_coverage": {Green: 3.0, Amber: 2.0},
		"win_rate":          {Green: 0.22, Amber: 0.16},
		"churn_rate":        {Green: 0.015, Amber: 0.022},
		"nps":               {Green: 35, Amber: 20},
		"headcount":         {Green: 0.05, Amber: 0.12},
	}}
}

func TestBuildDashboardHeadcountNegatesThresholds(t *testing.T) {
	fin := FinancialMetrics{RevenueActual: 1000, RevenueBudget: 1000,
		GrossMarginPctActual: 0.63, EBITDAMarginPctActual: 0.13}
	comm := CommercialMetrics{PipelineCoverageRatio: 3.1, WinRateActual: 0.25}
	cust := CustomerMetrics{ChurnRateActual: 0.01, ChurnRateBudget: 0.012, NPSActual: 40}

	// 4% under a plan of 100 heads: inside the 5% green allowance.
	hc := HeadcountMetrics{TotalHCActual: 96, TotalHCBudget: 100}
	dash, err := BuildDashboard(fin, comm, cust, hc, testRAGConfig())
	require.NoError(t, err)
	assert.Equal(t, StatusGreen, dash.Headcount.Status)

	// 10% under: past green, inside the 12% amber allowance.
	hc.TotalHCActual = 90
	dash, err = BuildDashboard(fin, comm, cust, hc, testRAGConfig())
	require.NoError(t, err)
	assert.Equal(t, StatusAmber, dash.Headcount.Status)

	// 15% under: Red.
	hc.TotalHCActual = 85
	dash, err = BuildDashboard(fin, comm, cust, hc, testRAGConfig())
	require.NoError(t, err)
	assert.Equal(t, StatusRed, dash.Headcount.Status)
}

func TestBuildDashboardMissingBand(t *testing.T) {
	cfg := testRAGConfig()
	delete(cfg.Thresholds, "nps")
	_, err := BuildDashboard(FinancialMetrics{}, CommercialMetrics{}, CustomerMetrics{}, HeadcountMetrics{}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nps")
}
