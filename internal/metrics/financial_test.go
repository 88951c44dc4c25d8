package metrics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boardpack/internal/dataset"
)

func finRow(period, lineType, name string, budget, actual, prior float64) dataset.FinancialRow {
	y, m, _ := parsePeriod(period)
	return dataset.FinancialRow{
		Period: period, Year: y, Month: m,
		LineType: lineType, LineName: name,
		BudgetGBP: budget, ActualGBP: actual, PriorYearGBP: prior,
	}
}

func TestComputeFinancialSinglePeriod(t *testing.T) {
	rows := []dataset.FinancialRow{
		finRow("2025-07", "Revenue", "SaaS", 100_000, 100_000, 90_000),
		finRow("2025-07", "COGS", "COGS — SaaS", 40_000, 40_000, 36_000),
		finRow("2025-07", "OpEx", "Engineering", 50_000, 50_000, 45_000),
	}
	m, err := ComputeFinancial(rows, 1)
	require.NoError(t, err)

	assert.Equal(t, "2025-07", m.Period)
	assert.InDelta(t, 60_000, m.GrossProfitActual, 0.001)
	assert.InDelta(t, 0.6, m.GrossMarginPctActual, 1e-9)
	assert.InDelta(t, 10_000, m.EBITDAActual, 0.001)
	assert.InDelta(t, 0.1, m.EBITDAMarginPctActual, 1e-9)

	// Gross margin 0.6 against an absolute green cutoff of 0.62 is Amber.
	rag := ragAbsolute(m.GrossMarginPctActual, 0.62, 0.55, m.GrossMarginPctBudget)
	assert.Equal(t, StatusAmber, rag.Status)
}

func TestComputeFinancialZeroRevenue(t *testing.T) {
	rows := []dataset.FinancialRow{
		finRow("2025-07", "COGS", "COGS — SaaS", 40_000, 40_000, 0),
		finRow("2025-07", "OpEx", "Engineering", 50_000, 50_000, 0),
	}
	m, err := ComputeFinancial(rows, 1)
	require.NoError(t, err)
	assert.Zero(t, m.GrossMarginPctActual)
	assert.Zero(t, m.EBITDAMarginPctActual)
	assert.InDelta(t, -90_000, m.EBITDAActual, 0.001)
}

func TestComputeFinancialEmpty(t *testing.T) {
	_, err := ComputeFinancial(nil, 1)
	require.Error(t, err)
}

func TestComputeFinancialLatestPeriodWins(t *testing.T) {
	rows := []dataset.FinancialRow{
		finRow("2025-06", "Revenue", "SaaS", 1, 1, 1),
		finRow("2025-07", "Revenue", "SaaS", 200, 210, 180),
	}
	m, err := ComputeFinancial(rows, 1)
	require.NoError(t, err)
	assert.Equal(t, "2025-07", m.Period)
	assert.InDelta(t, 210, m.RevenueActual, 0.001)
}

func TestComputeFinancialCalendarYTD(t *testing.T) {
	rows := []dataset.FinancialRow{
		finRow("2024-12", "Revenue", "SaaS", 100, 100, 0),
		finRow("2025-01", "Revenue", "SaaS", 100, 110, 0),
		finRow("2025-02", "Revenue", "SaaS", 100, 120, 0),
	}
	m, err := ComputeFinancial(rows, 1)
	require.NoError(t, err)
	// December of the prior calendar year is outside the window.
	assert.InDelta(t, 230, m.YTDRevenueActual, 0.001)
	assert.InDelta(t, 200, m.YTDRevenueBudget, 0.001)
}

func TestComputeFinancialFiscalYTDCrossesCalendarYear(t *testing.T) {
	// Fiscal year starts in April; a February period belongs to the
	// fiscal year that began the previous April.
	rows := []dataset.FinancialRow{
		finRow("2023-03", "Revenue", "SaaS", 100, 100, 0), // prior fiscal year
		finRow("2023-04", "Revenue", "SaaS", 100, 100, 0),
		finRow("2023-12", "Revenue", "SaaS", 100, 100, 0),
		finRow("2024-01", "Revenue", "SaaS", 100, 100, 0),
		finRow("2024-02", "Revenue", "SaaS", 100, 100, 0),
	}
	m, err := ComputeFinancial(rows, 4)
	require.NoError(t, err)
	assert.Equal(t, "2024-02", m.Period)
	assert.InDelta(t, 400, m.YTDRevenueActual, 0.001) // 2023-04 .. 2024-02
}

func TestComputeFinancialFiscalYTDAfterStartMonth(t *testing.T) {
	rows := []dataset.FinancialRow{
		finRow("2024-03", "Revenue", "SaaS", 100, 100, 0), // prior fiscal year
		finRow("2024-04", "Revenue", "SaaS", 100, 100, 0),
		finRow("2024-05", "Revenue", "SaaS", 100, 100, 0),
	}
	m, err := ComputeFinancial(rows, 4)
	require.NoError(t, err)
	assert.InDelta(t, 200, m.YTDRevenueActual, 0.001)
}

func TestComputeFinancialYTDEbitdaFromWindowSums(t *testing.T) {
	rows := []dataset.FinancialRow{
		finRow("2025-01", "Revenue", "SaaS", 100, 100, 0),
		finRow("2025-01", "COGS", "c", 30, 30, 0),
		finRow("2025-01", "OpEx", "o", 50, 50, 0),
		finRow("2025-02", "Revenue", "SaaS", 100, 100, 0),
		finRow("2025-02", "COGS", "c", 30, 30, 0),
		finRow("2025-02", "OpEx", "o", 50, 50, 0),
	}
	m, err := ComputeFinancial(rows, 1)
	require.NoError(t, err)
	assert.InDelta(t, 40, m.YTDEBITDAActual, 0.001)
	assert.InDelta(t, 40, m.YTDEBITDABudget, 0.001)
}

func TestComputeFinancialTrend(t *testing.T) {
	var rows []dataset.FinancialRow
	for m := 1; m <= 12; m++ {
		p := fmt.Sprintf("2024-%02d", m)
		rows = append(rows, finRow(p, "Revenue", "SaaS", 100, float64(100+m), 0))
		rows = append(rows, finRow(p, "COGS", "c", 40, 40, 0))
	}
	for m := 1; m <= 3; m++ {
		p := fmt.Sprintf("2025-%02d", m)
		rows = append(rows, finRow(p, "Revenue", "SaaS", 100, float64(200+m), 0))
		rows = append(rows, finRow(p, "COGS", "c", 40, 40, 0))
	}

	m, err := ComputeFinancial(rows, 1)
	require.NoError(t, err)

	require.Len(t, m.MonthlyPeriods, 12)
	assert.Equal(t, "2024-04", m.MonthlyPeriods[0])
	assert.Equal(t, "2025-03", m.MonthlyPeriods[11])
	for i := 1; i < len(m.MonthlyPeriods); i++ {
		assert.Greater(t, m.MonthlyPeriods[i], m.MonthlyPeriods[i-1])
	}
	assert.InDelta(t, 203, m.MonthlyRevenue[11], 0.001)
	// Gross margin trend is in percent points.
	assert.InDelta(t, (203.0-40)/203*100, m.MonthlyGrossMargin[11], 0.01)
}

func TestComputeFinancialShortHistoryTrend(t *testing.T) {
	rows := []dataset.FinancialRow{
		finRow("2025-06", "Revenue", "SaaS", 100, 100, 0),
		finRow("2025-07", "Revenue", "SaaS", 100, 100, 0),
	}
	m, err := ComputeFinancial(rows, 1)
	require.NoError(t, err)
	assert.Len(t, m.MonthlyPeriods, 2)
	assert.Len(t, m.MonthlyRevenue, 2)
}
