package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boardpack/internal/dataset"
)

func hcRow(period, dept string, actual, budget, prior int, costActual, costBudget float64) dataset.HeadcountRow {
	y, m, _ := parsePeriod(period)
	return dataset.HeadcountRow{
		Period: period, Year: y, Month: m, Department: dept,
		HeadcountActual: actual, HeadcountBudget: budget, HeadcountPriorYear: prior,
		CostActualGBP: costActual, CostBudgetGBP: costBudget,
	}
}

func TestComputeHeadcountTotalsAndBreakdown(t *testing.T) {
	rows := []dataset.HeadcountRow{
		hcRow("2025-07", "Engineering", 10, 8, 7, 65_000, 52_000),
		hcRow("2025-07", "Sales", 5, 6, 5, 26_000, 31_000),
	}
	m, err := ComputeHeadcount(rows)
	require.NoError(t, err)

	assert.Equal(t, 15, m.TotalHCActual)
	assert.Equal(t, 14, m.TotalHCBudget)
	assert.InDelta(t, 91_000.0/15, m.CostPerHeadActual, 0.01)

	require.Len(t, m.ByDepartment, 2)
	assert.Equal(t, DeptHeadcount{Actual: 10, Budget: 8, Variance: 2}, m.ByDepartment["Engineering"])
	assert.Equal(t, DeptHeadcount{Actual: 5, Budget: 6, Variance: -1}, m.ByDepartment["Sales"])
}

func TestComputeHeadcountPriorYearFromOldestRows(t *testing.T) {
	rows := []dataset.HeadcountRow{
		hcRow("2023-08", "Engineering", 9, 9, 50, 1, 1),
		hcRow("2023-08", "Sales", 4, 4, 30, 1, 1),
		hcRow("2025-07", "Engineering", 12, 11, 99, 1, 1),
	}
	m, err := ComputeHeadcount(rows)
	require.NoError(t, err)
	assert.Equal(t, 80, m.TotalHCPriorYear)
}

func TestComputeHeadcountZeroHeads(t *testing.T) {
	rows := []dataset.HeadcountRow{
		hcRow("2025-07", "Engineering", 0, 0, 0, 10_000, 10_000),
	}
	m, err := ComputeHeadcount(rows)
	require.NoError(t, err)
	assert.Zero(t, m.CostPerHeadActual)
	assert.Zero(t, m.CostPerHeadBudget)
}

func TestComputeHeadcountDuplicateDeptLastWriteWins(t *testing.T) {
	rows := []dataset.HeadcountRow{
		hcRow("2025-07", "Engineering", 10, 8, 0, 1, 1),
		hcRow("2025-07", "Engineering", 12, 11, 0, 1, 1),
	}
	m, err := ComputeHeadcount(rows)
	require.NoError(t, err)
	// Breakdown keeps the later row; totals count both.
	assert.Equal(t, DeptHeadcount{Actual: 12, Budget: 11, Variance: 1}, m.ByDepartment["Engineering"])
	assert.Equal(t, 22, m.TotalHCActual)
}

func TestComputeHeadcountTrend(t *testing.T) {
	rows := []dataset.HeadcountRow{
		hcRow("2025-05", "Engineering", 10, 10, 0, 1, 1),
		hcRow("2025-06", "Engineering", 11, 10, 0, 1, 1),
		hcRow("2025-07", "Engineering", 12, 10, 0, 1, 1),
		hcRow("2025-07", "Sales", 5, 5, 0, 1, 1),
	}
	m, err := ComputeHeadcount(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-05", "2025-06", "2025-07"}, m.HCTrendPeriods)
	assert.Equal(t, []int{10, 11, 17}, m.HCTrend)
}

func TestComputeHeadcountEmpty(t *testing.T) {
	_, err := ComputeHeadcount(nil)
	require.Error(t, err)
}
