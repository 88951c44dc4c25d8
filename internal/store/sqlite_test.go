package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boardpack/internal/config"
)

func testSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleSummary() *RunSummary {
	return &RunSummary{
		Outputs: RunOutputs{
			PDFPath:       "out/board_report_2025-08.pdf",
			ExcelPath:     "out/board_data_pack_2025-08.xlsx",
			DashboardPath: "out/dashboard_2025-08.html",
		},
		KPIs: HeadlineKPIs{
			RevenueActual: 2_450_000, RevenueStatus: "Green",
			EBITDAMarginPct: 0.1551, ARRActual: 29_400_000,
			ChurnStatus: "Green", GreenCount: 7, AmberCount: 1,
		},
	}
}

func TestSQLiteRunLifecycle(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "2025-08", "scheduler")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Equal(t, "scheduler", run.Trigger)

	require.NoError(t, s.CompleteRun(ctx, run.ID, sampleSummary()))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusComplete, got.Status)
	require.NotNil(t, got.Summary)
	assert.Equal(t, "out/board_report_2025-08.pdf", got.Summary.Outputs.PDFPath)
	assert.Equal(t, 7, got.Summary.KPIs.GreenCount)
}

func TestSQLiteFailRun(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "2025-08", "")
	require.NoError(t, err)
	assert.Equal(t, "manual", run.Trigger)

	require.NoError(t, s.FailRun(ctx, run.ID, assert.AnError))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, assert.AnError.Error(), got.Error)
	assert.Nil(t, got.Summary)
}

func TestSQLiteUpdateMissingRun(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()

	err := s.CompleteRun(ctx, "no-such-run", sampleSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	err = s.FailRun(ctx, "no-such-run", assert.AnError)
	require.Error(t, err)

	_, err = s.GetRun(ctx, "no-such-run")
	require.Error(t, err)
}

func TestSQLiteListRunsFilters(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()

	a, err := s.CreateRun(ctx, "2025-07", "manual")
	require.NoError(t, err)
	b, err := s.CreateRun(ctx, "2025-08", "scheduler")
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(ctx, b.ID, sampleSummary()))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	complete, err := s.ListRuns(ctx, RunFilter{Status: RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, b.ID, complete[0].ID)

	july, err := s.ListRuns(ctx, RunFilter{Period: "2025-07"})
	require.NoError(t, err)
	require.Len(t, july, 1)
	assert.Equal(t, a.ID, july[0].ID)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestOpenSQLiteDriver(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, config.StoreConfig{
		Driver:      "sqlite",
		DatabaseURL: filepath.Join(t.TempDir(), "runs.db"),
	})
	require.NoError(t, err)
	defer s.Close()

	run, err := s.CreateRun(ctx, "2025-08", "manual")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}
