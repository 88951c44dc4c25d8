// Package store persists pipeline run history: one row per report run with
// its period, status, output artefact paths and headline KPI statuses.
// Two drivers are provided, sqlite for single-host installs and postgres
// for shared deployments.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/boardpack/internal/config"
)

// RunStatus is the lifecycle state of one pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunOutputs records the artefacts one run produced.
type RunOutputs struct {
	PDFPath       string `json:"pdf_path,omitempty"`
	ExcelPath     string `json:"excel_path,omitempty"`
	DashboardPath string `json:"dashboard_path,omitempty"`
}

// HeadlineKPIs is the compact KPI snapshot stored with each completed run.
type HeadlineKPIs struct {
	RevenueActual   float64 `json:"revenue_actual"`
	RevenueStatus   string  `json:"revenue_status"`
	EBITDAMarginPct float64 `json:"ebitda_margin_pct"`
	ARRActual       float64 `json:"arr_actual"`
	ChurnStatus     string  `json:"churn_status"`
	GreenCount      int     `json:"green_count"`
	AmberCount      int     `json:"amber_count"`
	RedCount        int     `json:"red_count"`
}

// RunSummary is written when a run completes successfully.
type RunSummary struct {
	Outputs RunOutputs   `json:"outputs"`
	KPIs    HeadlineKPIs `json:"kpis"`
}

// Run is one row of run history.
type Run struct {
	ID        string      `json:"id"`
	Period    string      `json:"period"`
	Trigger   string      `json:"trigger"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status RunStatus `json:"status,omitempty"`
	Period string    `json:"period,omitempty"`
	Limit  int       `json:"limit,omitempty"`
	Offset int       `json:"offset,omitempty"`
}

// Store is the run-history persistence interface.
type Store interface {
	CreateRun(ctx context.Context, period, trigger string) (*Run, error)
	CompleteRun(ctx context.Context, runID string, summary *RunSummary) error
	FailRun(ctx context.Context, runID string, runErr error) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open builds a Store from configuration and runs migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "sqlite", "":
		s, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
