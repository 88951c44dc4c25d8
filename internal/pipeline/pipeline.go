// Package pipeline orchestrates one end-to-end report run: load datasets,
// compute metrics, generate narrative, render the three artefacts,
// optionally distribute, and record the run in the store.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/boardpack/internal/config"
	"github.com/sells-group/boardpack/internal/dashboard"
	"github.com/sells-group/boardpack/internal/dataset"
	"github.com/sells-group/boardpack/internal/distribute"
	"github.com/sells-group/boardpack/internal/excelpack"
	"github.com/sells-group/boardpack/internal/metrics"
	"github.com/sells-group/boardpack/internal/narrative"
	"github.com/sells-group/boardpack/internal/pdfreport"
	"github.com/sells-group/boardpack/internal/store"
)

// Options controls optional pipeline stages.
type Options struct {
	// Distribute sends the finished pack over the configured channels.
	Distribute bool
	// Trigger labels the run in history ("manual", "scheduler", "api").
	Trigger string
}

// Outcome summarises a completed run.
type Outcome struct {
	RunID        string             `json:"run_id"`
	Period       string             `json:"period"`
	PDFPath      string             `json:"pdf_path"`
	ExcelPath    string             `json:"excel_path"`
	DashboardURL string             `json:"dashboard_path"`
	Distribution *distribute.Result `json:"distribution,omitempty"`
	Duration     time.Duration      `json:"duration"`
}

// Pipeline runs report generation end to end.
type Pipeline struct {
	cfg   *config.Config
	store store.Store
	dist  *distribute.Distributor
}

// New creates a Pipeline. The store may be nil, in which case run history
// is not recorded.
func New(cfg *config.Config, st store.Store) *Pipeline {
	return &Pipeline{cfg: cfg, store: st, dist: distribute.New(cfg)}
}

// Run executes the full pipeline and returns the artefact paths.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Outcome, error) {
	start := time.Now()
	log := zap.L().With(zap.String("trigger", opts.Trigger))
	log.Info("pipeline: starting report run")

	tables, err := dataset.Load(p.cfg.Paths)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load datasets")
	}

	pkg, err := metrics.Compute(tables, p.cfg.Project, p.cfg.RAG)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: compute metrics")
	}
	log.Info("pipeline: metrics computed", zap.String("period", pkg.ReportPeriod))

	runID, err := p.recordStart(ctx, pkg.ReportPeriod, opts.Trigger)
	if err != nil {
		return nil, err
	}

	outcome, err := p.buildArtefacts(ctx, pkg, tables, opts)
	if err != nil {
		p.recordFailure(ctx, runID, err)
		return nil, err
	}
	outcome.RunID = runID
	outcome.Period = pkg.ReportPeriod
	outcome.Duration = time.Since(start)

	p.recordSuccess(ctx, runID, pkg, outcome)
	log.Info("pipeline: report run complete",
		zap.String("period", pkg.ReportPeriod),
		zap.Duration("duration", outcome.Duration),
	)
	return outcome, nil
}

func (p *Pipeline) buildArtefacts(ctx context.Context, pkg *metrics.Package, tables *dataset.Tables, opts Options) (*Outcome, error) {
	story, err := narrative.Generate(pkg, p.cfg.Paths.TemplatesDir)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: generate narrative")
	}

	outcome := &Outcome{}

	// The Excel pack and dashboard only need the metrics; the PDF also
	// needs the narrative. All three are independent of each other.
	var g errgroup.Group
	g.Go(func() error {
		path, err := excelpack.Generate(pkg, tables, p.cfg)
		outcome.ExcelPath = path
		return err
	})
	g.Go(func() error {
		path, err := pdfreport.Generate(pkg, story, p.cfg)
		outcome.PDFPath = path
		return err
	})
	g.Go(func() error {
		path, err := dashboard.Generate(pkg, p.cfg)
		outcome.DashboardURL = path
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: render artefacts")
	}

	if opts.Distribute {
		res, err := p.dist.Send(ctx, pkg, outcome.PDFPath, outcome.ExcelPath)
		outcome.Distribution = &res
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: distribute")
		}
	}
	return outcome, nil
}

func (p *Pipeline) recordStart(ctx context.Context, period, trigger string) (string, error) {
	if p.store == nil {
		return "", nil
	}
	run, err := p.store.CreateRun(ctx, period, trigger)
	if err != nil {
		return "", eris.Wrap(err, "pipeline: create run record")
	}
	return run.ID, nil
}

func (p *Pipeline) recordFailure(ctx context.Context, runID string, runErr error) {
	if p.store == nil || runID == "" {
		return
	}
	if err := p.store.FailRun(ctx, runID, runErr); err != nil {
		zap.L().Warn("pipeline: failed to record run failure", zap.Error(err))
	}
}

func (p *Pipeline) recordSuccess(ctx context.Context, runID string, pkg *metrics.Package, outcome *Outcome) {
	if p.store == nil || runID == "" {
		return
	}
	summary := &store.RunSummary{
		Outputs: store.RunOutputs{
			PDFPath:       outcome.PDFPath,
			ExcelPath:     outcome.ExcelPath,
			DashboardPath: outcome.DashboardURL,
		},
		KPIs: headlineKPIs(pkg),
	}
	if err := p.store.CompleteRun(ctx, runID, summary); err != nil {
		zap.L().Warn("pipeline: failed to record run completion", zap.Error(err))
	}
}

func headlineKPIs(pkg *metrics.Package) store.HeadlineKPIs {
	kpis := store.HeadlineKPIs{
		RevenueActual:   pkg.Financial.RevenueActual,
		RevenueStatus:   pkg.RAG.Revenue.Status,
		EBITDAMarginPct: pkg.Financial.EBITDAMarginPctActual,
		ARRActual:       pkg.Customers.ARRActual,
		ChurnStatus:     pkg.RAG.ChurnRate.Status,
	}
	for _, band := range []metrics.RagStatus{
		pkg.RAG.Revenue, pkg.RAG.GrossMargin, pkg.RAG.EBITDAMargin,
		pkg.RAG.PipelineCoverage, pkg.RAG.WinRate, pkg.RAG.ChurnRate,
		pkg.RAG.NPS, pkg.RAG.Headcount,
	} {
		switch band.Status {
		case metrics.StatusGreen:
			kpis.GreenCount++
		case metrics.StatusAmber:
			kpis.AmberCount++
		case metrics.StatusRed:
			kpis.RedCount++
		}
	}
	return kpis
}
