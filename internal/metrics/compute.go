package metrics

import (
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/boardpack/internal/config"
	"github.com/sells-group/boardpack/internal/dataset"
)

// Compute assembles the full metrics package from the loaded tables. The
// Financial, Customer and Headcount calculators share no state and run
// concurrently; Commercial follows Financial because coverage needs the
// current month's revenue budget.
func Compute(tables *dataset.Tables, project config.ProjectConfig, rag config.RAGConfig) (*Package, error) {
	var (
		fin  FinancialMetrics
		cust CustomerMetrics
		hc   HeadcountMetrics
	)

	var g errgroup.Group
	g.Go(func() (err error) {
		fin, err = ComputeFinancial(tables.Financials, project.FiscalYearStartMonth)
		return err
	})
	g.Go(func() (err error) {
		cust, err = ComputeCustomers(tables.Customers)
		return err
	})
	g.Go(func() (err error) {
		hc, err = ComputeHeadcount(tables.Headcount)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	comm, err := ComputeCommercial(tables.Pipeline, fin.RevenueBudget)
	if err != nil {
		return nil, err
	}

	dash, err := BuildDashboard(fin, comm, cust, hc, rag)
	if err != nil {
		return nil, err
	}

	return &Package{
		ReportPeriod: fin.Period,
		CompanyName:  project.CompanyName,
		Financial:    fin,
		Commercial:   comm,
		Customers:    cust,
		Headcount:    hc,
		RAG:          dash,
	}, nil
}
