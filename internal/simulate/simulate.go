// Package simulate generates the four synthetic ERP extracts the reporting
// pipeline consumes: monthly P&L lines, weekly pipeline snapshots, monthly
// headcount by department, and monthly customer metrics. It is a stand-in
// for a real extraction feed, with seasonality, controlled budget variances,
// prior-year comparators, and one injected weak quarter.
package simulate

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boardpack/internal/config"
	"github.com/sells-group/boardpack/internal/dataset"
)

// Stage mix for newly generated weekly pipeline.
var stageMix = []struct {
	Name string
	Pct  float64
}{
	{"Prospecting", 0.28},
	{"Qualified", 0.32},
	{"Proposal Sent", 0.24},
	{"Negotiation", 0.16},
}

const avgContractValue = 28_000

// Generator produces deterministic datasets from a seeded source.
type Generator struct {
	cfg config.SimulationConfig
	now time.Time
}

// New returns a Generator anchored at now (the most recent month generated
// is now's month).
func New(cfg config.SimulationConfig, now time.Time) *Generator {
	return &Generator{cfg: cfg, now: now}
}

// Build generates all four tables in memory. The same seed and anchor time
// always produce identical output.
func (g *Generator) Build() *dataset.Tables {
	rng := rand.New(rand.NewSource(g.cfg.Seed))
	t := &dataset.Tables{}
	t.Financials = g.financials(rng)
	t.Pipeline = g.pipeline(rng)
	t.Headcount = g.headcount(rng)
	t.Customers = g.customers(rng)
	return t
}

// Run generates all four tables and writes them as CSVs to the configured
// paths.
func Run(cfg *config.Config) (*dataset.Tables, error) {
	g := New(cfg.Simulation, time.Now())
	tables := g.Build()

	zap.L().Info("generated datasets",
		zap.Int64("seed", cfg.Simulation.Seed),
		zap.Int("months", cfg.Simulation.MonthsHistory),
		zap.Int("financial_rows", len(tables.Financials)),
		zap.Int("pipeline_rows", len(tables.Pipeline)),
		zap.Int("headcount_rows", len(tables.Headcount)),
		zap.Int("customer_rows", len(tables.Customers)))

	writers := []struct {
		path  string
		write func() error
	}{
		{cfg.Paths.FinancialsFile, func() error { return dataset.WriteFinancials(cfg.Paths.FinancialsFile, tables.Financials) }},
		{cfg.Paths.PipelineFile, func() error { return dataset.WritePipeline(cfg.Paths.PipelineFile, tables.Pipeline) }},
		{cfg.Paths.HeadcountFile, func() error { return dataset.WriteHeadcount(cfg.Paths.HeadcountFile, tables.Headcount) }},
		{cfg.Paths.CustomersFile, func() error { return dataset.WriteCustomers(cfg.Paths.CustomersFile, tables.Customers) }},
	}
	for _, w := range writers {
		if err := w.write(); err != nil {
			return nil, eris.Wrapf(err, "simulate: write %s", w.path)
		}
		zap.L().Debug("wrote dataset", zap.String("path", w.path))
	}
	return tables, nil
}

// months returns the first day of each generated month, oldest first.
func (g *Generator) months() []time.Time {
	n := g.cfg.MonthsHistory
	out := make([]time.Time, n)
	cur := time.Date(g.now.Year(), g.now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := n - 1; i >= 0; i-- {
		out[i] = cur
		cur = cur.AddDate(0, -1, 0)
	}
	return out
}

// sortedKeys gives a stable iteration order over config maps; Go map order
// is random and would break seeded determinism.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

func (g *Generator) seasonal(month time.Month) float64 {
	s := g.cfg.Seasonality
	if len(s) != 12 {
		return 1.0
	}
	return s[int(month)-1]
}

func (g *Generator) financials(rng *rand.Rand) []dataset.FinancialRow {
	sim := g.cfg
	periods := g.months()
	growth := sim.AnnualRevenueGrowthRate

	var rows []dataset.FinancialRow
	for _, p := range periods {
		factor := g.seasonal(p.Month())
		// A soft Q3 in the first generated year gives the commentary
		// something to talk about.
		weakQuarter := p.Year() == periods[0].Year() &&
			(p.Month() == time.July || p.Month() == time.August || p.Month() == time.September)

		for _, line := range sortedKeys(sim.RevenueMix) {
			mix := sim.RevenueMix[line]
			budget := (sim.AnnualRevenueBudget * mix / 12) * factor
			actual := budget * (1 + rng.NormFloat64()*0.045)
			if weakQuarter {
				actual *= 0.91
			}
			pyBudget := budget / (1 + growth)
			prior := pyBudget * (1 + rng.NormFloat64()*0.03)

			rows = append(rows, dataset.FinancialRow{
				Period:       p.Format("2006-01"),
				Year:         p.Year(),
				Month:        int(p.Month()),
				LineType:     "Revenue",
				LineName:     line,
				BudgetGBP:    round2(budget),
				ActualGBP:    round2(math.Max(0, actual)),
				PriorYearGBP: round2(math.Max(0, prior)),
			})

			cogsRate := sim.COGSRates[line]
			cogsBudget := budget * cogsRate
			cogsActual := actual * (cogsRate + rng.NormFloat64()*0.02)
			cogsPrior := prior * (cogsRate + rng.NormFloat64()*0.015)
			rows = append(rows, dataset.FinancialRow{
				Period:       p.Format("2006-01"),
				Year:         p.Year(),
				Month:        int(p.Month()),
				LineType:     "COGS",
				LineName:     "COGS — " + line,
				BudgetGBP:    round2(cogsBudget),
				ActualGBP:    round2(math.Max(0, cogsActual)),
				PriorYearGBP: round2(math.Max(0, cogsPrior)),
			})
		}

		monthlyRevBudget := sim.AnnualRevenueBudget / 12 * factor
		for _, dept := range sortedKeys(sim.OpexBudgetPct) {
			pct := sim.OpexBudgetPct[dept]
			budget := monthlyRevBudget * pct
			actual := budget * (1 + 0.02 + rng.NormFloat64()*0.04)
			prior := budget / (1 + growth*0.5) * (1 + rng.NormFloat64()*0.03)
			rows = append(rows, dataset.FinancialRow{
				Period:       p.Format("2006-01"),
				Year:         p.Year(),
				Month:        int(p.Month()),
				LineType:     "OpEx",
				LineName:     dept,
				BudgetGBP:    round2(budget),
				ActualGBP:    round2(math.Max(0, actual)),
				PriorYearGBP: round2(math.Max(0, prior)),
			})
		}
	}
	return rows
}

func (g *Generator) pipeline(rng *rand.Rand) []dataset.PipelineRow {
	sim := g.cfg
	periods := g.months()
	start := periods[0]
	weeks := sim.MonthsHistory * 4

	var rows []dataset.PipelineRow
	for w := 0; w < weeks; w++ {
		weekStart := start.AddDate(0, 0, 7*w)
		totalNew := sim.WeeklyNewPipelineBudget * (1 + rng.NormFloat64()*0.15)

		for _, stage := range stageMix {
			stageBudget := totalNew * stage.Pct
			stageActual := stageBudget * (1 + rng.NormFloat64()*0.12)
			deals := int(stageActual / sim.AvgDealSizeBudget)
			if deals < 1 {
				deals = 1
			}
			winRate := sim.PipelineWinRateBudget + rng.NormFloat64()*0.04
			winRate = math.Max(0.05, math.Min(0.65, winRate))

			rows = append(rows, dataset.PipelineRow{
				WeekStart:         weekStart.Format("2006-01-02"),
				Stage:             stage.Name,
				PipelineValueGBP:  round2(math.Max(0, stageActual)),
				BudgetPipelineGBP: round2(stageBudget),
				DealCount:         deals,
				WinRateActual:     round4(winRate),
				WinRateBudget:     sim.PipelineWinRateBudget,
			})
		}
	}
	return rows
}

func (g *Generator) headcount(rng *rand.Rand) []dataset.HeadcountRow {
	sim := g.cfg
	periods := g.months()
	depts := sortedKeys(sim.HeadcountBudget)

	var rows []dataset.HeadcountRow
	for _, p := range periods {
		for _, dept := range depts {
			budgetHC := sim.HeadcountBudget[dept]
			// Actuals drift up roughly 8% a year as the org grows.
			growthFactor := 1 + (0.08/12)*float64(len(rows))/float64(len(depts))
			actualHC := int(float64(budgetHC)*growthFactor + rng.NormFloat64())
			if actualHC < 1 {
				actualHC = 1
			}
			priorHC := int(float64(budgetHC)*0.88 + rng.NormFloat64())
			if priorHC < 1 {
				priorHC = 1
			}

			salary, ok := sim.AvgSalaryByDept[dept]
			if !ok {
				salary = 55_000
			}
			monthlySalary := salary / 12
			costBudget := float64(budgetHC) * monthlySalary
			costActual := float64(actualHC) * monthlySalary * (1 + rng.NormFloat64()*0.03)

			rows = append(rows, dataset.HeadcountRow{
				Period:             p.Format("2006-01"),
				Year:               p.Year(),
				Month:              int(p.Month()),
				Department:         dept,
				HeadcountBudget:    budgetHC,
				HeadcountActual:    actualHC,
				HeadcountPriorYear: priorHC,
				CostBudgetGBP:      round2(costBudget),
				CostActualGBP:      round2(math.Max(0, costActual)),
			})
		}
	}
	return rows
}

func (g *Generator) customers(rng *rand.Rand) []dataset.CustomerRow {
	sim := g.cfg
	periods := g.months()

	arr := sim.StartingARR
	arrBudget := sim.StartingARR

	var rows []dataset.CustomerRow
	for _, p := range periods {
		churnRate := math.Max(0.003, sim.MonthlyChurnRateBudget+rng.NormFloat64()*0.004)
		churned := arr * churnRate
		churnedBudget := arrBudget * sim.MonthlyChurnRateBudget

		newARR := sim.MonthlyNewARRBudget * (1 + rng.NormFloat64()*0.12)

		arr = math.Max(0, arr-churned+newARR)
		arrBudget = math.Max(0, arrBudget-churnedBudget+sim.MonthlyNewARRBudget)

		nps := int(float64(sim.NPSTarget) + rng.NormFloat64()*8)
		if nps > 100 {
			nps = 100
		}
		if nps < -100 {
			nps = -100
		}

		newCustomers := int(newARR / avgContractValue)
		if newCustomers < 0 {
			newCustomers = 0
		}
		churnedCustomers := int(churned / avgContractValue)
		if churnedCustomers < 0 {
			churnedCustomers = 0
		}

		rows = append(rows, dataset.CustomerRow{
			Period:           p.Format("2006-01"),
			Year:             p.Year(),
			Month:            int(p.Month()),
			ARRGBP:           round2(arr),
			ARRBudgetGBP:     round2(arrBudget),
			NewARRGBP:        round2(math.Max(0, newARR)),
			ChurnedARRGBP:    round2(math.Max(0, churned)),
			ChurnRateActual:  math.Round(churnRate*100000) / 100000,
			ChurnRateBudget:  sim.MonthlyChurnRateBudget,
			NPSActual:        nps,
			NPSBudget:        sim.NPSTarget,
			NewCustomers:     newCustomers,
			ChurnedCustomers: churnedCustomers,
		})
	}
	return rows
}
