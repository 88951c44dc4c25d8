package metrics

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/boardpack/internal/dataset"
)

// PipelineStages is the canonical funnel order for the stage breakdown.
var PipelineStages = []string{"Prospecting", "Qualified", "Proposal Sent", "Negotiation"}

const weekStartLayout = "2006-01-02"

// ComputeCommercial derives the pipeline KPIs over the trailing four-week
// window ending at the latest snapshot week. revenueBudget is the current
// month's revenue budget from the financial calculator; coverage benchmarks
// the window's pipeline against three months of it.
func ComputeCommercial(rows []dataset.PipelineRow, revenueBudget float64) (CommercialMetrics, error) {
	if len(rows) == 0 {
		return CommercialMetrics{}, eris.New("metrics: pipeline dataset has no rows")
	}

	weeks := make([]string, len(rows))
	for i, r := range rows {
		weeks[i] = r.WeekStart
	}
	latest := maxPeriod(weeks)
	latestDate, err := time.Parse(weekStartLayout, latest)
	if err != nil {
		return CommercialMetrics{}, eris.Wrapf(err, "metrics: parse week_start %q", latest)
	}
	windowStart := latestDate.AddDate(0, 0, -21).Format(weekStartLayout)

	var (
		totalPipe, totalBudget   float64
		totalDeals               int
		winRateSum, winBudgetSum float64
		windowRows               int
	)
	byStage := make(map[string]float64, len(PipelineStages))
	for _, r := range rows {
		if r.WeekStart < windowStart || r.WeekStart > latest {
			continue
		}
		totalPipe += r.PipelineValueGBP
		totalBudget += r.BudgetPipelineGBP
		totalDeals += r.DealCount
		winRateSum += r.WinRateActual
		winBudgetSum += r.WinRateBudget
		byStage[r.Stage] += r.PipelineValueGBP
		windowRows++
	}

	var avgDeal float64
	if totalDeals > 0 {
		avgDeal = totalPipe / float64(totalDeals)
	}
	var winRate, winBudget float64
	if windowRows > 0 {
		winRate = winRateSum / float64(windowRows)
		winBudget = winBudgetSum / float64(windowRows)
	}
	coverage := ratio(totalPipe, revenueBudget*3)

	m := CommercialMetrics{
		Period:                latest,
		TotalPipelineGBP:      round2(totalPipe),
		PipelineBudgetGBP:     round2(totalBudget),
		PipelineCoverageRatio: round2(coverage),
		WinRateActual:         round4(winRate),
		WinRateBudget:         round4(winBudget),
		AvgDealSizeGBP:        round2(avgDeal),
		NewPipeline4WGBP:      round2(totalPipe),
	}

	// Stage breakdown in funnel order, then any unrecognized stages in
	// name order so nothing in the window is dropped.
	emitted := make(map[string]bool, len(byStage))
	for _, stage := range PipelineStages {
		if v, ok := byStage[stage]; ok {
			m.PipelineByStage = append(m.PipelineByStage, StageValue{Stage: stage, ValueGBP: round2(v)})
			emitted[stage] = true
		}
	}
	for _, stage := range distinctSorted(stageNames(byStage)) {
		if !emitted[stage] {
			m.PipelineByStage = append(m.PipelineByStage, StageValue{Stage: stage, ValueGBP: round2(byStage[stage])})
		}
	}

	trendWeeks := lastN(distinctSorted(weeks), 12)
	for _, w := range trendWeeks {
		var total float64
		for _, r := range rows {
			if r.WeekStart == w {
				total += r.PipelineValueGBP
			}
		}
		m.PipelineTrendPeriods = append(m.PipelineTrendPeriods, w)
		m.PipelineTrend = append(m.PipelineTrend, round2(total))
	}
	return m, nil
}

func stageNames(byStage map[string]float64) []string {
	names := make([]string, 0, len(byStage))
	for s := range byStage {
		names = append(names, s)
	}
	return names
}
