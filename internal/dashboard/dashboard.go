// Package dashboard renders a self-contained interactive HTML dashboard
// mirroring the PDF report: a RAG-coded KPI banner over a grid of Plotly
// charts. The page only needs a browser; Plotly loads from its CDN.
package dashboard

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boardpack/internal/config"
	"github.com/sells-group/boardpack/internal/metrics"
)

//go:embed template.html
var pageTemplate string

type tile struct {
	Label  string
	Value  string
	Status string
	Colour string
}

type chart struct {
	ID         string
	TracesJSON template.JS
	LayoutJSON template.JS
}

type page struct {
	CompanyName string
	Period      string
	GeneratedAt string
	Brand       config.BrandConfig
	Tiles       []tile
	Charts      []chart
}

// Generate writes dashboard_{period}.html to the configured output
// directory and returns its path.
func Generate(pkg *metrics.Package, cfg *config.Config) (string, error) {
	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		return "", eris.Wrap(err, "dashboard: create output dir")
	}
	path := filepath.Join(cfg.Paths.OutputDir,
		fmt.Sprintf("dashboard_%s.html", pkg.ReportPeriod))

	tmpl, err := template.New("dashboard").Parse(pageTemplate)
	if err != nil {
		return "", eris.Wrap(err, "dashboard: parse template")
	}

	brand := cfg.Report.Brand
	charts, err := buildCharts(pkg, brand)
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrapf(err, "dashboard: create %s", path)
	}
	defer f.Close()

	data := page{
		CompanyName: pkg.CompanyName,
		Period:      pkg.ReportPeriod,
		GeneratedAt: time.Now().Format("2006-01-02 15:04"),
		Brand:       brand,
		Tiles:       buildTiles(pkg, brand),
		Charts:      charts,
	}
	if err := tmpl.Execute(f, data); err != nil {
		return "", eris.Wrap(err, "dashboard: render")
	}
	zap.L().Info("dashboard written", zap.String("path", path))
	return path, nil
}

func ragColour(brand config.BrandConfig, status string) string {
	switch status {
	case metrics.StatusGreen:
		return brand.Green
	case metrics.StatusAmber:
		return brand.Amber
	case metrics.StatusRed:
		return brand.Red
	}
	return brand.Primary
}

func buildTiles(pkg *metrics.Package, brand config.BrandConfig) []tile {
	fin, comm, cust, rag := pkg.Financial, pkg.Commercial, pkg.Customers, pkg.RAG
	specs := []struct {
		label, value, status string
	}{
		{"REVENUE", fmt.Sprintf("£%.1fM", fin.RevenueActual/1e6), rag.Revenue.Status},
		{"GROSS MARGIN", fmt.Sprintf("%.1f%%", fin.GrossMarginPctActual*100), rag.GrossMargin.Status},
		{"EBITDA MARGIN", fmt.Sprintf("%.1f%%", fin.EBITDAMarginPctActual*100), rag.EBITDAMargin.Status},
		{"ARR", fmt.Sprintf("£%.1fM", cust.ARRActual/1e6), metrics.StatusGreen},
		{"PIPELINE COVER", fmt.Sprintf("%.1fx", comm.PipelineCoverageRatio), rag.PipelineCoverage.Status},
		{"WIN RATE", fmt.Sprintf("%.1f%%", comm.WinRateActual*100), rag.WinRate.Status},
		{"CHURN", fmt.Sprintf("%.2f%%", cust.ChurnRateActual*100), rag.ChurnRate.Status},
		{"NPS", fmt.Sprintf("%d", cust.NPSActual), rag.NPS.Status},
	}
	tiles := make([]tile, 0, len(specs))
	for _, s := range specs {
		tiles = append(tiles, tile{
			Label: s.label, Value: s.value, Status: s.status,
			Colour: ragColour(brand, s.status),
		})
	}
	return tiles
}

type chartSpec struct {
	id     string
	traces []map[string]any
	layout map[string]any
}

func buildCharts(pkg *metrics.Package, brand config.BrandConfig) ([]chart, error) {
	builders := []chartSpec{
		revenueChart(pkg, brand),
		marginChart(pkg, brand),
		pipelineChart(pkg, brand),
		arrChart(pkg, brand),
		headcountChart(pkg, brand),
		churnNPSChart(pkg, brand),
	}

	charts := make([]chart, 0, len(builders))
	for _, b := range builders {
		traces, err := json.Marshal(b.traces)
		if err != nil {
			return nil, eris.Wrapf(err, "dashboard: marshal %s traces", b.id)
		}
		layout, err := json.Marshal(b.layout)
		if err != nil {
			return nil, eris.Wrapf(err, "dashboard: marshal %s layout", b.id)
		}
		charts = append(charts, chart{
			ID:         b.id,
			TracesJSON: template.JS(traces),
			LayoutJSON: template.JS(layout),
		})
	}
	return charts, nil
}

func hex(h string) string { return "#" + h }

// shortPeriods trims "2025-08" / "2025-08-25" labels to the month part.
func shortPeriods(periods []string) []string {
	out := make([]string, len(periods))
	for i, p := range periods {
		if len(p) >= 7 {
			out[i] = p[5:]
		} else {
			out[i] = p
		}
	}
	return out
}

func scaleM(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v / 1e6
	}
	return out
}

func baseLayout(title string, brand config.BrandConfig) map[string]any {
	return map[string]any{
		"title": map[string]any{
			"text": title,
			"font": map[string]any{"size": 14, "color": hex(brand.Primary)},
		},
		"legend": map[string]any{"orientation": "h", "y": 1.08, "x": 0},
		"margin": map[string]any{"l": 50, "r": 50, "t": 70, "b": 40},
		"paper_bgcolor": "#ffffff",
		"plot_bgcolor":  "#ffffff",
	}
}

func revenueChart(pkg *metrics.Package, brand config.BrandConfig) chartSpec {
	fin := pkg.Financial
	periods := shortPeriods(fin.MonthlyPeriods)

	// Budget series is approximated by scaling the current-period budget
	// along the actual trend; the source data only budgets the latest month.
	budget := make([]float64, len(fin.MonthlyRevenue))
	for i, a := range fin.MonthlyRevenue {
		if fin.RevenueActual != 0 {
			budget[i] = fin.RevenueBudget * (a / fin.RevenueActual)
		}
	}

	traces := []map[string]any{
		{"type": "bar", "x": periods, "y": scaleM(fin.MonthlyRevenue),
			"name": "Revenue (Actual)", "marker": map[string]any{"color": hex(brand.Primary)}, "opacity": 0.9},
		{"type": "bar", "x": periods, "y": scaleM(budget),
			"name": "Revenue (Budget)", "marker": map[string]any{"color": hex(brand.Secondary)}, "opacity": 0.5},
		{"type": "scatter", "mode": "lines+markers", "x": periods, "y": scaleM(fin.MonthlyEBITDA),
			"name": "EBITDA", "yaxis": "y2",
			"line": map[string]any{"color": hex(brand.Accent), "width": 2}},
	}
	layout := baseLayout("Revenue vs Budget — Monthly (£M)", brand)
	layout["barmode"] = "group"
	layout["yaxis"] = map[string]any{"title": "£M"}
	layout["yaxis2"] = map[string]any{"title": "EBITDA (£M)", "overlaying": "y", "side": "right", "showgrid": false}
	return chartSpec{id: "rev-budget", traces: traces, layout: layout}
}

func marginChart(pkg *metrics.Package, brand config.BrandConfig) chartSpec {
	fin := pkg.Financial
	periods := shortPeriods(fin.MonthlyPeriods)

	ebitdaMargins := make([]float64, len(fin.MonthlyRevenue))
	for i, rev := range fin.MonthlyRevenue {
		if rev != 0 && i < len(fin.MonthlyEBITDA) {
			ebitdaMargins[i] = fin.MonthlyEBITDA[i] / rev * 100
		}
	}

	traces := []map[string]any{
		{"type": "scatter", "mode": "lines+markers", "x": periods, "y": fin.MonthlyGrossMargin,
			"name": "Gross Margin %", "fill": "tozeroy",
			"line": map[string]any{"color": hex(brand.Secondary), "width": 2}},
		{"type": "scatter", "mode": "lines+markers", "x": periods, "y": ebitdaMargins,
			"name": "EBITDA Margin %",
			"line": map[string]any{"color": hex(brand.Accent), "width": 2, "dash": "dot"}},
	}
	layout := baseLayout("Margin Trends (%)", brand)
	layout["yaxis"] = map[string]any{"title": "%", "ticksuffix": "%"}
	return chartSpec{id: "margins", traces: traces, layout: layout}
}

func pipelineChart(pkg *metrics.Package, brand config.BrandConfig) chartSpec {
	comm := pkg.Commercial

	stages := make([]string, 0, len(comm.PipelineByStage)+1)
	measures := make([]string, 0, len(comm.PipelineByStage)+1)
	values := make([]any, 0, len(comm.PipelineByStage)+1)
	var total float64
	for _, s := range comm.PipelineByStage {
		stages = append(stages, s.Stage)
		measures = append(measures, "relative")
		values = append(values, s.ValueGBP/1e6)
		total += s.ValueGBP / 1e6
	}
	stages = append(stages, "Total")
	measures = append(measures, "total")
	values = append(values, nil)

	traces := []map[string]any{{
		"type": "waterfall", "orientation": "v",
		"x": stages, "y": values, "measure": measures,
		"increasing": map[string]any{"marker": map[string]any{"color": hex(brand.Primary)}},
		"totals":     map[string]any{"marker": map[string]any{"color": hex(brand.Secondary)}},
		"connector":  map[string]any{"line": map[string]any{"color": "rgb(63,63,63)"}},
	}}
	layout := baseLayout(fmt.Sprintf("Sales Pipeline by Stage (£M) — %.1fx coverage", comm.PipelineCoverageRatio), brand)
	layout["yaxis"] = map[string]any{"title": "£M"}
	layout["showlegend"] = false
	return chartSpec{id: "pipeline", traces: traces, layout: layout}
}

func arrChart(pkg *metrics.Package, brand config.BrandConfig) chartSpec {
	cust := pkg.Customers
	periods := shortPeriods(cust.ARRTrendPeriods)

	budgetLine := make([]float64, len(periods))
	for i := range budgetLine {
		budgetLine[i] = cust.ARRBudget / 1e6
	}

	traces := []map[string]any{
		{"type": "scatter", "mode": "lines", "x": periods, "y": scaleM(cust.ARRTrend),
			"name": "ARR (Actual)", "fill": "tozeroy",
			"line": map[string]any{"color": hex(brand.Secondary), "width": 2.5}},
		{"type": "scatter", "mode": "lines", "x": periods, "y": budgetLine,
			"name": "ARR (Budget)",
			"line": map[string]any{"color": hex(brand.Accent), "width": 1.5, "dash": "dash"}},
	}
	layout := baseLayout("ARR Trend vs Budget (£M)", brand)
	layout["yaxis"] = map[string]any{"title": "ARR (£M)", "tickprefix": "£", "ticksuffix": "M"}
	return chartSpec{id: "arr", traces: traces, layout: layout}
}

func headcountChart(pkg *metrics.Package, brand config.BrandConfig) chartSpec {
	hc := pkg.Headcount

	depts := make([]string, 0, len(hc.ByDepartment))
	for d := range hc.ByDepartment {
		depts = append(depts, d)
	}
	sort.Strings(depts)

	actuals := make([]int, len(depts))
	budgets := make([]int, len(depts))
	for i, d := range depts {
		actuals[i] = hc.ByDepartment[d].Actual
		budgets[i] = hc.ByDepartment[d].Budget
	}

	traces := []map[string]any{
		{"type": "bar", "x": depts, "y": actuals, "name": "Actual",
			"marker": map[string]any{"color": hex(brand.Primary)}},
		{"type": "bar", "x": depts, "y": budgets, "name": "Budget", "opacity": 0.6,
			"marker": map[string]any{"color": hex(brand.Secondary)}},
	}
	layout := baseLayout("Headcount by Department — Actual vs Budget", brand)
	layout["barmode"] = "group"
	layout["yaxis"] = map[string]any{"title": "FTEs"}
	return chartSpec{id: "headcount", traces: traces, layout: layout}
}

func churnNPSChart(pkg *metrics.Package, brand config.BrandConfig) chartSpec {
	cust := pkg.Customers

	traces := []map[string]any{
		{"type": "bar", "x": []string{"Churn (Actual)", "Churn (Budget)"},
			"y":      []float64{cust.ChurnRateActual * 100, cust.ChurnRateBudget * 100},
			"name":   "Churn Rate %",
			"marker": map[string]any{"color": []string{hex(brand.Accent), hex(brand.Amber)}}},
		{"type": "scatter", "mode": "markers", "x": []string{"NPS (Actual)", "NPS (Target)"},
			"y":      []int{cust.NPSActual, cust.NPSBudget},
			"name":   "NPS", "yaxis": "y2",
			"marker": map[string]any{"size": 16, "color": hex(brand.Primary), "symbol": "star"}},
	}
	layout := baseLayout("Churn Rate & NPS — Current Period", brand)
	layout["yaxis"] = map[string]any{"title": "Churn Rate (%)", "ticksuffix": "%"}
	layout["yaxis2"] = map[string]any{"title": "NPS Score", "overlaying": "y", "side": "right", "showgrid": false}
	return chartSpec{id: "churn-nps", traces: traces, layout: layout}
}
