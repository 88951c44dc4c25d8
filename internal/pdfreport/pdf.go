// Package pdfreport renders the multi-page board report PDF: a branded
// cover, an executive summary with the RAG dashboard, one section per KPI
// domain with commentary and a drawn trend chart, and the risk register.
package pdfreport

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boardpack/internal/config"
	"github.com/sells-group/boardpack/internal/metrics"
	"github.com/sells-group/boardpack/internal/narrative"
)

const (
	margin   = 18.0
	pageW    = 210.0
	contentW = pageW - 2*margin
)

type rgb struct{ r, g, b int }

func parseHex(hex string) rgb {
	if len(hex) != 6 {
		return rgb{}
	}
	r, _ := strconv.ParseInt(hex[0:2], 16, 0)
	g, _ := strconv.ParseInt(hex[2:4], 16, 0)
	b, _ := strconv.ParseInt(hex[4:6], 16, 0)
	return rgb{int(r), int(g), int(b)}
}

type builder struct {
	pdf   *fpdf.Fpdf
	brand config.BrandConfig

	primary, secondary, light rgb
	green, amber, red         rgb
}

// Generate writes the board PDF to the configured output directory and
// returns its path.
func Generate(pkg *metrics.Package, n *narrative.Package, cfg *config.Config) (string, error) {
	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		return "", eris.Wrap(err, "pdfreport: create output dir")
	}
	path := filepath.Join(cfg.Paths.OutputDir,
		fmt.Sprintf("board_report_%s.pdf", pkg.ReportPeriod))

	b := &builder{
		pdf:       fpdf.New("P", "mm", "A4", ""),
		brand:     cfg.Report.Brand,
		primary:   parseHex(cfg.Report.Brand.Primary),
		secondary: parseHex(cfg.Report.Brand.Secondary),
		light:     parseHex(cfg.Report.Brand.Light),
		green:     parseHex(cfg.Report.Brand.Green),
		amber:     parseHex(cfg.Report.Brand.Amber),
		red:       parseHex(cfg.Report.Brand.Red),
	}
	b.pdf.SetMargins(margin, margin, margin)
	b.pdf.SetAutoPageBreak(true, 20)
	b.pdf.AliasNbPages("")
	b.pdf.SetFooterFunc(func() {
		if b.pdf.PageNo() == 1 {
			return
		}
		b.pdf.SetY(-15)
		b.pdf.SetFont("Helvetica", "", 7.5)
		b.pdf.SetTextColor(128, 128, 128)
		b.pdf.CellFormat(0, 10,
			fmt.Sprintf("%s — Private & Confidential — Page %d of {nb}",
				pkg.CompanyName, b.pdf.PageNo()),
			"", 0, "C", false, 0, "")
	})

	b.cover(pkg)
	b.executiveSummary(pkg, n)
	b.financialSection(pkg, n)
	b.commercialSection(pkg, n)
	b.customerSection(pkg, n)
	b.operationalSection(pkg, n)
	b.outlookSection(n)

	if err := b.pdf.OutputFileAndClose(path); err != nil {
		return "", eris.Wrapf(err, "pdfreport: write %s", path)
	}
	zap.L().Info("board pdf written", zap.String("path", path))
	return path, nil
}

func (b *builder) cover(pkg *metrics.Package) {
	pdf := b.pdf
	pdf.AddPage()

	pdf.SetFillColor(b.primary.r, b.primary.g, b.primary.b)
	pdf.Rect(0, 0, pageW, 297, "F")

	pdf.SetY(100)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.SetTextColor(255, 255, 255)
	pdf.MultiCell(contentW, 12, pkg.CompanyName, "", "L", false)

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(204, 224, 242)
	pdf.CellFormat(contentW, 8, "Monthly Board Performance Report", "", 1, "L", false, 0, "")

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 8, fmt.Sprintf("Reporting period: %s", pkg.ReportPeriod), "", 1, "L", false, 0, "")

	pdf.SetY(270)
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5,
		fmt.Sprintf("Generated %s — Private & Confidential", time.Now().Format("2 January 2006")),
		"", 1, "L", false, 0, "")
}

func (b *builder) sectionTitle(title string) {
	pdf := b.pdf
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(b.primary.r, b.primary.g, b.primary.b)
	pdf.CellFormat(contentW, 10, title, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(b.secondary.r, b.secondary.g, b.secondary.b)
	pdf.Line(margin, pdf.GetY(), margin+contentW, pdf.GetY())
	pdf.Ln(4)
}

func (b *builder) body(text string) {
	pdf := b.pdf
	pdf.SetFont("Helvetica", "", 9.5)
	pdf.SetTextColor(40, 40, 40)
	pdf.MultiCell(contentW, 5.2, text, "", "J", false)
	pdf.Ln(2)
}

func (b *builder) ragColour(status string) rgb {
	switch status {
	case metrics.StatusAmber:
		return b.amber
	case metrics.StatusRed:
		return b.red
	default:
		return b.green
	}
}

// kpiTile draws one boxed KPI with its RAG banding.
func (b *builder) kpiTile(x, y, w float64, label, value, status string) {
	pdf := b.pdf
	const h = 22.0

	pdf.SetFillColor(b.light.r, b.light.g, b.light.b)
	pdf.Rect(x, y, w, h, "F")
	c := b.ragColour(status)
	pdf.SetFillColor(c.r, c.g, c.b)
	pdf.Rect(x, y, w, 2.2, "F")

	pdf.SetXY(x, y+4)
	pdf.SetFont("Helvetica", "", 7.5)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(w, 4, label, "", 0, "C", false, 0, "")

	pdf.SetXY(x, y+9)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(b.primary.r, b.primary.g, b.primary.b)
	pdf.CellFormat(w, 6, value, "", 0, "C", false, 0, "")

	pdf.SetXY(x, y+16)
	pdf.SetFont("Helvetica", "B", 7.5)
	pdf.SetTextColor(c.r, c.g, c.b)
	pdf.CellFormat(w, 4, status, "", 0, "C", false, 0, "")
}

func (b *builder) executiveSummary(pkg *metrics.Package, n *narrative.Package) {
	b.sectionTitle("Executive Summary")

	fin, comm, cust, hc, rag := pkg.Financial, pkg.Commercial, pkg.Customers, pkg.Headcount, pkg.RAG
	tiles := []struct {
		label, value string
		status       string
	}{
		{"Revenue", fmt.Sprintf("£%.2fM", fin.RevenueActual/1e6), rag.Revenue.Status},
		{"Gross Margin", fmt.Sprintf("%.1f%%", fin.GrossMarginPctActual*100), rag.GrossMargin.Status},
		{"EBITDA Margin", fmt.Sprintf("%.1f%%", fin.EBITDAMarginPctActual*100), rag.EBITDAMargin.Status},
		{"Pipeline Cover", fmt.Sprintf("%.1fx", comm.PipelineCoverageRatio), rag.PipelineCoverage.Status},
		{"Win Rate", fmt.Sprintf("%.1f%%", comm.WinRateActual*100), rag.WinRate.Status},
		{"Churn", fmt.Sprintf("%.2f%%", cust.ChurnRateActual*100), rag.ChurnRate.Status},
		{"NPS", fmt.Sprintf("%d", cust.NPSActual), rag.NPS.Status},
		{"Headcount", fmt.Sprintf("%d", hc.TotalHCActual), rag.Headcount.Status},
	}

	const perRow = 4
	gap := 3.0
	w := (contentW - gap*(perRow-1)) / perRow
	y := b.pdf.GetY()
	for i, tile := range tiles {
		col := i % perRow
		row := i / perRow
		b.kpiTile(margin+float64(col)*(w+gap), y+float64(row)*25, w, tile.label, tile.value, tile.status)
	}
	b.pdf.SetY(y + 2*25 + 4)

	b.body(n.ExecutiveSummary)
}

// trendBars draws a minimal bar chart for a trend series.
func (b *builder) trendBars(labels []string, values []float64, caption string) {
	if len(values) == 0 {
		return
	}
	pdf := b.pdf
	const chartH = 32.0
	y := pdf.GetY() + 2

	max := values[0]
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	if max <= 0 {
		max = 1
	}

	gap := 1.5
	barW := (contentW - gap*float64(len(values)-1)) / float64(len(values))
	pdf.SetFillColor(b.secondary.r, b.secondary.g, b.secondary.b)
	for i, v := range values {
		h := chartH * (v / max)
		if h < 0 {
			h = 0
		}
		x := margin + float64(i)*(barW+gap)
		pdf.Rect(x, y+(chartH-h), barW, h, "F")
	}

	pdf.SetY(y + chartH + 1)
	pdf.SetFont("Helvetica", "", 6.5)
	pdf.SetTextColor(110, 110, 110)
	for i, l := range labels {
		x := margin + float64(i)*(barW+gap)
		pdf.SetXY(x, pdf.GetY())
		pdf.CellFormat(barW, 3.5, shortLabel(l), "", 0, "C", false, 0, "")
	}
	pdf.Ln(5)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(contentW, 5, caption, "", 1, "C", false, 0, "")
	pdf.Ln(2)
}

// shortLabel trims period labels to fit under narrow bars ("2025-07" →
// "07", "2025-07-28" → "07-28").
func shortLabel(l string) string {
	if len(l) == 7 {
		return l[5:]
	}
	if len(l) == 10 {
		return l[5:]
	}
	return l
}

func (b *builder) keyValueTable(rows [][2]string) {
	pdf := b.pdf
	pdf.SetFont("Helvetica", "", 9)
	for i, kv := range rows {
		fill := i%2 == 0
		pdf.SetFillColor(b.light.r, b.light.g, b.light.b)
		pdf.SetTextColor(40, 40, 40)
		pdf.CellFormat(contentW*0.55, 6.5, kv[0], "", 0, "L", fill, 0, "")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW*0.45, 6.5, kv[1], "", 1, "R", fill, 0, "")
		pdf.SetFont("Helvetica", "", 9)
	}
	pdf.Ln(3)
}

func (b *builder) financialSection(pkg *metrics.Package, n *narrative.Package) {
	b.sectionTitle("Financial Performance")
	fin := pkg.Financial

	b.keyValueTable([][2]string{
		{"Revenue (actual / budget)", fmt.Sprintf("£%.2fM / £%.2fM", fin.RevenueActual/1e6, fin.RevenueBudget/1e6)},
		{"Gross profit", fmt.Sprintf("£%.2fM (%.1f%% margin)", fin.GrossProfitActual/1e6, fin.GrossMarginPctActual*100)},
		{"Operating expenditure", fmt.Sprintf("£%.2fM", fin.OpexActual/1e6)},
		{"EBITDA (actual / budget)", fmt.Sprintf("£%.0fk / £%.0fk", fin.EBITDAActual/1000, fin.EBITDABudget/1000)},
		{"Fiscal YTD revenue", fmt.Sprintf("£%.2fM vs £%.2fM plan", fin.YTDRevenueActual/1e6, fin.YTDRevenueBudget/1e6)},
		{"Fiscal YTD EBITDA", fmt.Sprintf("£%.2fM vs £%.2fM plan", fin.YTDEBITDAActual/1e6, fin.YTDEBITDABudget/1e6)},
	})
	b.trendBars(fin.MonthlyPeriods, fin.MonthlyRevenue, "Monthly revenue, trailing 12 months (£)")
	b.body(n.FinancialPerformance)
}

func (b *builder) commercialSection(pkg *metrics.Package, n *narrative.Package) {
	b.sectionTitle("Commercial Performance")
	comm := pkg.Commercial

	rows := [][2]string{
		{"Total pipeline (trailing 4 weeks)", fmt.Sprintf("£%.1fM", comm.TotalPipelineGBP/1e6)},
		{"Pipeline coverage of quarterly target", fmt.Sprintf("%.1fx", comm.PipelineCoverageRatio)},
		{"Win rate (actual / budget)", fmt.Sprintf("%.1f%% / %.1f%%", comm.WinRateActual*100, comm.WinRateBudget*100)},
		{"Average deal size", fmt.Sprintf("£%.0fk", comm.AvgDealSizeGBP/1000)},
	}
	for _, s := range comm.PipelineByStage {
		rows = append(rows, [2]string{"Stage — " + s.Stage, fmt.Sprintf("£%.2fM", s.ValueGBP/1e6)})
	}
	b.keyValueTable(rows)
	b.trendBars(comm.PipelineTrendPeriods, comm.PipelineTrend, "Weekly pipeline value, trailing 12 weeks (£)")
	b.body(n.CommercialPerformance)
}

func (b *builder) customerSection(pkg *metrics.Package, n *narrative.Package) {
	b.sectionTitle("Customer & Retention")
	cust := pkg.Customers

	b.keyValueTable([][2]string{
		{"ARR (actual / budget)", fmt.Sprintf("£%.2fM / £%.2fM", cust.ARRActual/1e6, cust.ARRBudget/1e6)},
		{"Net ARR movement", fmt.Sprintf("£%.0fk", cust.NetARRMovement/1000)},
		{"Monthly churn (actual / budget)", fmt.Sprintf("%.2f%% / %.2f%%", cust.ChurnRateActual*100, cust.ChurnRateBudget*100)},
		{"NPS (actual / target)", fmt.Sprintf("%d / %d", cust.NPSActual, cust.NPSBudget)},
		{"Customers gained / lost", fmt.Sprintf("%d / %d", cust.NewCustomers, cust.ChurnedCustomers)},
	})
	b.trendBars(cust.ARRTrendPeriods, cust.ARRTrend, "ARR, trailing 12 months (£)")
	b.body(n.CustomerMetrics)
}

func (b *builder) operationalSection(pkg *metrics.Package, n *narrative.Package) {
	b.sectionTitle("Operational Metrics")
	hc := pkg.Headcount

	rows := [][2]string{
		{"Headcount (actual / budget)", fmt.Sprintf("%d / %d", hc.TotalHCActual, hc.TotalHCBudget)},
		{"Monthly people cost", fmt.Sprintf("£%.0fk", hc.TotalCostActual/1000)},
		{"Cost per head", fmt.Sprintf("£%.0f", hc.CostPerHeadActual)},
	}
	for _, dept := range sortedDepartments(hc.ByDepartment) {
		d := hc.ByDepartment[dept]
		rows = append(rows, [2]string{"Dept — " + dept,
			fmt.Sprintf("%d vs %d plan (%+d)", d.Actual, d.Budget, d.Variance)})
	}
	b.keyValueTable(rows)

	trend := make([]float64, len(hc.HCTrend))
	for i, v := range hc.HCTrend {
		trend[i] = float64(v)
	}
	b.trendBars(hc.HCTrendPeriods, trend, "Total headcount, trailing 12 months")
	b.body(n.OperationalMetrics)
}

func (b *builder) outlookSection(n *narrative.Package) {
	b.sectionTitle("Outlook & Risk Register")
	b.body(n.OutlookAndRisks)
	b.pdf.Ln(2)

	pdf := b.pdf
	widths := []float64{contentW * 0.38, contentW * 0.13, contentW * 0.11, contentW * 0.38}
	headers := []string{"Risk", "Likelihood", "Impact", "Mitigation"}

	pdf.SetFont("Helvetica", "B", 8.5)
	pdf.SetFillColor(b.primary.r, b.primary.g, b.primary.b)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8.5)
	pdf.SetTextColor(40, 40, 40)
	for i, r := range n.RiskRegister {
		if i%2 == 0 {
			pdf.SetFillColor(b.light.r, b.light.g, b.light.b)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		cells := []string{r.Risk, r.Likelihood, r.Impact, r.Mitigation}
		for j, c := range cells {
			pdf.CellFormat(widths[j], 12, truncate(c, 58), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func sortedDepartments(m map[string]metrics.DeptHeadcount) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	// Deterministic section ordering for repeat runs.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
