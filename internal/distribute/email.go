package distribute

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/sells-group/boardpack/internal/config"
	"github.com/sells-group/boardpack/internal/metrics"
)

type emailSender struct {
	cfg    *config.Config
	client *sendgrid.Client
}

func newEmailSender(cfg *config.Config) *emailSender {
	s := &emailSender{cfg: cfg}
	if cfg.Distribution.SendGridKey != "" {
		s.client = sendgrid.NewSendClient(cfg.Distribution.SendGridKey)
	}
	return s
}

// send returns (sent, dryRun, err). Missing credentials produce a logged
// dry-run, not an error.
func (s *emailSender) send(ctx context.Context, pkg *metrics.Package, pdfPath, excelPath string) (bool, bool, error) {
	dist := s.cfg.Distribution
	subject := emailSubject(dist.EmailSubject, pkg)

	if s.client == nil {
		zap.L().Warn("sendgrid key not set, email dry-run",
			zap.String("subject", subject),
			zap.Strings("recipients", dist.EmailRecipients),
			zap.String("pdf", filepath.Base(pdfPath)),
			zap.String("excel", filepath.Base(excelPath)),
		)
		return false, true, nil
	}
	if len(dist.EmailRecipients) == 0 {
		return false, false, eris.New("distribute: no email recipients configured")
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(dist.EmailFromName, dist.EmailFrom))
	m.Subject = subject

	p := mail.NewPersonalization()
	for _, rcpt := range dist.EmailRecipients {
		p.AddTos(mail.NewEmail("", rcpt))
	}
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/html", emailBody(pkg, s.cfg.Report.Brand)))

	for _, path := range []string{pdfPath, excelPath} {
		if path == "" {
			continue
		}
		att, err := fileAttachment(path)
		if err != nil {
			return false, false, err
		}
		m.AddAttachment(att)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return false, false, eris.Wrap(err, "distribute: sendgrid send")
	}
	if resp.StatusCode >= 400 {
		return false, false, eris.Errorf("distribute: sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}

	zap.L().Info("report email sent",
		zap.Int("recipients", len(dist.EmailRecipients)),
		zap.Int("status", resp.StatusCode),
	)
	return true, false, nil
}

func fileAttachment(path string) (*mail.Attachment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "distribute: read attachment %s", path)
	}
	att := mail.NewAttachment()
	att.SetContent(base64.StdEncoding.EncodeToString(raw))
	att.SetType(contentType(path))
	att.SetFilename(filepath.Base(path))
	att.SetDisposition("attachment")
	return att, nil
}

func contentType(path string) string {
	switch filepath.Ext(path) {
	case ".pdf":
		return "application/pdf"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

func emailSubject(tmpl string, pkg *metrics.Package) string {
	r := strings.NewReplacer("{period}", pkg.ReportPeriod, "{company}", pkg.CompanyName)
	return r.Replace(tmpl)
}

// emailBody renders the inline HTML KPI summary that precedes the
// attachments.
func emailBody(pkg *metrics.Package, brand config.BrandConfig) string {
	fin, comm, cust, rag := pkg.Financial, pkg.Commercial, pkg.Customers, pkg.RAG

	kpis := []struct {
		label, value, status string
	}{
		{"Revenue", fmt.Sprintf("&pound;%.1fM", fin.RevenueActual/1e6), rag.Revenue.Status},
		{"Gross Margin", fmt.Sprintf("%.1f%%", fin.GrossMarginPctActual*100), rag.GrossMargin.Status},
		{"EBITDA Margin", fmt.Sprintf("%.1f%%", fin.EBITDAMarginPctActual*100), rag.EBITDAMargin.Status},
		{"ARR", fmt.Sprintf("&pound;%.1fM", cust.ARRActual/1e6), metrics.StatusGreen},
		{"Pipeline Cov.", fmt.Sprintf("%.1fx", comm.PipelineCoverageRatio), rag.PipelineCoverage.Status},
		{"Churn Rate", fmt.Sprintf("%.2f%%", cust.ChurnRateActual*100), rag.ChurnRate.Status},
	}

	var cells strings.Builder
	for _, kpi := range kpis {
		bg := "#" + brand.Primary
		switch kpi.status {
		case metrics.StatusGreen:
			bg = "#" + brand.Green
		case metrics.StatusAmber:
			bg = "#" + brand.Amber
		case metrics.StatusRed:
			bg = "#" + brand.Red
		}
		fmt.Fprintf(&cells, `
        <td style="background:%s;color:#fff;padding:10px 14px;text-align:center;border-radius:4px;">
            <div style="font-size:10px;opacity:.8;">%s</div>
            <div style="font-size:18px;font-weight:bold;">%s</div>
        </td>
        <td style="width:8px;"></td>`, bg, kpi.label, kpi.value)
	}

	return fmt.Sprintf(`
    <html><body style="font-family:Arial,sans-serif;color:#2D3748;max-width:700px;margin:auto;">
    <div style="background:#%s;padding:24px 28px;border-radius:6px 6px 0 0;">
        <h2 style="color:#fff;margin:0;">%s</h2>
        <p style="color:rgba(255,255,255,.75);margin:4px 0 0;">
            Board Performance Report &mdash; %s | Strictly Confidential
        </p>
    </div>
    <div style="background:#%s;padding:20px 28px;">
        <table style="border-spacing:0;"><tr>%s</tr></table>
        <p style="margin-top:18px;font-size:13px;line-height:1.6;">
            Please find attached the Board Report pack for <strong>%s</strong>,
            comprising the PDF narrative report and the Excel data pack.
        </p>
        <p style="font-size:13px;line-height:1.6;">
            This report was generated automatically and delivered at %s.
        </p>
        <hr style="border:none;border-top:1px solid #D1D5DB;margin:16px 0;">
        <p style="font-size:11px;color:#888;">
            This email and its attachments are intended solely for the named recipients.
            If you have received this in error, please delete it immediately and notify the sender.
        </p>
    </div>
    </body></html>`,
		brand.Primary, pkg.CompanyName, pkg.ReportPeriod, brand.Light,
		cells.String(), pkg.ReportPeriod,
		time.Now().Format("15:04 on Monday 2 January 2006"))
}
