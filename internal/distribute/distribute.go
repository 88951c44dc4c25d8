// Package distribute delivers the finished report pack to its audiences:
// email with the PDF and Excel attached, a Slack KPI summary, and an
// optional Notion page. Every channel falls back to a logged dry-run when
// its credential is absent, so local development never sends anything.
package distribute

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/boardpack/internal/config"
	"github.com/sells-group/boardpack/internal/metrics"
)

// Result records what each channel did for one distribution run.
type Result struct {
	EmailSent    bool   `json:"email_sent"`
	EmailDryRun  bool   `json:"email_dry_run"`
	SlackSent    bool   `json:"slack_sent"`
	SlackDryRun  bool   `json:"slack_dry_run"`
	NotionPageID string `json:"notion_page_id,omitempty"`
	NotionDryRun bool   `json:"notion_dry_run"`
}

// Distributor fans a report pack out across the configured channels.
type Distributor struct {
	cfg    *config.Config
	email  *emailSender
	slack  *slackSender
	notion *notionPublisher
}

// New builds a Distributor from configuration. Channels without
// credentials are constructed in dry-run mode.
func New(cfg *config.Config) *Distributor {
	return &Distributor{
		cfg:    cfg,
		email:  newEmailSender(cfg),
		slack:  newSlackSender(cfg.Distribution),
		notion: newNotionPublisher(cfg.Distribution),
	}
}

// Send delivers the pack on every channel. Channel failures do not stop
// the remaining channels; the combined error reports all of them.
func (d *Distributor) Send(ctx context.Context, pkg *metrics.Package, pdfPath, excelPath string) (Result, error) {
	var res Result
	var errs []error

	sent, dry, err := d.email.send(ctx, pkg, pdfPath, excelPath)
	res.EmailSent, res.EmailDryRun = sent, dry
	if err != nil {
		errs = append(errs, fmt.Errorf("email: %w", err))
	}

	sent, dry, err = d.slack.send(ctx, pkg)
	res.SlackSent, res.SlackDryRun = sent, dry
	if err != nil {
		errs = append(errs, fmt.Errorf("slack: %w", err))
	}

	pageID, dry, err := d.notion.publish(ctx, pkg)
	res.NotionPageID, res.NotionDryRun = pageID, dry
	if err != nil {
		errs = append(errs, fmt.Errorf("notion: %w", err))
	}

	zap.L().Info("distribution complete",
		zap.String("period", pkg.ReportPeriod),
		zap.Bool("email_sent", res.EmailSent),
		zap.Bool("slack_sent", res.SlackSent),
		zap.String("notion_page", res.NotionPageID),
		zap.Int("failures", len(errs)),
	)
	return res, errors.Join(errs...)
}

func ragEmoji(status string) string {
	switch status {
	case metrics.StatusGreen:
		return ":large_green_circle:"
	case metrics.StatusAmber:
		return ":large_yellow_circle:"
	case metrics.StatusRed:
		return ":red_circle:"
	}
	return ":white_circle:"
}
