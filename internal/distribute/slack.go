package distribute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boardpack/internal/config"
	"github.com/sells-group/boardpack/internal/metrics"
	"github.com/sells-group/boardpack/internal/resilience"
)

type slackSender struct {
	cfg    config.DistributionConfig
	client *http.Client
	retry  resilience.RetryConfig
}

func newSlackSender(cfg config.DistributionConfig) *slackSender {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("slack", "post webhook")
	return &slackSender{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		retry:  retry,
	}
}

func (s *slackSender) send(ctx context.Context, pkg *metrics.Package) (bool, bool, error) {
	payload := slackPayload(pkg, s.cfg)

	if s.cfg.SlackWebhookURL == "" {
		body, _ := json.MarshalIndent(payload, "", "  ")
		zap.L().Warn("slack webhook not set, dry-run",
			zap.String("channel", s.cfg.SlackChannel),
			zap.ByteString("payload", body),
		)
		return false, true, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return false, false, eris.Wrap(err, "distribute: marshal slack payload")
	}

	err = resilience.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.post(ctx, raw)
	})
	if err != nil {
		return false, false, eris.Wrap(err, "distribute: slack delivery")
	}

	zap.L().Info("slack summary posted", zap.String("channel", s.cfg.SlackChannel))
	return true, false, nil
}

func (s *slackSender) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.SlackWebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return resilience.NewTransientError(err, 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err = eris.Errorf("slack returned %d: %s", resp.StatusCode, body)
	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return resilience.NewTransientError(err, resp.StatusCode)
	}
	return err
}

// slackPayload builds the Block Kit message: header, divider, one mrkdwn
// section of RAG-coded KPI lines, then a context footer.
func slackPayload(pkg *metrics.Package, cfg config.DistributionConfig) map[string]any {
	fin, comm, cust, rag := pkg.Financial, pkg.Commercial, pkg.Customers, pkg.RAG

	kpiLines := fmt.Sprintf(
		"%s *Revenue:* £%.1fM (%+.1f%% vs budget)\n"+
			"%s *Gross Margin:* %.1f%%\n"+
			"%s *EBITDA Margin:* %.1f%%\n"+
			":chart_with_upwards_trend: *ARR:* £%.1fM (net movement: £%+.0fk)\n"+
			"%s *Pipeline Coverage:* %.1fx\n"+
			"%s *Churn Rate:* %.2f%% (budget: %.2f%%)\n"+
			":star: *NPS:* %d (target: %d)",
		ragEmoji(rag.Revenue.Status), fin.RevenueActual/1e6, rag.Revenue.VariancePct*100,
		ragEmoji(rag.GrossMargin.Status), fin.GrossMarginPctActual*100,
		ragEmoji(rag.EBITDAMargin.Status), fin.EBITDAMarginPctActual*100,
		cust.ARRActual/1e6, cust.NetARRMovement/1000,
		ragEmoji(rag.PipelineCoverage.Status), comm.PipelineCoverageRatio,
		ragEmoji(rag.ChurnRate.Status), cust.ChurnRateActual*100, cust.ChurnRateBudget*100,
		cust.NPSActual, cust.NPSBudget,
	)

	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{
				"type":  "plain_text",
				"text":  fmt.Sprintf(":bar_chart: Board Report — %s | %s", pkg.ReportPeriod, pkg.CompanyName),
				"emoji": true,
			},
		},
		{"type": "divider"},
		{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": kpiLines},
		},
		{"type": "divider"},
		{
			"type": "context",
			"elements": []map[string]any{{
				"type": "mrkdwn",
				"text": fmt.Sprintf(":information_source: Channel: %s | Full PDF and Excel pack delivered by email to board recipients.",
					cfg.SlackChannel),
			}},
		},
	}

	return map[string]any{
		"username":   cfg.SlackUsername,
		"icon_emoji": cfg.SlackIconEmoji,
		"channel":    cfg.SlackChannel,
		"blocks":     blocks,
	}
}
