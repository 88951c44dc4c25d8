package distribute

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/boardpack/internal/config"
	"github.com/sells-group/boardpack/internal/metrics"
	"github.com/sells-group/boardpack/internal/resilience"
)

// notionPageCreator is the slice of the Notion API the publisher needs.
type notionPageCreator interface {
	Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

type notionPublisher struct {
	cfg     config.DistributionConfig
	pages   notionPageCreator
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

func newNotionPublisher(cfg config.DistributionConfig) *notionPublisher {
	p := &notionPublisher{
		cfg: cfg,
		// Notion caps integrations at 3 req/s.
		limiter: rate.NewLimiter(3, 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	p.retry.OnRetry = resilience.RetryLogger("notion", "create page")
	if cfg.NotionToken != "" {
		p.pages = notionapi.NewClient(notionapi.Token(cfg.NotionToken)).Page
	}
	return p
}

// publish creates a KPI summary page under the configured parent and
// returns its ID. Returns (id, dryRun, err).
func (p *notionPublisher) publish(ctx context.Context, pkg *metrics.Package) (string, bool, error) {
	if p.pages == nil || p.cfg.NotionParentID == "" {
		zap.L().Warn("notion credentials not set, dry-run",
			zap.String("parent", p.cfg.NotionParentID))
		return "", true, nil
	}

	req := notionPageRequest(pkg, p.cfg.NotionParentID)
	page, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*notionapi.Page, error) {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limit")
		}
		return p.pages.Create(ctx, req)
	})
	if err != nil {
		return "", false, eris.Wrap(err, "distribute: notion publish")
	}

	zap.L().Info("notion page published", zap.String("page_id", string(page.ID)))
	return string(page.ID), false, nil
}

func notionPageRequest(pkg *metrics.Package, parentID string) *notionapi.PageCreateRequest {
	fin, comm, cust, hc, rag := pkg.Financial, pkg.Commercial, pkg.Customers, pkg.Headcount, pkg.RAG

	title := fmt.Sprintf("Board Report — %s", pkg.ReportPeriod)
	lines := []struct {
		heading string
		body    string
	}{
		{"Financial", fmt.Sprintf("Revenue £%.2fM vs £%.2fM budget (%s). Gross margin %.1f%% (%s). EBITDA margin %.1f%% (%s).",
			fin.RevenueActual/1e6, fin.RevenueBudget/1e6, rag.Revenue.Status,
			fin.GrossMarginPctActual*100, rag.GrossMargin.Status,
			fin.EBITDAMarginPctActual*100, rag.EBITDAMargin.Status)},
		{"Commercial", fmt.Sprintf("Pipeline £%.1fM at %.1fx coverage (%s). Win rate %.1f%% (%s).",
			comm.TotalPipelineGBP/1e6, comm.PipelineCoverageRatio, rag.PipelineCoverage.Status,
			comm.WinRateActual*100, rag.WinRate.Status)},
		{"Customers", fmt.Sprintf("ARR £%.2fM, net movement £%.0fk. Churn %.2f%% (%s). NPS %d (%s).",
			cust.ARRActual/1e6, cust.NetARRMovement/1000,
			cust.ChurnRateActual*100, rag.ChurnRate.Status,
			cust.NPSActual, rag.NPS.Status)},
		{"People", fmt.Sprintf("Headcount %d vs %d plan (%s).",
			hc.TotalHCActual, hc.TotalHCBudget, rag.Headcount.Status)},
	}

	children := make([]notionapi.Block, 0, len(lines)*2)
	for _, l := range lines {
		children = append(children,
			&notionapi.Heading2Block{
				BasicBlock: notionapi.BasicBlock{
					Object: notionapi.ObjectTypeBlock,
					Type:   notionapi.BlockTypeHeading2,
				},
				Heading2: notionapi.Heading{
					RichText: []notionapi.RichText{{
						Text: &notionapi.Text{Content: l.heading},
					}},
				},
			},
			&notionapi.ParagraphBlock{
				BasicBlock: notionapi.BasicBlock{
					Object: notionapi.ObjectTypeBlock,
					Type:   notionapi.BlockTypeParagraph,
				},
				Paragraph: notionapi.Paragraph{
					RichText: []notionapi.RichText{{
						Text: &notionapi.Text{Content: l.body},
					}},
				},
			},
		)
	}

	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:   notionapi.ParentTypePageID,
			PageID: notionapi.PageID(parentID),
		},
		Properties: notionapi.Properties{
			"title": notionapi.TitleProperty{
				Title: []notionapi.RichText{{
					Text: &notionapi.Text{Content: title},
				}},
			},
		},
		Children: children,
	}
}
