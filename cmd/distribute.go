package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/boardpack/internal/distribute"
)

var distributeCmd = &cobra.Command{
	Use:   "distribute",
	Short: "Send the latest report pack by email, Slack and Notion",
	Long:  "Distributes previously generated artefacts for the current reporting period. Run `boardpack run` first to produce them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, pkg, err := loadMetrics()
		if err != nil {
			return err
		}

		pdfPath := filepath.Join(cfg.Paths.OutputDir, fmt.Sprintf("board_report_%s.pdf", pkg.ReportPeriod))
		excelPath := filepath.Join(cfg.Paths.OutputDir, fmt.Sprintf("board_data_pack_%s.xlsx", pkg.ReportPeriod))
		for _, p := range []string{pdfPath, excelPath} {
			if _, err := os.Stat(p); err != nil {
				return eris.Errorf("artefact %s not found; run `boardpack run` first", p)
			}
		}

		res, err := distribute.New(cfg).Send(cmd.Context(), pkg, pdfPath, excelPath)
		if err != nil {
			return err
		}
		zap.L().Info("distribution finished",
			zap.Bool("email_sent", res.EmailSent),
			zap.Bool("slack_sent", res.SlackSent),
			zap.String("notion_page", res.NotionPageID),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(distributeCmd)
}
