package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/boardpack/internal/narrative"
	"github.com/sells-group/boardpack/internal/pdfreport"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the PDF board report",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, pkg, err := loadMetrics()
		if err != nil {
			return err
		}
		story, err := narrative.Generate(pkg, cfg.Paths.TemplatesDir)
		if err != nil {
			return err
		}
		path, err := pdfreport.Generate(pkg, story, cfg)
		if err != nil {
			return err
		}
		zap.L().Info("pdf report generated", zap.String("path", path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
