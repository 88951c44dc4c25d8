package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/boardpack/internal/excelpack"
)

var excelCmd = &cobra.Command{
	Use:   "excel",
	Short: "Generate the Excel data pack",
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, pkg, err := loadMetrics()
		if err != nil {
			return err
		}
		path, err := excelpack.Generate(pkg, tables, cfg)
		if err != nil {
			return err
		}
		zap.L().Info("excel pack generated", zap.String("path", path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(excelCmd)
}
