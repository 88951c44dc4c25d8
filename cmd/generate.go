package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/boardpack/internal/simulate"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate synthetic source datasets",
	Long:  "Writes 24 months of synthetic financials, pipeline, headcount and customer CSVs into the raw data directory. Deterministic for a given seed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := simulate.Run(cfg)
		if err != nil {
			return err
		}
		zap.L().Info("datasets generated",
			zap.String("dir", cfg.Paths.RawDataDir),
			zap.Int64("seed", cfg.Simulation.Seed),
			zap.Int("financial_rows", len(tables.Financials)),
			zap.Int("pipeline_rows", len(tables.Pipeline)),
			zap.Int("headcount_rows", len(tables.Headcount)),
			zap.Int("customer_rows", len(tables.Customers)),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}
