package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/boardpack/internal/pipeline"
)

var runDistribute bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full report pipeline",
	Long:  "Loads the datasets, computes metrics, renders PDF, Excel and dashboard, optionally distributes the pack, and records the run in history.",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		outcome, err := pipeline.New(cfg, st).Run(cmd.Context(), pipeline.Options{
			Distribute: runDistribute,
			Trigger:    "manual",
		})
		if err != nil {
			return err
		}

		fmt.Printf("Report pack for %s generated in %s\n", outcome.Period, outcome.Duration.Round(time.Millisecond))
		fmt.Printf("  PDF:       %s\n", outcome.PDFPath)
		fmt.Printf("  Excel:     %s\n", outcome.ExcelPath)
		fmt.Printf("  Dashboard: %s\n", outcome.DashboardURL)
		zap.L().Info("run recorded", zap.String("run_id", outcome.RunID))
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDistribute, "distribute", false, "send the pack over the configured channels")
	rootCmd.AddCommand(runCmd)
}
