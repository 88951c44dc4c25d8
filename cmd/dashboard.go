package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/boardpack/internal/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Generate the interactive HTML dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, pkg, err := loadMetrics()
		if err != nil {
			return err
		}
		path, err := dashboard.Generate(pkg, cfg)
		if err != nil {
			return err
		}
		zap.L().Info("dashboard generated", zap.String("path", path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
