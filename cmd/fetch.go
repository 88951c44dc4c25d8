package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/boardpack/internal/fetcher"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download source datasets from the ERP FTP drop",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetcher.FetchDatasets(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
