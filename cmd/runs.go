package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/boardpack/internal/store"
)

var (
	runsStatus string
	runsPeriod string
	runsLimit  int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List report run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(cmd.Context(), store.RunFilter{
			Status: store.RunStatus(runsStatus),
			Period: runsPeriod,
			Limit:  runsLimit,
		})
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN ID\tPERIOD\tTRIGGER\tSTATUS\tSTARTED\tRAG")
		for _, r := range runs {
			rag := "-"
			if r.Summary != nil {
				rag = fmt.Sprintf("%dG/%dA/%dR",
					r.Summary.KPIs.GreenCount, r.Summary.KPIs.AmberCount, r.Summary.KPIs.RedCount)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Period, r.Trigger, r.Status,
				r.CreatedAt.Format("2006-01-02 15:04"), rag)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "filter by status (running|complete|failed)")
	runsCmd.Flags().StringVar(&runsPeriod, "period", "", "filter by reporting period (YYYY-MM)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum rows to show")
	rootCmd.AddCommand(runsCmd)
}
