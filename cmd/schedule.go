package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/boardpack/internal/pipeline"
)

var cronDays = map[string]int{
	"SUN": 0, "MON": 1, "TUE": 2, "WED": 3, "THU": 4, "FRI": 5, "SAT": 6,
}

// cronSpec builds a standard five-field cron expression from the
// scheduler config ("MON" + "06:00" -> "0 6 * * 1").
func cronSpec(dayOfWeek, runTime string) (string, error) {
	day, ok := cronDays[strings.ToUpper(dayOfWeek)]
	if !ok {
		return "", eris.Errorf("unknown run day %q", dayOfWeek)
	}
	var hour, minute int
	if _, err := fmt.Sscanf(runTime, "%d:%d", &hour, &minute); err != nil {
		return "", eris.Wrapf(err, "parse run time %q", runTime)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", eris.Errorf("run time %q out of range", runTime)
	}
	return fmt.Sprintf("%d %d * * %d", minute, hour, day), nil
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the weekly report schedule daemon",
	Long:  "Stays resident and runs the full pipeline on the configured weekday and time, with per-run retries. Stops cleanly on SIGINT/SIGTERM.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
		if err != nil {
			return eris.Wrapf(err, "load timezone %q", cfg.Scheduler.Timezone)
		}
		spec, err := cronSpec(cfg.Scheduler.RunDayOfWeek, cfg.Scheduler.RunTime)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		p := pipeline.New(cfg, st)

		c := cron.New(cron.WithLocation(loc))
		_, err = c.AddFunc(spec, func() {
			runScheduled(ctx, p)
		})
		if err != nil {
			return eris.Wrapf(err, "register cron spec %q", spec)
		}

		c.Start()
		zap.L().Info("scheduler started",
			zap.String("spec", spec),
			zap.String("timezone", cfg.Scheduler.Timezone),
		)

		<-ctx.Done()
		zap.L().Info("scheduler stopping")
		stopCtx := c.Stop()
		<-stopCtx.Done()
		return nil
	},
}

// runScheduled executes one scheduled pipeline run with the configured
// retry budget.
func runScheduled(ctx context.Context, p *pipeline.Pipeline) {
	attempts := cfg.Scheduler.MaxRetries + 1
	delay := time.Duration(cfg.Scheduler.RetryDelaySeconds) * time.Second

	for attempt := 1; attempt <= attempts; attempt++ {
		outcome, err := p.Run(ctx, pipeline.Options{Distribute: true, Trigger: "scheduler"})
		if err == nil {
			zap.L().Info("scheduled run complete",
				zap.String("run_id", outcome.RunID),
				zap.String("period", outcome.Period),
			)
			return
		}
		zap.L().Error("scheduled run failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}
