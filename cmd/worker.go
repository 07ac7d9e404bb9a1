package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/leave-management/pkg/logger"
)

var workerInterval time.Duration

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
}

var balanceWorkerCmd = &cobra.Command{
	Use:   "balances",
	Short: "Periodically synchronize every active account's leave balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cmd.SetContext(ctx)
		return withApplication(cmd, func(ctx context.Context, app *application) error {
			interval := workerInterval
			if interval <= 0 {
				interval = app.Config.Worker.SyncInterval
			}
			if interval <= 0 {
				interval = 24 * time.Hour
			}

			app.Logger.Info("balance worker started", "interval", interval.String())
			runPeriodically(ctx, interval, app.Logger, func(ctx context.Context) error {
				_, err := syncAllBalances(ctx, app, 0)
				return err
			})
			app.Logger.Info("balance worker stopped")
			return nil
		})
	},
}

// runPeriodically calls run immediately and then every interval until ctx is done.
// Each run sees a context logger tagged with its sequence number.
func runPeriodically(ctx context.Context, interval time.Duration, log *slog.Logger, run func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for seq := 1; ; seq++ {
		runLog := log.With("run", seq)
		if err := run(logger.Into(ctx, runLog)); err != nil && ctx.Err() == nil {
			runLog.Error("periodic run failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func init() {
	balanceWorkerCmd.Flags().DurationVar(&workerInterval, "interval", 0, "Sync interval (overrides config)")

	workerCmd.AddCommand(balanceWorkerCmd)
	rootCmd.AddCommand(workerCmd)
}
