package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/leave"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

var syncConcurrency int

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Leave balance maintenance commands",
}

var recalculateCmd = &cobra.Command{
	Use:   "recalculate [account-id]",
	Short: "Recompute the casual leave balance of one account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		accountID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || accountID <= 0 {
			return fmt.Errorf("invalid account id %q", args[0])
		}

		return withApplication(cmd, func(ctx context.Context, app *application) error {
			balance, err := app.Leaves.RecalculateAccountCasualBalance(ctx, auth.SystemContext(), accountID)
			if err != nil {
				return err
			}
			return printJSON(cmd, leave.NewBalanceResponse(balance))
		})
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the balances of every active account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, app *application) error {
			report, err := syncAllBalances(ctx, app, syncConcurrency)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		})
	},
}

func syncAllBalances(ctx context.Context, app *application, concurrency int) (leave.SyncReport, error) {
	ids, err := app.Accounts.ListActiveIDs(ctx)
	if err != nil {
		return leave.SyncReport{}, fmt.Errorf("list active accounts: %w", err)
	}
	if concurrency <= 0 {
		concurrency = app.Config.Worker.SyncConcurrency
	}
	report, err := app.Leaves.SyncBalances(ctx, auth.SystemContext(), ids, concurrency)
	if err != nil {
		return report, err
	}
	logger.From(ctx).Info("balances synchronized", "synced", report.Synced, "failed", report.Failed)
	return report, nil
}

func withApplication(cmd *cobra.Command, fn func(ctx context.Context, app *application) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	app, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	return fn(ctx, app)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	syncCmd.Flags().IntVar(&syncConcurrency, "concurrency", 0, "Concurrent account transactions (overrides config)")

	balanceCmd.AddCommand(recalculateCmd)
	balanceCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(balanceCmd)
}
