package cmd

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/leave-management/internal/core/events"
)

var eventAccountID int64

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus commands",
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a leave event for an account",
	Long:  `Publish a leave event through the event bus. With the cache enabled this drops the account's cached leave views.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventType := args[0]
		if !slices.Contains(events.LeaveEventTypes, eventType) {
			return fmt.Errorf("unknown event type %q, expected one of %v", eventType, events.LeaveEventTypes)
		}
		if eventAccountID <= 0 {
			return fmt.Errorf("--account is required")
		}

		return withApplication(cmd, func(ctx context.Context, app *application) error {
			event := events.NewLeaveEvent(eventType, 0, eventAccountID, 0, "", 0)
			app.Logger.Info("publishing event", "event_type", eventType, "event_id", event.EventID(), "account_id", eventAccountID)

			if err := app.Bus.PublishSync(ctx, event); err != nil {
				return err
			}

			waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return app.Bus.Wait(waitCtx)
		})
	},
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventAccountID, "account", 0, "Account whose leave views are affected")

	eventCmd.AddCommand(publishEventCmd)
	rootCmd.AddCommand(eventCmd)
}
