package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (c *Cli) alertsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show the history of dispatched emergency alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runAlerts(cmd.Context(), limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of alerts to show")
	return cmd
}

func (c *Cli) runAlerts(ctx context.Context, limit int) error {
	outcomes, err := c.app.sqlite.ListAlertOutcomes(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to read alert history: %w", err)
	}
	if len(outcomes) == 0 {
		c.io.Println("No alerts dispatched.")
		return nil
	}

	for _, o := range outcomes {
		c.io.Printf("%s  %s  reached=%d  call_offered=%t\n",
			o.TriggeredAt.Local().Format(time.DateTime), o.AlertID, o.TotalContactsReached, o.CallOffered)
		for _, r := range o.PerChannel {
			c.io.Printf("    %-9s succeeded=%-5t reached=%d  %s\n", r.Channel, r.Succeeded, r.ContactsReached, r.Detail)
		}
	}
	return nil
}
