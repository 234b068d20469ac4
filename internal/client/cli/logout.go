package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (c *Cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session and every locally stored change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runLogout(cmd.Context())
		},
	}
}

// runLogout drops the session, queued operations, cached entities and
// location samples so the next user starts clean.
func (c *Cli) runLogout(ctx context.Context) error {
	a := c.app

	pending, err := a.queue.PendingCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to read queue: %w", err)
	}
	if pending > 0 {
		ok, err := c.io.Confirm(fmt.Sprintf("%d change(s) are not delivered yet and will be lost. Log out anyway?", pending))
		if err != nil || !ok {
			c.io.Println("Logout cancelled.")
			return nil
		}
	}

	a.location.Stop()
	if err := a.location.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear location samples: %w", err)
	}
	if err := a.queue.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	if err := a.cache.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	if err := a.sync.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset sync state: %w", err)
	}
	if err := a.sessions.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	c.io.Println("✓ Logged out")
	return nil
}
