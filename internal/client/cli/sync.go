package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/iudanet/guardian/internal/models"
)

func (c *Cli) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Deliver queued changes and refresh contacts, profile and medical info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runSync(cmd.Context())
		},
	}
}

func (c *Cli) runSync(ctx context.Context) error {
	a := c.app
	c.io.Println("=== Synchronization ===")

	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	if !a.probe(ctx) {
		state := a.sync.State()
		c.io.Printf("Backend unreachable. %d change(s) stay queued until the next sync.\n", state.PendingOperationCount)
		return nil
	}

	ok := a.sync.SyncAll(ctx, sess.Token)
	state := a.sync.State()

	if ok {
		c.io.Println("✓ Synchronization completed")
	} else {
		c.io.Println("⚠️  Synchronization completed with errors")
	}
	c.io.Printf("Pending operations: %d\n", state.PendingOperationCount)
	for _, entity := range models.AllEntities {
		c.io.Printf("  %s: %s\n", entity, formatTime(state.LastSyncPerEntity[entity]))
	}
	for _, e := range state.Errors {
		c.io.Printf("  ! %s\n", e)
	}
	return nil
}
