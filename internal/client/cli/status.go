package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/guardian/internal/models"
)

func (c *Cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session, connectivity and synchronization status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runStatus(cmd.Context())
		},
	}
}

func (c *Cli) runStatus(ctx context.Context) error {
	a := c.app

	c.io.Println("=== Status ===")

	sess, err := a.requireSession(ctx)
	switch {
	case errors.Is(err, ErrNotLoggedIn):
		c.io.Println("Session: not logged in")
	case err != nil:
		c.io.Printf("Session: %v\n", err)
	default:
		c.io.Printf("Session: %s\n", sess.UserID)
		if !sess.ExpiresAt.IsZero() {
			c.io.Printf("Token expires: %s (in %s)\n",
				sess.ExpiresAt.Format(time.RFC3339), time.Until(sess.ExpiresAt).Round(time.Second))
		}
	}

	online := a.probe(ctx)
	c.io.Printf("Backend: %s (%s)\n", onlineLabel(online), a.cfg.APIBaseURL)

	state := a.sync.State()
	c.io.Println()
	c.io.Printf("Pending operations: %d\n", state.PendingOperationCount)
	for _, entity := range models.AllEntities {
		c.io.Printf("Last sync %-13s %s\n", entity+":", formatTime(state.LastSyncPerEntity[entity]))
	}

	dead, err := a.queue.DeadLetters(ctx)
	if err != nil {
		return fmt.Errorf("failed to read dead letters: %w", err)
	}
	if len(dead) > 0 {
		c.io.Printf("⚠️  Failed operations: %d (see 'guardian dead-letters')\n", len(dead))
	}

	samples, err := a.location.Pending(ctx)
	if err != nil {
		return fmt.Errorf("failed to read location queue: %w", err)
	}
	c.io.Printf("Queued location samples: %d\n", len(samples))
	dropped, err := a.location.DroppedCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to read location queue: %w", err)
	}
	if dropped > 0 {
		c.io.Printf("⚠️  Location samples expired unsent: %d\n", dropped)
	}

	if len(state.Errors) > 0 {
		c.io.Println()
		c.io.Println("Errors:")
		for _, e := range state.Errors {
			c.io.Printf("  - %s\n", e)
		}
	}
	return nil
}
