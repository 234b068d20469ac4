package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (c *Cli) deadLettersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dead-letters",
		Short: "List operations that failed permanently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runDeadLetters(cmd.Context())
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "retry <operation-id>",
			Short: "Move a failed operation back to the queue",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.runRetryDeadLetter(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Discard every failed operation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := c.app.queue.ClearDeadLetters(cmd.Context()); err != nil {
					return err
				}
				c.io.Println("✓ Failed operations discarded")
				return nil
			},
		},
	)
	return cmd
}

func (c *Cli) runDeadLetters(ctx context.Context) error {
	dead, err := c.app.queue.DeadLetters(ctx)
	if err != nil {
		return fmt.Errorf("failed to read dead letters: %w", err)
	}
	if len(dead) == 0 {
		c.io.Println("No failed operations.")
		return nil
	}

	c.io.Printf("%-36s  %-7s  %-13s  %-20s  %s\n", "ID", "KIND", "ENTITY", "FAILED AT", "ERROR")
	for _, d := range dead {
		op := d.Operation
		c.io.Printf("%-36s  %-7s  %-13s  %-20s  %s\n",
			op.ID, op.Kind, op.EntityType, d.FailedAt.Local().Format(time.DateTime), d.Error)
	}
	return nil
}

func (c *Cli) runRetryDeadLetter(ctx context.Context, id string) error {
	if err := c.app.queue.Requeue(ctx, id); err != nil {
		return err
	}
	c.io.Printf("✓ Operation %s queued again. Run 'guardian sync' to deliver it.\n", id)
	return nil
}
