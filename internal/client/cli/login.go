package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type loginOptions struct {
	token  string
	userID string
}

func (c *Cli) loginCmd() *cobra.Command {
	var opts loginOptions
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the bearer token issued by the backend",
		Long: `Store the bearer token issued by the backend, encrypted with the device key.
Without --token the token is read from the terminal. Without --user the user
id is taken from the token's sub claim.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runLogin(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.token, "token", "", "bearer token")
	cmd.Flags().StringVar(&opts.userID, "user", "", "user id")
	return cmd
}

func (c *Cli) runLogin(ctx context.Context, opts loginOptions) error {
	c.io.Println("=== Login ===")

	token := strings.TrimSpace(opts.token)
	if token == "" {
		var err error
		token, err = c.io.ReadPassword("Token: ")
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = strings.TrimSpace(token)
	}

	sess, err := c.app.sessions.Save(ctx, token, opts.userID)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	c.io.Println("✓ Login successful!")
	c.io.Printf("User: %s\n", sess.UserID)
	if !sess.ExpiresAt.IsZero() {
		c.io.Printf("Token expires: %s\n", sess.ExpiresAt.Format(time.RFC3339))
	}

	if !c.app.probe(ctx) {
		c.io.Println("Backend unreachable, working offline. Run 'guardian sync' later.")
		return nil
	}

	c.io.Println("Synchronizing...")
	if c.app.sync.SyncAll(ctx, sess.Token) {
		c.io.Println("✓ Data synchronized")
	} else {
		c.io.Println("⚠️  Synchronization incomplete, see 'guardian status'")
	}
	return nil
}
