package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/guardian/internal/client/alert"
	"github.com/iudanet/guardian/internal/models"
)

const defaultSOSMessage = "EMERGENCY: I need help. This is an automatic alert from Guardian."

type sosOptions struct {
	message    string
	skip       alert.SkipFlags
	noLocation bool
}

func (c *Cli) sosCmd() *cobra.Command {
	var opts sosOptions
	cmd := &cobra.Command{
		Use:   "sos",
		Short: "Send an emergency alert to every contact",
		Long: `Send an emergency alert through every available channel in order: the
backend, a messaging deep link per contact, one SMS to all contacts. When
none of them reaches anyone, a phone call to the first contact is offered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runSOS(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.message, "message", "m", defaultSOSMessage, "alert text")
	cmd.Flags().BoolVar(&opts.skip.API, "skip-api", false, "do not notify the backend")
	cmd.Flags().BoolVar(&opts.skip.Messaging, "skip-messaging", false, "do not open messaging chats")
	cmd.Flags().BoolVar(&opts.skip.SMS, "skip-sms", false, "do not open the SMS composer")
	cmd.Flags().BoolVar(&opts.noLocation, "no-location", false, "do not attach the current location")
	return cmd
}

// runSOS never stops on missing pieces: without a session, contacts or a
// position fix it still runs every channel that can work.
func (c *Cli) runSOS(ctx context.Context, opts sosOptions) error {
	a := c.app

	var token, userID string
	sess, err := a.requireSession(ctx)
	if err != nil {
		c.io.Printf("⚠️  %v, the backend will not be notified\n", err)
	} else {
		token, userID = sess.Token, sess.UserID
	}

	contacts, _, err := a.sync.Contacts(ctx, 0)
	if err != nil {
		c.io.Printf("⚠️  Failed to read contacts: %v\n", err)
	}
	if len(contacts) == 0 {
		c.io.Println("⚠️  No emergency contacts stored")
	}

	var sample *models.LocationSample
	if !opts.noLocation {
		sample = c.sosLocation(ctx, token, userID)
	}

	outcome := a.alerts.ExecuteCascade(ctx, token, userID, contacts, sample, opts.message, opts.skip)

	c.io.Println()
	c.io.Printf("Alert %s\n", outcome.AlertID)
	for _, r := range outcome.PerChannel {
		mark := "✗"
		if r.Succeeded {
			mark = "✓"
		}
		c.io.Printf("  %s %-9s reached=%d  %s%s\n", mark, r.Channel, r.ContactsReached, r.Detail, errorSuffix(r.Error))
	}
	c.io.Printf("Contacts reached: %d\n", outcome.TotalContactsReached)

	if !outcome.AnySucceeded() {
		return fmt.Errorf("emergency alert reached nobody")
	}
	return nil
}

// sosLocation captures a fresh sample when possible so it is also queued
// for upload, and falls back to the provider's last known position.
func (c *Cli) sosLocation(ctx context.Context, token, userID string) *models.LocationSample {
	a := c.app

	if token != "" && a.location.Initialize(token, userID) {
		defer a.location.Stop()
		a.probe(ctx)
		if sample := a.location.CaptureNow(ctx); sample != nil {
			if err := a.flushLocations(ctx); err != nil {
				a.logger.Warn().Err(err).Msg("sos location upload deferred")
			}
			return sample
		}
	}

	pending, err := a.location.Pending(ctx)
	if err == nil && len(pending) > 0 {
		last := pending[len(pending)-1]
		c.io.Println("⚠️  Using the last queued position")
		return &last
	}

	c.io.Println("⚠️  No position fix, sending without location")
	return nil
}
