package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/guardian/internal/models"
)

func (c *Cli) contactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contacts",
		Aliases: []string{"contact"},
		Short:   "Manage emergency contacts",
	}

	var contact models.Contact
	add := &cobra.Command{
		Use:   "add",
		Short: "Add or update an emergency contact",
		Long: `Add an emergency contact, or update one when --id is given. The change is
stored locally first and delivered to the backend now or on the next sync.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runContactsAdd(cmd.Context(), contact)
		},
	}
	add.Flags().StringVar(&contact.ID, "id", "", "id of the contact to update")
	add.Flags().StringVar(&contact.Name, "name", "", "contact name")
	add.Flags().StringVar(&contact.Phone, "phone", "", "phone number in international format")
	add.Flags().StringVar(&contact.Relationship, "relationship", "", "relationship to the contact")
	add.Flags().BoolVar(&contact.IsPrimary, "primary", false, "call this contact first")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("phone")

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List emergency contacts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runContactsList(cmd.Context())
		},
	}

	rm := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Remove an emergency contact",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runContactsRemove(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(add, list, rm)
	return cmd
}

// connect loads the session and probes the backend so mutations know
// whether to deliver directly or queue.
func (c *Cli) connect(ctx context.Context) (string, error) {
	sess, err := c.app.requireSession(ctx)
	if err != nil {
		return "", err
	}
	c.app.probe(ctx)
	return sess.Token, nil
}

func (c *Cli) reportDelivery() {
	state := c.app.sync.State()
	if state.PendingOperationCount > 0 {
		c.io.Printf("Saved locally, %d change(s) waiting for delivery.\n", state.PendingOperationCount)
		return
	}
	c.io.Println("Saved and delivered.")
}

func (c *Cli) runContactsAdd(ctx context.Context, contact models.Contact) error {
	token, err := c.connect(ctx)
	if err != nil {
		return err
	}

	saved, err := c.app.sync.SaveContact(ctx, token, contact)
	if err != nil {
		return saveError("save contact", err)
	}

	c.io.Printf("✓ Contact %s (%s)\n", saved.Name, saved.ID)
	c.reportDelivery()
	return nil
}

func (c *Cli) runContactsList(ctx context.Context) error {
	contacts, stale, err := c.app.sync.Contacts(ctx, c.app.cfg.Cache.MaxAge.Contacts)
	if err != nil {
		return fmt.Errorf("failed to read contacts: %w", err)
	}
	if len(contacts) == 0 {
		c.io.Println("No emergency contacts. Add one with 'guardian contacts add'.")
		return nil
	}

	c.io.Printf("Emergency contacts%s:\n", staleNote(stale))
	c.io.Printf("%-36s  %-20s  %-16s  %s\n", "ID", "NAME", "PHONE", "RELATIONSHIP")
	for _, ct := range contacts {
		name := ct.Name
		if ct.IsPrimary {
			name += " *"
		}
		c.io.Printf("%-36s  %-20s  %-16s  %s\n", ct.ID, name, ct.Phone, ct.Relationship)
	}
	return nil
}

func (c *Cli) runContactsRemove(ctx context.Context, id string) error {
	token, err := c.connect(ctx)
	if err != nil {
		return err
	}

	if err := c.app.sync.DeleteContact(ctx, token, id); err != nil {
		return saveError("remove contact", err)
	}

	c.io.Printf("✓ Contact %s removed\n", id)
	c.reportDelivery()
	return nil
}
