package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/guardian/internal/models"
)

func (c *Cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the user profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runProfileShow(cmd.Context())
		},
	}

	var p models.UserProfile
	set := &cobra.Command{
		Use:   "set",
		Short: "Replace the user profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runProfileSet(cmd.Context(), p)
		},
	}
	set.Flags().StringVar(&p.FullName, "name", "", "full name")
	set.Flags().StringVar(&p.Phone, "phone", "", "own phone number")
	set.Flags().StringVar(&p.Email, "email", "", "email address")
	_ = set.MarkFlagRequired("name")

	cmd.AddCommand(set)
	return cmd
}

func (c *Cli) runProfileShow(ctx context.Context) error {
	p, stale, err := c.app.sync.Profile(ctx, c.app.cfg.Cache.MaxAge.Profile)
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}
	if p == nil {
		c.io.Println("No profile. Set one with 'guardian profile set'.")
		return nil
	}

	c.io.Printf("Profile%s:\n", staleNote(stale))
	c.io.Printf("  Name:  %s\n", p.FullName)
	c.io.Printf("  Phone: %s\n", p.Phone)
	c.io.Printf("  Email: %s\n", p.Email)
	return nil
}

func (c *Cli) runProfileSet(ctx context.Context, p models.UserProfile) error {
	sess, err := c.app.requireSession(ctx)
	if err != nil {
		return err
	}
	c.app.probe(ctx)

	p.UserID = sess.UserID
	if err := c.app.sync.SaveProfile(ctx, sess.Token, p); err != nil {
		return saveError("save profile", err)
	}

	c.io.Println("✓ Profile updated")
	c.reportDelivery()
	return nil
}

func (c *Cli) medicalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "medical",
		Short: "Show or update medical info shared with responders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runMedicalShow(cmd.Context())
		},
	}

	var m models.MedicalInfo
	set := &cobra.Command{
		Use:   "set",
		Short: "Replace the medical info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runMedicalSet(cmd.Context(), m)
		},
	}
	set.Flags().StringVar(&m.BloodType, "blood-type", "", "blood type, e.g. A+")
	set.Flags().StringSliceVar(&m.Allergies, "allergy", nil, "allergy (repeatable)")
	set.Flags().StringSliceVar(&m.Medications, "medication", nil, "medication (repeatable)")
	set.Flags().StringSliceVar(&m.Conditions, "condition", nil, "medical condition (repeatable)")
	set.Flags().StringVar(&m.EmergencyNotes, "notes", "", "notes for responders")
	set.Flags().BoolVar(&m.OrganDonor, "organ-donor", false, "registered organ donor")

	cmd.AddCommand(set)
	return cmd
}

func (c *Cli) runMedicalShow(ctx context.Context) error {
	m, stale, err := c.app.sync.MedicalInfo(ctx, c.app.cfg.Cache.MaxAge.Medical)
	if err != nil {
		return fmt.Errorf("failed to read medical info: %w", err)
	}
	if m == nil {
		c.io.Println("No medical info. Set it with 'guardian medical set'.")
		return nil
	}

	c.io.Printf("Medical info%s:\n", staleNote(stale))
	c.io.Printf("  Blood type:  %s\n", m.BloodType)
	c.io.Printf("  Allergies:   %s\n", strings.Join(m.Allergies, ", "))
	c.io.Printf("  Medications: %s\n", strings.Join(m.Medications, ", "))
	c.io.Printf("  Conditions:  %s\n", strings.Join(m.Conditions, ", "))
	c.io.Printf("  Organ donor: %t\n", m.OrganDonor)
	if m.EmergencyNotes != "" {
		c.io.Printf("  Notes:       %s\n", m.EmergencyNotes)
	}
	return nil
}

func (c *Cli) runMedicalSet(ctx context.Context, m models.MedicalInfo) error {
	token, err := c.connect(ctx)
	if err != nil {
		return err
	}

	if err := c.app.sync.SaveMedicalInfo(ctx, token, m); err != nil {
		return saveError("save medical info", err)
	}

	c.io.Println("✓ Medical info updated")
	c.reportDelivery()
	return nil
}
