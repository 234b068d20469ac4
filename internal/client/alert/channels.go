package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/guardian/internal/models"
	"github.com/iudanet/guardian/pkg/api"
)

func (d *Dispatcher) runAPI(
	ctx context.Context,
	token, userID string,
	recipients []recipient,
	location *models.LocationSample,
	message string,
) models.AlertChannelResult {
	result := models.AlertChannelResult{Channel: models.ChannelAPI}

	req := api.EmergencyAlertRequest{
		UserID:    userID,
		Contacts:  make([]api.AlertContact, 0, len(recipients)),
		Location:  location,
		Message:   message,
		Timestamp: d.now().UTC().Format(time.RFC3339),
	}
	for _, r := range recipients {
		req.Contacts = append(req.Contacts, api.AlertContact{Name: r.name, Phone: r.phone})
	}

	resp, err := d.api.SendEmergencyAlert(ctx, token, req)
	if err != nil {
		result.Detail = "network alert failed"
		result.Error = err.Error()
		return result
	}

	result.Succeeded = true
	result.ContactsReached = len(recipients)
	if resp != nil && resp.ContactsNotified > 0 {
		result.ContactsReached = resp.ContactsNotified
	}
	result.Detail = fmt.Sprintf("server notified %d contacts", result.ContactsReached)
	return result
}

// runMessaging opens one chat per recipient with a fixed delay in between.
// A recipient counts as reached when the link was handed off.
func (d *Dispatcher) runMessaging(ctx context.Context, recipients []recipient, text string) models.AlertChannelResult {
	result := models.AlertChannelResult{Channel: models.ChannelMessaging}

	if d.messenger == nil {
		result.Detail = "messaging unavailable"
		return result
	}
	if len(recipients) == 0 {
		result.Detail = "no contacts with a valid phone number"
		return result
	}

	var errs []error
	for i, r := range recipients {
		if i > 0 {
			if err := d.sleep(ctx, d.contactDelay); err != nil {
				errs = append(errs, fmt.Errorf("interrupted before %s: %w", r.name, err))
				break
			}
		}
		if err := d.messenger.SendMessage(ctx, r.phone, text); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.name, err))
			continue
		}
		result.ContactsReached++
	}

	result.Succeeded = result.ContactsReached > 0
	result.Detail = fmt.Sprintf("opened %d of %d chats (send not confirmed)", result.ContactsReached, len(recipients))
	if len(errs) > 0 {
		result.Error = errors.Join(errs...).Error()
	}
	return result
}

// runSMS opens a single multi-recipient compose dialog. An opened dialog
// counts as success even though the send itself is not observable.
func (d *Dispatcher) runSMS(ctx context.Context, recipients []recipient, text string) models.AlertChannelResult {
	result := models.AlertChannelResult{Channel: models.ChannelSMS}

	if d.sms == nil {
		result.Detail = "sms unavailable"
		return result
	}
	if len(recipients) == 0 {
		result.Detail = "no contacts with a valid phone number"
		return result
	}

	phones := make([]string, 0, len(recipients))
	for _, r := range recipients {
		phones = append(phones, r.phone)
	}

	status, err := d.sms.Compose(ctx, phones, text)
	if err != nil {
		result.Error = err.Error()
	}

	switch status {
	case models.SMSSent:
		result.Succeeded = true
		result.ContactsReached = len(phones)
		result.Detail = fmt.Sprintf("sent to %d recipients", len(phones))
	case models.SMSOpened:
		result.Succeeded = true
		result.ContactsReached = len(phones)
		result.Detail = "compose opened (send not confirmed)"
	case models.SMSCancelled:
		result.Detail = "cancelled by user"
	default:
		result.Detail = "sms unavailable"
	}
	return result
}

// offerCall asks for consent and dials the first recipient. It never dials
// without an explicit yes.
func (d *Dispatcher) offerCall(ctx context.Context, recipients []recipient) models.AlertChannelResult {
	result := models.AlertChannelResult{Channel: models.ChannelCall}

	if d.dialer == nil || d.confirmer == nil {
		result.Detail = "calling unavailable"
		return result
	}
	if len(recipients) == 0 {
		result.Detail = "no contacts with a valid phone number"
		return result
	}

	target := recipients[0]
	prompt := fmt.Sprintf("All alert channels failed. Call %s (%s) now?", target.name, target.phone)
	if !d.confirmer.Confirm(ctx, prompt) {
		result.Detail = "call declined"
		return result
	}

	if err := d.dialer.Dial(ctx, target.phone); err != nil {
		result.Detail = "dialer failed"
		result.Error = err.Error()
		return result
	}

	result.Succeeded = true
	result.ContactsReached = 1
	result.Detail = "calling " + target.name
	return result
}
