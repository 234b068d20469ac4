// Package alert delivers an emergency alert through every available channel
// in a fixed order and reports each channel's outcome.
package alert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iudanet/guardian/internal/client/storage"
	"github.com/iudanet/guardian/internal/models"
	"github.com/iudanet/guardian/internal/validation"
	"github.com/iudanet/guardian/pkg/api"
)

//go:generate moq -out alertapi_mock.go . AlertAPI
//go:generate moq -out messenger_mock.go . Messenger
//go:generate moq -out smscomposer_mock.go . SMSComposer
//go:generate moq -out dialer_mock.go . Dialer
//go:generate moq -out confirmer_mock.go . Confirmer

// DefaultContactDelay separates consecutive messaging hand-offs.
const DefaultContactDelay = 2 * time.Second

// ErrNoAlertAPI is returned by NewDispatcher without a backend client.
var ErrNoAlertAPI = errors.New("alert api client is required")

// AlertAPI posts an alert for server-side fan-out.
type AlertAPI interface {
	SendEmergencyAlert(ctx context.Context, token string, req api.EmergencyAlertRequest) (*api.EmergencyAlertResponse, error)
}

// Messenger opens a prefilled chat with one contact.
type Messenger interface {
	SendMessage(ctx context.Context, phone, text string) error
}

// SMSComposer opens one SMS compose dialog for several recipients.
type SMSComposer interface {
	Compose(ctx context.Context, phones []string, body string) (models.SMSStatus, error)
}

// Dialer starts a phone call.
type Dialer interface {
	Dial(ctx context.Context, phone string) error
}

// Confirmer asks the user for explicit consent.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// SkipFlags disables individual automatic channels.
type SkipFlags struct {
	API       bool
	Messaging bool
	SMS       bool
}

// Dispatcher runs the alert cascade.
type Dispatcher struct {
	api          AlertAPI
	messenger    Messenger
	sms          SMSComposer
	dialer       Dialer
	confirmer    Confirmer
	audit        storage.AuditStorage
	sleep        func(ctx context.Context, d time.Duration) error
	now          func() time.Time
	logger       zerolog.Logger
	contactDelay time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithContactDelay sets the pause between messaging hand-offs.
func WithContactDelay(d time.Duration) Option {
	return func(x *Dispatcher) {
		if d >= 0 {
			x.contactDelay = d
		}
	}
}

// WithSleep replaces the context-aware sleep.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(x *Dispatcher) { x.sleep = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(x *Dispatcher) { x.now = now }
}

// NewDispatcher creates a dispatcher. Only the backend client is required;
// a missing launcher makes its channel report unavailable, a missing audit
// store skips persistence.
func NewDispatcher(
	alertAPI AlertAPI,
	messenger Messenger,
	sms SMSComposer,
	dialer Dialer,
	confirmer Confirmer,
	audit storage.AuditStorage,
	logger zerolog.Logger,
	opts ...Option,
) (*Dispatcher, error) {
	if alertAPI == nil {
		return nil, ErrNoAlertAPI
	}

	d := &Dispatcher{
		api:          alertAPI,
		messenger:    messenger,
		sms:          sms,
		dialer:       dialer,
		confirmer:    confirmer,
		audit:        audit,
		logger:       logger,
		sleep:        sleepCtx,
		now:          time.Now,
		contactDelay: DefaultContactDelay,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// recipient is a contact with a usable phone number.
type recipient struct {
	name  string
	phone string
}

// ExecuteCascade runs the API, messaging and SMS channels in that order,
// each regardless of the others' results, then offers a confirmed call when
// none of them succeeded. It never returns an error: failures are reported
// per channel in the outcome.
func (d *Dispatcher) ExecuteCascade(
	ctx context.Context,
	token, userID string,
	contacts []models.Contact,
	location *models.LocationSample,
	message string,
	skip SkipFlags,
) *models.AlertOutcome {
	outcome := &models.AlertOutcome{
		AlertID:     uuid.NewString(),
		UserID:      userID,
		TriggeredAt: d.now().UTC(),
		Location:    location,
		PerChannel:  make([]models.AlertChannelResult, 0, 4),
	}

	recipients, rejected := usableRecipients(contacts)
	logger := d.logger.With().Str("alert_id", outcome.AlertID).Logger()
	logger.Info().
		Int("recipients", len(recipients)).
		Int("rejected", len(rejected)).
		Bool("has_location", location != nil).
		Msg("emergency alert triggered")

	text := composeText(message, location)

	channels := []struct {
		run     func() models.AlertChannelResult
		channel models.Channel
		skip    bool
	}{
		{channel: models.ChannelAPI, skip: skip.API, run: func() models.AlertChannelResult {
			return d.runAPI(ctx, token, userID, recipients, location, message)
		}},
		{channel: models.ChannelMessaging, skip: skip.Messaging, run: func() models.AlertChannelResult {
			return d.runMessaging(ctx, recipients, text)
		}},
		{channel: models.ChannelSMS, skip: skip.SMS, run: func() models.AlertChannelResult {
			return d.runSMS(ctx, recipients, text)
		}},
	}

	for _, ch := range channels {
		var result models.AlertChannelResult
		if ch.skip {
			result = models.AlertChannelResult{Channel: ch.channel, Detail: "skipped"}
		} else {
			result = ch.run()
		}
		if len(rejected) > 0 && ch.channel != models.ChannelAPI && !ch.skip {
			result.Detail += fmt.Sprintf("; skipped invalid numbers: %s", strings.Join(rejected, ", "))
		}

		event := logger.Info()
		if !result.Succeeded {
			event = logger.Warn()
		}
		event.Str("channel", string(result.Channel)).
			Bool("succeeded", result.Succeeded).
			Int("reached", result.ContactsReached).
			Str("detail", result.Detail).
			Str("error", result.Error).
			Msg("alert channel finished")

		outcome.PerChannel = append(outcome.PerChannel, result)
	}

	if !outcome.AnySucceeded() {
		outcome.CallOffered = true
		outcome.PerChannel = append(outcome.PerChannel, d.offerCall(ctx, recipients))
	}

	for _, r := range outcome.PerChannel {
		outcome.TotalContactsReached += r.ContactsReached
	}

	if d.audit != nil {
		if err := d.audit.SaveAlertOutcome(context.WithoutCancel(ctx), outcome); err != nil {
			logger.Error().Err(err).Msg("failed to persist alert outcome")
		}
	}

	logger.Info().
		Int("total_reached", outcome.TotalContactsReached).
		Bool("call_offered", outcome.CallOffered).
		Msg("emergency alert finished")

	return outcome
}

func usableRecipients(contacts []models.Contact) ([]recipient, []string) {
	var (
		ok       []recipient
		rejected []string
	)
	for _, c := range contacts {
		phone := validation.NormalizePhone(c.Phone)
		if err := validation.ValidatePhone(phone); err != nil {
			rejected = append(rejected, c.Name)
			continue
		}
		ok = append(ok, recipient{name: c.Name, phone: phone})
	}
	return ok, rejected
}

func composeText(message string, location *models.LocationSample) string {
	if location == nil {
		return message
	}
	return message + "\n" + location.MapsURL()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
