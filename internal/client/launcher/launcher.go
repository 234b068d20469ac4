// Package launcher hands deep links, SMS compose requests and dial intents
// to the operating system.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"runtime"
	"strings"

	"github.com/iudanet/guardian/internal/executil"
	"github.com/iudanet/guardian/internal/models"
	"github.com/iudanet/guardian/internal/validation"
)

// ErrNoRecipients is returned when a compose request has no valid phone number.
var ErrNoRecipients = errors.New("no recipients")

// URIOpener opens a URI with the system handler.
type URIOpener interface {
	Open(ctx context.Context, uri string) error
}

// DefaultOpenCommand returns the platform URI handler.
func DefaultOpenCommand() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "android":
		return "termux-open-url"
	default:
		return "xdg-open"
	}
}

// Opener runs the system URI handler. A nil error means the OS took over.
type Opener struct {
	exec    executil.Executor
	command string
}

// NewOpener creates an opener running command; empty means DefaultOpenCommand.
func NewOpener(exec executil.Executor, command string) *Opener {
	if command == "" {
		command = DefaultOpenCommand()
	}
	return &Opener{exec: exec, command: command}
}

// Open hands uri to the system handler.
func (o *Opener) Open(ctx context.Context, uri string) error {
	if _, err := o.exec.Run(ctx, o.command, uri); err != nil {
		return fmt.Errorf("open %s: %w", scheme(uri), err)
	}
	return nil
}

func scheme(uri string) string {
	if i := strings.Index(uri, ":"); i > 0 {
		return uri[:i]
	}
	return "uri"
}

func escapeText(text string) string {
	return strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// MessagingURL builds a WhatsApp click-to-chat link with a prefilled message.
func MessagingURL(phone, text string) string {
	return "https://wa.me/" + validation.PhoneDigits(phone) + "?text=" + escapeText(text)
}

// SMSURL builds a multi-recipient sms: URI.
func SMSURL(phones []string, body string) string {
	return "sms:" + strings.Join(phones, ",") + "?body=" + escapeText(body)
}

// TelURL builds a tel: URI.
func TelURL(phone string) string {
	return "tel:" + validation.NormalizePhone(phone)
}

// Messenger opens prefilled messaging deep links.
type Messenger struct {
	opener URIOpener
}

// NewMessenger creates a messenger on top of opener.
func NewMessenger(opener URIOpener) *Messenger {
	return &Messenger{opener: opener}
}

// SendMessage opens the messaging app for phone. Success means the link was
// handed off; whether the user pressed send cannot be observed.
func (m *Messenger) SendMessage(ctx context.Context, phone, text string) error {
	return m.opener.Open(ctx, MessagingURL(phone, text))
}

// SMSComposer opens the system SMS compose UI.
type SMSComposer struct {
	opener URIOpener
}

// NewSMSComposer creates a composer on top of opener.
func NewSMSComposer(opener URIOpener) *SMSComposer {
	return &SMSComposer{opener: opener}
}

// Compose opens one compose dialog for all phones. A URI hand-off can only
// ever confirm that the dialog opened.
func (c *SMSComposer) Compose(ctx context.Context, phones []string, body string) (models.SMSStatus, error) {
	if len(phones) == 0 {
		return models.SMSUnavailable, ErrNoRecipients
	}
	if err := c.opener.Open(ctx, SMSURL(phones, body)); err != nil {
		return models.SMSUnavailable, err
	}
	return models.SMSOpened, nil
}

// Dialer starts phone calls.
type Dialer struct {
	opener URIOpener
}

// NewDialer creates a dialer on top of opener.
func NewDialer(opener URIOpener) *Dialer {
	return &Dialer{opener: opener}
}

// Dial opens the dialer for phone.
func (d *Dialer) Dial(ctx context.Context, phone string) error {
	return d.opener.Open(ctx, TelURL(phone))
}
