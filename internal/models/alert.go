package models

import "time"

// Channel is an alert delivery channel.
type Channel string

// Alert channels in cascade order.
const (
	ChannelAPI       Channel = "api"
	ChannelMessaging Channel = "messaging"
	ChannelSMS       Channel = "sms"
	ChannelCall      Channel = "call"
)

// AlertChannelResult is the outcome of one channel attempt.
type AlertChannelResult struct {
	Channel         Channel `json:"channel"`
	Detail          string  `json:"detail"`          // human readable summary
	Error           string  `json:"error,omitempty"` // empty on success
	ContactsReached int     `json:"contacts_reached"`
	Succeeded       bool    `json:"succeeded"`
}

// AlertOutcome aggregates every channel attempt of one emergency alert.
// TotalContactsReached is the plain sum over channels: a contact reached
// through two channels is counted twice.
type AlertOutcome struct {
	TriggeredAt          time.Time            `json:"triggered_at"`
	Location             *LocationSample      `json:"location,omitempty"`
	AlertID              string               `json:"alert_id"`
	UserID               string               `json:"user_id"`
	PerChannel           []AlertChannelResult `json:"per_channel"`
	TotalContactsReached int                  `json:"total_contacts_reached"`
	CallOffered          bool                 `json:"call_offered"`
}

// Result returns the result for a channel, if it was recorded.
func (o *AlertOutcome) Result(ch Channel) (AlertChannelResult, bool) {
	for _, r := range o.PerChannel {
		if r.Channel == ch {
			return r, true
		}
	}
	return AlertChannelResult{}, false
}

// AnySucceeded reports whether at least one channel reached a contact.
func (o *AlertOutcome) AnySucceeded() bool {
	for _, r := range o.PerChannel {
		if r.Succeeded {
			return true
		}
	}
	return false
}

// SMSStatus is what the platform reports after handing off an SMS compose request.
type SMSStatus string

// SMS compose outcomes.
const (
	SMSSent        SMSStatus = "sent"        // platform confirmed delivery to the carrier
	SMSOpened      SMSStatus = "opened"      // compose UI opened, send not observable
	SMSCancelled   SMSStatus = "cancelled"   // user dismissed the compose UI
	SMSUnavailable SMSStatus = "unavailable" // no SMS capability
)
