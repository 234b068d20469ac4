// Package api holds the wire DTOs of the guardian backend contract.
package api

import "github.com/iudanet/guardian/internal/models"

// Backend routes.
const (
	PathHealth         = "/health"
	PathLocation       = "/location"
	PathEmergencyAlert = "/emergency-alert"
	PathContacts       = "/contacts"
	PathProfile        = "/profile"
	PathMedicalInfo    = "/medical-info"
)

// AlertContact is a contact entry of an emergency alert.
type AlertContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// EmergencyAlertRequest is the body of POST /emergency-alert.
// Location is serialized as null when unknown.
type EmergencyAlertRequest struct {
	Location  *models.LocationSample `json:"location"`
	UserID    string                 `json:"userId"`
	Message   string                 `json:"message"`
	Timestamp string                 `json:"timestamp"` // RFC3339
	Contacts  []AlertContact         `json:"contacts"`
}

// EmergencyAlertResponse is returned by POST /emergency-alert.
type EmergencyAlertResponse struct {
	AlertID          string `json:"alertId,omitempty"`
	ContactsNotified int    `json:"contactsNotified"`
}

// ContactsResponse is returned by GET /contacts.
type ContactsResponse struct {
	Contacts []models.Contact `json:"contacts"`
}

// ErrorResponse is the error body returned by the backend.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
