package models

// Contact is an emergency contact.
type Contact struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship,omitempty"`
	IsPrimary    bool   `json:"is_primary,omitempty"`
}

// UserProfile holds the owner's identity details.
type UserProfile struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}

// MedicalInfo is shared with responders during an emergency.
type MedicalInfo struct {
	BloodType      string   `json:"blood_type,omitempty"`
	Allergies      []string `json:"allergies,omitempty"`
	Medications    []string `json:"medications,omitempty"`
	Conditions     []string `json:"conditions,omitempty"`
	EmergencyNotes string   `json:"emergency_notes,omitempty"`
	OrganDonor     bool     `json:"organ_donor,omitempty"`
}
