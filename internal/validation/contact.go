package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/iudanet/guardian/internal/models"
)

// PhonePattern accepts an optional leading + followed by 6-15 digits,
// after separators (spaces, dashes, dots, parentheses) are stripped.
var PhonePattern = regexp.MustCompile(`^\+?[0-9]{6,15}$`)

// MaxContactNameLen is the longest accepted contact name
const MaxContactNameLen = 100

var (
	// ErrInvalidPhone indicates a phone number that cannot be dialed or messaged
	ErrInvalidPhone = errors.New("invalid phone number")
	// ErrEmptyName indicates a contact without a name
	ErrEmptyName = errors.New("contact name cannot be empty")
	// ErrEmptyID indicates a missing entity identifier
	ErrEmptyID = errors.New("id cannot be empty")
)

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

// NormalizePhone strips separators from a phone number.
func NormalizePhone(phone string) string {
	return phoneSeparators.Replace(strings.TrimSpace(phone))
}

// PhoneDigits returns only the digits of a phone number (for wa.me style links).
func PhoneDigits(phone string) string {
	return strings.TrimPrefix(NormalizePhone(phone), "+")
}

// ValidatePhone checks that a phone number is usable by the SMS, messaging and call channels.
func ValidatePhone(phone string) error {
	if !PhonePattern.MatchString(NormalizePhone(phone)) {
		return fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	return nil
}

// ValidateContact checks name and phone of an emergency contact.
func ValidateContact(c models.Contact) error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > MaxContactNameLen {
		return fmt.Errorf("contact name must not exceed %d characters", MaxContactNameLen)
	}
	return ValidatePhone(c.Phone)
}
