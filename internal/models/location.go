package models

import (
	"fmt"
	"time"
)

// LocationSample is a single position fix queued for upload.
// Field names follow the backend's /location contract.
type LocationSample struct {
	Accuracy     *float64 `json:"accuracy,omitempty"` // meters
	Altitude     *float64 `json:"altitude,omitempty"` // meters
	Speed        *float64 `json:"speed,omitempty"`    // m/s
	Heading      *float64 `json:"heading,omitempty"`  // degrees
	TimestampUTC string   `json:"timestampUtc"`       // RFC3339 instant
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
}

// Time parses TimestampUTC.
func (s *LocationSample) Time() (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s.TimestampUTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid sample timestamp %q: %w", s.TimestampUTC, err)
	}
	return t, nil
}

// MapsURL returns a link that opens the sample in a map application.
func (s *LocationSample) MapsURL() string {
	return fmt.Sprintf("https://maps.google.com/?q=%.6f,%.6f", s.Latitude, s.Longitude)
}
