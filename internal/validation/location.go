package validation

import (
	"errors"
	"fmt"
	"math"

	"github.com/iudanet/guardian/internal/models"
)

// Coordinate bounds in degrees
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

var (
	// ErrNilSample indicates a missing sample
	ErrNilSample = errors.New("location sample is nil")
	// ErrLatitudeOutOfRange indicates latitude outside [-90, 90]
	ErrLatitudeOutOfRange = errors.New("latitude out of range")
	// ErrLongitudeOutOfRange indicates longitude outside [-180, 180]
	ErrLongitudeOutOfRange = errors.New("longitude out of range")
	// ErrInvalidTimestamp indicates a timestamp that does not parse to an instant
	ErrInvalidTimestamp = errors.New("invalid sample timestamp")
)

// ValidateLocationSample checks the coordinate ranges and the timestamp of a sample.
// NaN coordinates are rejected as out of range.
func ValidateLocationSample(s *models.LocationSample) error {
	if s == nil {
		return ErrNilSample
	}

	if math.IsNaN(s.Latitude) || s.Latitude < MinLatitude || s.Latitude > MaxLatitude {
		return fmt.Errorf("%w: %v", ErrLatitudeOutOfRange, s.Latitude)
	}

	if math.IsNaN(s.Longitude) || s.Longitude < MinLongitude || s.Longitude > MaxLongitude {
		return fmt.Errorf("%w: %v", ErrLongitudeOutOfRange, s.Longitude)
	}

	if _, err := s.Time(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
	}

	return nil
}
