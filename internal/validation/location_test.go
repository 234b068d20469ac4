package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/guardian/internal/models"
)

func TestValidateLocationSample(t *testing.T) {
	tests := []struct {
		sample  *models.LocationSample
		wantErr error
		name    string
	}{
		{
			name:   "valid sample",
			sample: &models.LocationSample{Latitude: 55.75, Longitude: 37.61, TimestampUTC: "2026-01-02T03:04:05Z"},
		},
		{
			name:   "boundaries are inclusive",
			sample: &models.LocationSample{Latitude: -90, Longitude: 180, TimestampUTC: "2026-01-02T03:04:05.123Z"},
		},
		{
			name:    "nil sample",
			sample:  nil,
			wantErr: ErrNilSample,
		},
		{
			name:    "latitude too high",
			sample:  &models.LocationSample{Latitude: 90.0001, Longitude: 0, TimestampUTC: "2026-01-02T03:04:05Z"},
			wantErr: ErrLatitudeOutOfRange,
		},
		{
			name:    "latitude too low",
			sample:  &models.LocationSample{Latitude: -91, Longitude: 0, TimestampUTC: "2026-01-02T03:04:05Z"},
			wantErr: ErrLatitudeOutOfRange,
		},
		{
			name:    "longitude too high",
			sample:  &models.LocationSample{Latitude: 0, Longitude: 180.5, TimestampUTC: "2026-01-02T03:04:05Z"},
			wantErr: ErrLongitudeOutOfRange,
		},
		{
			name:    "longitude too low",
			sample:  &models.LocationSample{Latitude: 0, Longitude: -200, TimestampUTC: "2026-01-02T03:04:05Z"},
			wantErr: ErrLongitudeOutOfRange,
		},
		{
			name:    "bad timestamp",
			sample:  &models.LocationSample{Latitude: 0, Longitude: 0, TimestampUTC: "yesterday"},
			wantErr: ErrInvalidTimestamp,
		},
		{
			name:    "empty timestamp",
			sample:  &models.LocationSample{Latitude: 0, Longitude: 0},
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLocationSample(tt.sample)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
