package location

import (
	"context"
	"time"

	"github.com/iudanet/guardian/internal/models"
	"github.com/iudanet/guardian/internal/validation"
)

// CaptureNow acquires a position and queues it. It returns nil when the
// service is not initialized, the call is throttled, no fix is available,
// the fix is older than MaxSampleAge, or the sample could not be persisted. The upload runs in the background.
func (s *Service) CaptureNow(ctx context.Context) *models.LocationSample {
	return s.capture(ctx, s.acquire)
}

func (s *Service) capture(ctx context.Context, acquire func(context.Context) *Position) *models.LocationSample {
	prev, ok := s.reserveCapture()
	if !ok {
		return nil
	}

	pos := acquire(ctx)
	if pos == nil {
		s.releaseCapture(prev)
		s.logger.Warn().Msg("no position available")
		return nil
	}

	sample := toSample(*pos, s.now())
	if err := validation.ValidateLocationSample(&sample); err != nil {
		s.releaseCapture(prev)
		s.logger.Warn().Err(err).Msg("rejecting invalid sample")
		return nil
	}
	if ts, err := sample.Time(); err == nil && s.now().Sub(ts) > s.cfg.MaxSampleAge {
		s.releaseCapture(prev)
		s.logger.Warn().Time("fix_time", ts).Dur("max_age", s.cfg.MaxSampleAge).Msg("rejecting expired fix")
		s.setStatus(func(st *Status) { st.LastError = ErrFixTooOld.Error() })
		return nil
	}

	n, err := s.samples.append(ctx, sample)
	if err != nil {
		s.releaseCapture(prev)
		s.logger.Error().Err(err).Msg("failed to persist sample")
		s.setStatus(func(st *Status) { st.LastError = err.Error() })
		return nil
	}

	s.logger.Debug().
		Float64("lat", sample.Latitude).
		Float64("lon", sample.Longitude).
		Int("queued", n).
		Msg("sample captured")

	captured := s.now()
	s.setStatus(func(st *Status) {
		st.LastCapture = captured
		st.QueueLength = n
	})

	s.scheduleUpload(0)
	return &sample
}

// reserveCapture claims the throttle window. It returns the previous
// acceptance time so a failed capture can give the window back.
func (s *Service) reserveCapture() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateUninitialized || s.token == "" {
		return time.Time{}, false
	}

	now := s.now()
	prev := s.lastAccepted
	if !prev.IsZero() && now.Sub(prev) < s.cfg.Throttle {
		s.logger.Debug().Dur("since_last", now.Sub(prev)).Msg("capture throttled")
		return time.Time{}, false
	}
	s.lastAccepted = now
	return prev, true
}

func (s *Service) releaseCapture(prev time.Time) {
	s.mu.Lock()
	s.lastAccepted = prev
	s.mu.Unlock()
}

// acquire tries a fresh fix within FixTimeout and falls back to the last known position.
func (s *Service) acquire(ctx context.Context) *Position {
	fixCtx, cancel := context.WithTimeout(ctx, s.cfg.FixTimeout)
	pos, err := s.provider.CurrentPosition(fixCtx, AccuracyHigh)
	cancel()
	if err == nil && pos != nil {
		return pos
	}

	s.logger.Warn().Err(err).Msg("fresh fix failed, using last known position")

	last, err := s.provider.LastKnownPosition(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("last known position unavailable")
		return nil
	}
	return last
}

func toSample(pos Position, now time.Time) models.LocationSample {
	ts := pos.Timestamp
	if ts.IsZero() {
		ts = now
	}
	return models.LocationSample{
		Latitude:     pos.Latitude,
		Longitude:    pos.Longitude,
		TimestampUTC: ts.UTC().Format(time.RFC3339Nano),
		Accuracy:     pos.Accuracy,
		Altitude:     pos.Altitude,
		Speed:        pos.Speed,
		Heading:      pos.Heading,
	}
}
