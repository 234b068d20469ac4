package location

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ForceSyncNow uploads one batch synchronously.
func (s *Service) ForceSyncNow(ctx context.Context) error {
	return s.upload(ctx)
}

// scheduleUpload runs an upload in the background after d.
func (s *Service) scheduleUpload(d time.Duration) {
	run := func() {
		if err := s.upload(context.Background()); err != nil && !errors.Is(err, ErrUploadInProgress) {
			s.logger.Warn().Err(err).Msg("background upload failed")
		}
	}

	if d <= 0 {
		go run()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateUninitialized {
		return
	}
	if s.cancelRetry != nil {
		s.cancelRetry()
	}
	s.cancelRetry = s.afterFunc(d, run)
}

func (s *Service) upload(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return ErrNotInitialized
	}

	if !s.tryStartUpload() {
		return ErrUploadInProgress
	}
	defer s.finishUpload()

	pruned, err := s.samples.prune(ctx, s.now().Add(-s.cfg.MaxSampleAge))
	if err != nil {
		return err
	}
	dropNote := ""
	if pruned > 0 {
		s.logger.Warn().Int("dropped", pruned).Dur("max_age", s.cfg.MaxSampleAge).Msg("dropped expired samples")
		dropNote = fmt.Sprintf("dropped %d sample(s) older than %s", pruned, s.cfg.MaxSampleAge)
		s.setStatus(func(st *Status) {
			st.Dropped += pruned
			st.LastError = dropNote
		})
	}

	batch, err := s.samples.head(ctx, s.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	s.setStatus(func(st *Status) { st.Uploading = true })

	if err := s.uploader.PostLocations(ctx, token, batch); err != nil {
		s.setStatus(func(st *Status) {
			st.Uploading = false
			st.LastError = err.Error()
		})
		return fmt.Errorf("upload %d samples: %w", len(batch), err)
	}

	remaining, err := s.samples.removeUploaded(ctx, batch)
	if err != nil {
		s.setStatus(func(st *Status) { st.Uploading = false })
		return err
	}

	uploaded := s.now()
	s.setStatus(func(st *Status) {
		st.Uploading = false
		st.LastUpload = uploaded
		st.LastError = dropNote
		st.QueueLength = remaining
	})

	s.logger.Info().Int("uploaded", len(batch)).Int("remaining", remaining).Msg("samples uploaded")

	if remaining > 0 {
		s.scheduleUpload(s.cfg.RetryDelay)
	}
	return nil
}

func (s *Service) tryStartUpload() bool {
	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()
	if s.uploading {
		return false
	}
	s.uploading = true
	return true
}

func (s *Service) finishUpload() {
	s.uploadMu.Lock()
	s.uploading = false
	s.uploadMu.Unlock()
}
