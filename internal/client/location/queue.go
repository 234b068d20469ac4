package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/iudanet/guardian/internal/client/storage"
	"github.com/iudanet/guardian/internal/models"
)

const (
	keySamples = "location:queue"
	// keyDropped counts samples discarded unsent because they expired
	keyDropped = "location:dropped"
)

// sampleQueue is the persisted upload queue, stored as one JSON array.
type sampleQueue struct {
	store storage.KVStore
	mu    sync.Mutex
}

func (q *sampleQueue) append(ctx context.Context, sample models.LocationSample) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	samples, err := q.load(ctx)
	if err != nil {
		return 0, err
	}
	samples = append(samples, sample)
	if err := q.save(ctx, samples); err != nil {
		return 0, err
	}
	return len(samples), nil
}

func (q *sampleQueue) head(ctx context.Context, n int) ([]models.LocationSample, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	samples, err := q.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(samples) > n {
		samples = samples[:n]
	}
	return samples, nil
}

func (q *sampleQueue) all(ctx context.Context) ([]models.LocationSample, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load(ctx)
}

// removeUploaded drops exactly the uploaded samples; anything captured
// during the upload stays queued.
func (q *sampleQueue) removeUploaded(ctx context.Context, uploaded []models.LocationSample) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	samples, err := q.load(ctx)
	if err != nil {
		return 0, err
	}

	done := make(map[string]int, len(uploaded))
	for _, s := range uploaded {
		done[sampleKey(s)]++
	}

	kept := samples[:0]
	for _, s := range samples {
		k := sampleKey(s)
		if done[k] > 0 {
			done[k]--
			continue
		}
		kept = append(kept, s)
	}

	if err := q.save(ctx, kept); err != nil {
		return 0, err
	}
	return len(kept), nil
}

// prune drops samples captured before cutoff, adds them to the persisted
// dropped counter and reports how many were dropped.
func (q *sampleQueue) prune(ctx context.Context, cutoff time.Time) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	samples, err := q.load(ctx)
	if err != nil {
		return 0, err
	}

	kept := samples[:0]
	for _, s := range samples {
		ts, err := s.Time()
		if err == nil && ts.Before(cutoff) {
			continue
		}
		kept = append(kept, s)
	}

	dropped := len(samples) - len(kept)
	if dropped == 0 {
		return 0, nil
	}

	total, err := q.loadDropped(ctx)
	if err != nil {
		return 0, err
	}
	if err := q.store.Set(ctx, keyDropped, strconv.Itoa(total+dropped)); err != nil {
		return 0, fmt.Errorf("write dropped count: %w", err)
	}
	return dropped, q.save(ctx, kept)
}

func (q *sampleQueue) droppedCount(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loadDropped(ctx)
}

func (q *sampleQueue) loadDropped(ctx context.Context) (int, error) {
	raw, err := q.store.Get(ctx, keyDropped)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read dropped count: %w", err)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("decode dropped count: %w", err)
	}
	return n, nil
}

func (q *sampleQueue) load(ctx context.Context) ([]models.LocationSample, error) {
	raw, err := q.store.Get(ctx, keySamples)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return []models.LocationSample{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sample queue: %w", err)
	}

	samples := []models.LocationSample{}
	if err := json.Unmarshal([]byte(raw), &samples); err != nil {
		return nil, fmt.Errorf("decode sample queue: %w", err)
	}
	return samples, nil
}

func (q *sampleQueue) save(ctx context.Context, samples []models.LocationSample) error {
	if len(samples) == 0 {
		if err := q.store.Remove(ctx, keySamples); err != nil {
			return fmt.Errorf("clear sample queue: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(samples)
	if err != nil {
		return fmt.Errorf("encode sample queue: %w", err)
	}
	if err := q.store.Set(ctx, keySamples, string(raw)); err != nil {
		return fmt.Errorf("write sample queue: %w", err)
	}
	return nil
}

func (q *sampleQueue) clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.store.Remove(ctx, keySamples); err != nil {
		return fmt.Errorf("clear sample queue: %w", err)
	}
	if err := q.store.Remove(ctx, keyDropped); err != nil {
		return fmt.Errorf("clear dropped count: %w", err)
	}
	return nil
}

func sampleKey(s models.LocationSample) string {
	return fmt.Sprintf("%s|%.7f|%.7f", s.TimestampUTC, s.Latitude, s.Longitude)
}

// Pending returns the queued samples, oldest first.
func (s *Service) Pending(ctx context.Context) ([]models.LocationSample, error) {
	return s.samples.all(ctx)
}

// DroppedCount reports how many queued samples expired before they could be
// uploaded, across restarts.
func (s *Service) DroppedCount(ctx context.Context) (int, error) {
	return s.samples.droppedCount(ctx)
}

// Clear drops every queued sample and the dropped counter. Used on logout.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.samples.clear(ctx); err != nil {
		return err
	}
	s.setStatus(func(st *Status) { st.QueueLength = 0 })
	return nil
}
