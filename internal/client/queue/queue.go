// Package queue is the durable operation queue. Mutations that could not be
// delivered are persisted before any network attempt and drained in FIFO
// order with bounded retries.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iudanet/guardian/internal/client/api"
	"github.com/iudanet/guardian/internal/client/notify"
	"github.com/iudanet/guardian/internal/client/storage"
	"github.com/iudanet/guardian/internal/models"
)

//go:generate moq -out executor_mock.go . Executor

const (
	keyPending     = "queue:pending"
	keyDeadLetters = "queue:dead"

	// DefaultMaxRetries is the number of failed attempts before an operation is dead-lettered.
	DefaultMaxRetries = 3
	// DefaultDrainDelay separates consecutive delivery attempts.
	DefaultDrainDelay = 500 * time.Millisecond
)

var (
	// ErrInvalidOperation is returned by Enqueue for operations that can never be delivered.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrNotFound is returned when a dead letter does not exist.
	ErrNotFound = errors.New("operation not found")
)

// Executor delivers one operation to the backend.
type Executor interface {
	Execute(ctx context.Context, op *models.QueuedOperation) error
}

// StatusSource is a connectivity feed, satisfied by *netmon.Monitor.
type StatusSource interface {
	Subscribe(fn func(online bool)) func()
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	Delivered    int
	Retrying     int
	DeadLettered int
	Remaining    int
	// Skipped is set when another drain was already running.
	Skipped bool
}

// Queue is the durable operation queue.
type Queue struct {
	store       storage.KVStore
	exec        Executor
	isTransient func(error) bool
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time
	logger      zerolog.Logger
	bus         notify.Bus[Event]
	maxRetries  int
	drainDelay  time.Duration

	// mu serializes read-modify-write of the persisted lists
	mu sync.Mutex

	procMu     sync.Mutex
	processing bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithMaxRetries sets the retry bound.
func WithMaxRetries(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxRetries = n
		}
	}
}

// WithDrainDelay sets the pause between delivery attempts.
func WithDrainDelay(d time.Duration) Option {
	return func(q *Queue) {
		if d >= 0 {
			q.drainDelay = d
		}
	}
}

// WithSleep replaces the context-aware sleep used between attempts.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(q *Queue) { q.sleep = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// New creates a queue persisting to store and delivering through exec.
func New(store storage.KVStore, exec Executor, logger zerolog.Logger, opts ...Option) *Queue {
	q := &Queue{
		store:       store,
		exec:        exec,
		logger:      logger,
		isTransient: api.IsTransient,
		sleep:       sleepCtx,
		now:         time.Now,
		maxRetries:  DefaultMaxRetries,
		drainDelay:  DefaultDrainDelay,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Subscribe registers fn for queue events.
func (q *Queue) Subscribe(fn func(Event)) func() {
	return q.bus.Subscribe(fn)
}

// Enqueue validates op, assigns an ID and enqueue time when missing,
// and persists it before returning.
func (q *Queue) Enqueue(ctx context.Context, op models.QueuedOperation) (models.QueuedOperation, error) {
	if err := validate(&op); err != nil {
		return op, err
	}
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	if op.EnqueuedAt.IsZero() {
		op.EnqueuedAt = q.now().UTC()
	}

	q.mu.Lock()
	pending, err := q.loadPending(ctx)
	if err == nil {
		pending = append(pending, op)
		err = q.savePending(ctx, pending)
	}
	q.mu.Unlock()
	if err != nil {
		return op, fmt.Errorf("enqueue %s: %w", op.ID, err)
	}

	q.logger.Debug().
		Str("op_id", op.ID).
		Str("entity", string(op.EntityType)).
		Str("kind", string(op.Kind)).
		Int("pending", len(pending)).
		Msg("operation enqueued")

	q.bus.Publish(Event{Type: EventEnqueued, Operation: op, Pending: len(pending)})
	return op, nil
}

// Pending returns queued operations in FIFO order.
func (q *Queue) Pending(ctx context.Context) ([]models.QueuedOperation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loadPending(ctx)
}

// PendingCount returns the number of queued operations.
func (q *Queue) PendingCount(ctx context.Context) (int, error) {
	pending, err := q.Pending(ctx)
	return len(pending), err
}

// HasPending reports whether an operation for entity is waiting.
func (q *Queue) HasPending(ctx context.Context, entity models.EntityType) (bool, error) {
	pending, err := q.Pending(ctx)
	if err != nil {
		return false, err
	}
	for _, op := range pending {
		if op.EntityType == entity {
			return true, nil
		}
	}
	return false, nil
}

// DeadLetters returns permanently failed operations, oldest first.
func (q *Queue) DeadLetters(ctx context.Context) ([]models.DeadLetter, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loadDeadLetters(ctx)
}

// ClearDeadLetters discards every dead letter.
func (q *Queue) ClearDeadLetters(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.store.Remove(ctx, keyDeadLetters); err != nil {
		return fmt.Errorf("clear dead letters: %w", err)
	}
	return nil
}

// Requeue moves a dead letter back to the tail of the queue with a fresh retry budget.
func (q *Queue) Requeue(ctx context.Context, id string) error {
	q.mu.Lock()
	dead, err := q.loadDeadLetters(ctx)
	if err != nil {
		q.mu.Unlock()
		return err
	}

	idx := -1
	for i := range dead {
		if dead[i].Operation.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		q.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	op := dead[idx].Operation
	op.RetryCount = 0
	dead = append(dead[:idx], dead[idx+1:]...)

	pending, err := q.loadPending(ctx)
	if err == nil {
		pending = append(pending, op)
		err = q.savePending(ctx, pending)
	}
	if err == nil {
		err = q.saveDeadLetters(ctx, dead)
	}
	q.mu.Unlock()
	if err != nil {
		return fmt.Errorf("requeue %s: %w", id, err)
	}

	q.bus.Publish(Event{Type: EventEnqueued, Operation: op, Pending: len(pending)})
	return nil
}

// Clear drops all pending operations and dead letters. Used on logout.
func (q *Queue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.store.Remove(ctx, keyPending); err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	if err := q.store.Remove(ctx, keyDeadLetters); err != nil {
		return fmt.Errorf("clear dead letters: %w", err)
	}
	return nil
}

// AttachMonitor drains the queue on every offline to online transition.
// The returned func detaches it.
func (q *Queue) AttachMonitor(ctx context.Context, source StatusSource) func() {
	var (
		mu   sync.Mutex
		prev *bool
	)

	return source.Subscribe(func(online bool) {
		mu.Lock()
		restored := prev != nil && !*prev && online
		prev = &online
		mu.Unlock()

		if !restored {
			return
		}

		q.logger.Info().Msg("connectivity restored, draining queue")
		go func() {
			if _, err := q.Drain(ctx); err != nil {
				q.logger.Error().Err(err).Msg("drain after reconnect failed")
			}
		}()
	})
}

func validate(op *models.QueuedOperation) error {
	switch {
	case !op.Kind.Valid():
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidOperation, op.Kind)
	case !op.EntityType.Valid():
		return fmt.Errorf("%w: unknown entity %q", ErrInvalidOperation, op.EntityType)
	case op.AuthToken == "":
		return fmt.Errorf("%w: missing auth token", ErrInvalidOperation)
	case op.Kind != models.OperationDelete && len(op.Payload) == 0:
		return fmt.Errorf("%w: %s without payload", ErrInvalidOperation, op.Kind)
	case len(op.Payload) > 0 && !json.Valid(op.Payload):
		return fmt.Errorf("%w: payload is not valid JSON", ErrInvalidOperation)
	}
	return nil
}

func (q *Queue) loadPending(ctx context.Context) ([]models.QueuedOperation, error) {
	ops := []models.QueuedOperation{}
	if err := q.loadJSON(ctx, keyPending, &ops); err != nil {
		return nil, err
	}
	return ops, nil
}

func (q *Queue) savePending(ctx context.Context, ops []models.QueuedOperation) error {
	if len(ops) == 0 {
		return q.store.Remove(ctx, keyPending)
	}
	return q.saveJSON(ctx, keyPending, ops)
}

func (q *Queue) loadDeadLetters(ctx context.Context) ([]models.DeadLetter, error) {
	dead := []models.DeadLetter{}
	if err := q.loadJSON(ctx, keyDeadLetters, &dead); err != nil {
		return nil, err
	}
	return dead, nil
}

func (q *Queue) saveDeadLetters(ctx context.Context, dead []models.DeadLetter) error {
	if len(dead) == 0 {
		return q.store.Remove(ctx, keyDeadLetters)
	}
	return q.saveJSON(ctx, keyDeadLetters, dead)
}

func (q *Queue) loadJSON(ctx context.Context, key string, dst any) error {
	raw, err := q.store.Get(ctx, key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (q *Queue) saveJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := q.store.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
