// Package sync coordinates synchronization of contacts, profile and medical
// info between the local cache, the durable queue and the backend.
package sync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iudanet/guardian/internal/client/cache"
	"github.com/iudanet/guardian/internal/client/notify"
	"github.com/iudanet/guardian/internal/client/queue"
	"github.com/iudanet/guardian/internal/client/storage"
	"github.com/iudanet/guardian/internal/models"
)

//go:generate moq -out remoteapi_mock.go . RemoteAPI

const (
	lastSyncKeyPrefix = "sync:last:"
	maxStateErrors    = 50
)

// ErrUnauthenticated is returned for mutations without a token.
var ErrUnauthenticated = errors.New("not authenticated")

// OperationQueue is the subset of the durable queue the orchestrator drives.
type OperationQueue interface {
	Enqueue(ctx context.Context, op models.QueuedOperation) (models.QueuedOperation, error)
	Drain(ctx context.Context) (*queue.DrainResult, error)
	PendingCount(ctx context.Context) (int, error)
	HasPending(ctx context.Context, entity models.EntityType) (bool, error)
	Subscribe(fn func(queue.Event)) func()
}

// StatusSource reports connectivity, satisfied by *netmon.Monitor.
type StatusSource interface {
	Status() bool
	Subscribe(fn func(online bool)) func()
}

// EntitySyncer pulls one entity type from the backend into the cache.
type EntitySyncer interface {
	Entity() models.EntityType
	Sync(ctx context.Context, token string) error
}

// Orchestrator is the only writer of SyncState.
type Orchestrator struct {
	queue   OperationQueue
	cache   *cache.Cache
	monitor StatusSource
	exec    queue.Executor
	store   storage.KVStore
	now     func() time.Time
	logger  zerolog.Logger
	bus     notify.Bus[models.SyncState]
	syncers []EntitySyncer
	unsubs  []func()
	drains  stdsync.WaitGroup

	// publishMu orders state publications; mu guards state
	publishMu stdsync.Mutex
	mu        stdsync.RWMutex
	state     models.SyncState
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithExecutor delivers mutations directly while online and the queue is empty.
func WithExecutor(exec queue.Executor) Option {
	return func(o *Orchestrator) { o.exec = exec }
}

// WithStore persists lastSyncPerEntity.
func WithStore(store storage.KVStore) Option {
	return func(o *Orchestrator) { o.store = store }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator wires the orchestrator to queue events and connectivity.
// Call Close to detach.
func NewOrchestrator(q OperationQueue, c *cache.Cache, monitor StatusSource, syncers []EntitySyncer, logger zerolog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		queue:   q,
		cache:   c,
		monitor: monitor,
		syncers: syncers,
		logger:  logger,
		now:     time.Now,
		state:   models.NewSyncState(),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.state.IsOnline = monitor.Status()
	o.unsubs = append(o.unsubs,
		q.Subscribe(o.onQueueEvent),
		monitor.Subscribe(o.onConnectivity),
	)
	return o
}

// Close detaches the orchestrator from the queue and monitor.
func (o *Orchestrator) Close() {
	for _, unsub := range o.unsubs {
		unsub()
	}
	o.unsubs = nil
}

// Wait blocks until background drains started by mutations have finished.
func (o *Orchestrator) Wait() {
	o.drains.Wait()
}

// Load restores persisted lastSyncPerEntity and the pending count.
func (o *Orchestrator) Load(ctx context.Context) error {
	pending, err := o.queue.PendingCount(ctx)
	if err != nil {
		return fmt.Errorf("count pending operations: %w", err)
	}

	last := make(map[models.EntityType]time.Time)
	if o.store != nil {
		for _, entity := range models.AllEntities {
			raw, err := o.store.Get(ctx, lastSyncKeyPrefix+string(entity))
			if errors.Is(err, storage.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("read last sync of %s: %w", entity, err)
			}
			ts, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				o.logger.Warn().Err(err).Str("entity", string(entity)).Msg("ignoring corrupt last sync time")
				continue
			}
			last[entity] = ts
		}
	}

	o.update(func(s *models.SyncState) {
		s.PendingOperationCount = pending
		for entity, ts := range last {
			s.LastSyncPerEntity[entity] = ts
		}
	})
	return nil
}

// State returns a copy of the current state.
func (o *Orchestrator) State() models.SyncState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state.Clone()
}

// Subscribe calls fn with the current state, then after every transition.
// Callbacks must not call mutating orchestrator methods synchronously.
func (o *Orchestrator) Subscribe(fn func(models.SyncState)) func() {
	o.publishMu.Lock()
	defer o.publishMu.Unlock()

	unsubscribe := o.bus.Subscribe(fn)
	fn(o.State())
	return unsubscribe
}

// Reset clears the state and persisted sync times. Used on logout.
func (o *Orchestrator) Reset(ctx context.Context) error {
	if o.store != nil {
		for _, entity := range models.AllEntities {
			if err := o.store.Remove(ctx, lastSyncKeyPrefix+string(entity)); err != nil {
				return fmt.Errorf("reset last sync of %s: %w", entity, err)
			}
		}
	}

	online := o.monitor.Status()
	o.update(func(s *models.SyncState) {
		*s = models.NewSyncState()
		s.IsOnline = online
	})
	return nil
}

// SyncAll drains the queue and pulls every entity. It returns false when
// another pass is running or any step failed.
func (o *Orchestrator) SyncAll(ctx context.Context, token string) bool {
	if !o.tryStartSync() {
		o.logger.Debug().Msg("sync already in progress")
		return false
	}

	o.logger.Info().Int("entities", len(o.syncers)).Msg("starting synchronization")

	if token == "" {
		o.finishSync(nil, []string{ErrUnauthenticated.Error()})
		return false
	}

	var failures []string

	if _, err := o.queue.Drain(ctx); err != nil {
		o.logger.Error().Err(err).Msg("queue drain failed")
		failures = append(failures, fmt.Sprintf("queue: %v", err))
	}

	errs := make([]error, len(o.syncers))
	var g errgroup.Group
	for i, s := range o.syncers {
		g.Go(func() error {
			errs[i] = s.Sync(ctx, token)
			return nil
		})
	}
	_ = g.Wait()

	var succeeded []models.EntityType
	for i, s := range o.syncers {
		if errors.Is(errs[i], ErrPullSkipped) {
			continue
		}
		if errs[i] != nil {
			o.logger.Warn().Err(errs[i]).Str("entity", string(s.Entity())).Msg("entity sync failed")
			failures = append(failures, fmt.Sprintf("%s: %v", s.Entity(), errs[i]))
			continue
		}
		succeeded = append(succeeded, s.Entity())
	}

	o.finishSync(succeeded, failures)

	o.logger.Info().
		Int("succeeded", len(succeeded)).
		Int("failed", len(failures)).
		Msg("synchronization completed")

	return len(failures) == 0
}

func (o *Orchestrator) tryStartSync() bool {
	o.publishMu.Lock()
	defer o.publishMu.Unlock()

	o.mu.Lock()
	if o.state.IsSyncing {
		o.mu.Unlock()
		return false
	}
	o.state.IsSyncing = true
	snapshot := o.state.Clone()
	o.mu.Unlock()

	o.bus.Publish(snapshot)
	return true
}

func (o *Orchestrator) finishSync(succeeded []models.EntityType, failures []string) {
	now := o.now().UTC()
	for _, entity := range succeeded {
		o.persistLastSync(entity, now)
	}

	o.update(func(s *models.SyncState) {
		s.IsSyncing = false
		for _, entity := range succeeded {
			s.LastSyncPerEntity[entity] = now
		}
		appendErrors(s, failures...)
	})
}

func (o *Orchestrator) onConnectivity(online bool) {
	o.mu.RLock()
	same := o.state.IsOnline == online
	o.mu.RUnlock()
	if same {
		return
	}
	o.update(func(s *models.SyncState) { s.IsOnline = online })
}

func (o *Orchestrator) onQueueEvent(ev queue.Event) {
	entity := ev.Operation.EntityType

	switch ev.Type {
	case queue.EventDelivered:
		o.markDelivered(context.Background(), entity, ev.Pending)
	case queue.EventDeadLettered:
		msg := fmt.Sprintf("%s %s dropped after %d attempts: %v", entity, ev.Operation.Kind, ev.Operation.RetryCount, ev.Err)
		o.update(func(s *models.SyncState) {
			s.PendingOperationCount = ev.Pending
			appendErrors(s, msg)
		})
		o.releaseLocalHold(context.Background(), entity)
	default:
		o.update(func(s *models.SyncState) { s.PendingOperationCount = ev.Pending })
	}
}

// markDelivered flags the entity synced once nothing for it is left in the queue.
func (o *Orchestrator) markDelivered(ctx context.Context, entity models.EntityType, pending int) {
	stillPending := false
	if pending > 0 {
		var err error
		if stillPending, err = o.queue.HasPending(ctx, entity); err != nil {
			o.logger.Error().Err(err).Msg("cannot inspect queue")
			stillPending = true
		}
	}

	now := o.now().UTC()
	if !stillPending {
		if err := o.cache.MarkSynced(ctx, string(entity)); err != nil {
			o.logger.Error().Err(err).Str("entity", string(entity)).Msg("cannot mark cache entry synced")
		}
		o.persistLastSync(entity, now)
	}

	o.update(func(s *models.SyncState) {
		s.PendingOperationCount = pending
		if !stillPending {
			s.LastSyncPerEntity[entity] = now
		}
	})
}

// releaseLocalHold marks the entity's cache entry synced once no operation
// for it is queued, so the next pull replaces a change the backend rejected.
// lastSyncPerEntity is left alone: nothing was delivered.
func (o *Orchestrator) releaseLocalHold(ctx context.Context, entity models.EntityType) {
	pending, err := o.queue.HasPending(ctx, entity)
	if err != nil {
		o.logger.Error().Err(err).Msg("cannot inspect queue")
		return
	}
	if pending {
		return
	}
	if err := o.cache.MarkSynced(ctx, string(entity)); err != nil {
		o.logger.Error().Err(err).Str("entity", string(entity)).Msg("cannot release rejected local change")
	}
}

func (o *Orchestrator) persistLastSync(entity models.EntityType, ts time.Time) {
	if o.store == nil {
		return
	}
	if err := o.store.Set(context.Background(), lastSyncKeyPrefix+string(entity), ts.Format(time.RFC3339Nano)); err != nil {
		o.logger.Error().Err(err).Str("entity", string(entity)).Msg("cannot persist last sync time")
	}
}

// update applies fn to the state and publishes the result.
func (o *Orchestrator) update(fn func(*models.SyncState)) {
	o.publishMu.Lock()
	defer o.publishMu.Unlock()

	o.mu.Lock()
	fn(&o.state)
	snapshot := o.state.Clone()
	o.mu.Unlock()

	o.bus.Publish(snapshot)
}

func appendErrors(s *models.SyncState, msgs ...string) {
	s.Errors = append(s.Errors, msgs...)
	if over := len(s.Errors) - maxStateErrors; over > 0 {
		s.Errors = append([]string{}, s.Errors[over:]...)
	}
}
