// Package location captures device positions, queues them durably and
// uploads them to the backend in batches.
package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iudanet/guardian/internal/client/notify"
	"github.com/iudanet/guardian/internal/client/storage"
	"github.com/iudanet/guardian/internal/models"
)

//go:generate moq -out uploader_mock.go . Uploader

// Defaults for the capture and upload policy.
const (
	DefaultThrottle      = 3 * time.Second
	DefaultStartDelay    = 3 * time.Second
	DefaultFixTimeout    = 3 * time.Second
	DefaultRetryDelay    = 2 * time.Second
	DefaultWatchInterval = 10 * time.Second
	DefaultMinDistanceM  = 10.0
	DefaultBatchSize     = 50
	DefaultMaxSampleAge  = 24 * time.Hour
)

var (
	// ErrNotInitialized is returned when the service has no session.
	ErrNotInitialized = errors.New("location service not initialized")
	// ErrUploadInProgress is returned by ForceSyncNow while another upload runs.
	ErrUploadInProgress = errors.New("upload already in progress")
	// ErrFixTooOld rejects a position older than the maximum sample age.
	ErrFixTooOld = errors.New("position fix too old to upload")
)

// Uploader posts sample batches to the backend.
type Uploader interface {
	PostLocations(ctx context.Context, token string, samples []models.LocationSample) error
}

// StatusSource is a connectivity feed, satisfied by *netmon.Monitor.
type StatusSource interface {
	Subscribe(fn func(online bool)) func()
}

// State is the tracking lifecycle state.
type State int

// Lifecycle: Uninitialized -> PendingStart -> Tracking -> Uninitialized.
const (
	StateUninitialized State = iota
	StatePendingStart
	StateTracking
)

func (s State) String() string {
	switch s {
	case StatePendingStart:
		return "pending_start"
	case StateTracking:
		return "tracking"
	default:
		return "uninitialized"
	}
}

// AppState is the host application lifecycle state.
type AppState int

// Application lifecycle states.
const (
	AppForeground AppState = iota
	AppBackground
)

// Status is published to subscribers after every change.
type Status struct {
	LastCapture time.Time
	LastUpload  time.Time
	LastError   string
	State       State
	QueueLength int
	// Dropped counts samples that expired unsent since the service started
	Dropped     int
	Uploading   bool
}

// Config tunes the capture and upload policy. Zero fields take defaults.
type Config struct {
	Throttle      time.Duration
	StartDelay    time.Duration
	FixTimeout    time.Duration
	RetryDelay    time.Duration
	WatchInterval time.Duration
	MaxSampleAge  time.Duration
	MinDistanceM  float64
	BatchSize     int
}

func (c Config) withDefaults() Config {
	if c.Throttle <= 0 {
		c.Throttle = DefaultThrottle
	}
	if c.StartDelay < 0 {
		c.StartDelay = 0
	} else if c.StartDelay == 0 {
		c.StartDelay = DefaultStartDelay
	}
	if c.FixTimeout <= 0 {
		c.FixTimeout = DefaultFixTimeout
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.WatchInterval <= 0 {
		c.WatchInterval = DefaultWatchInterval
	}
	if c.MaxSampleAge <= 0 {
		c.MaxSampleAge = DefaultMaxSampleAge
	}
	if c.MinDistanceM < 0 {
		c.MinDistanceM = 0
	} else if c.MinDistanceM == 0 {
		c.MinDistanceM = DefaultMinDistanceM
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	return c
}

// Service is the location capture service.
type Service struct {
	provider Provider
	uploader Uploader
	samples  *sampleQueue
	logger   zerolog.Logger
	now      func() time.Time
	// afterFunc schedules fn after d and returns a cancel func
	afterFunc func(d time.Duration, fn func()) func()
	monitor   StatusSource
	bus       notify.Bus[Status]
	cfg       Config

	mu           sync.Mutex
	state        State
	token        string
	userID       string
	generation   int
	lastAccepted time.Time
	status       Status
	cancelStart  func()
	cancelRetry  func()
	stopWatch    func()
	unsubMonitor func()

	uploadMu  sync.Mutex
	uploading bool
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the capture and upload policy.
func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithScheduler overrides time.AfterFunc.
func WithScheduler(afterFunc func(d time.Duration, fn func()) func()) Option {
	return func(s *Service) { s.afterFunc = afterFunc }
}

// NewService creates a service persisting samples to store.
func NewService(provider Provider, uploader Uploader, store storage.KVStore, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		uploader: uploader,
		logger:   logger,
		now:      time.Now,
		afterFunc: func(d time.Duration, fn func()) func() {
			t := time.AfterFunc(d, fn)
			return func() { t.Stop() }
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cfg = s.cfg.withDefaults()
	s.samples = &sampleQueue{store: store}
	return s
}

// Initialize starts tracking for an authenticated user after the start delay.
// It is a no-op returning false when token or userID is empty.
func (s *Service) Initialize(token, userID string) bool {
	if token == "" || userID == "" {
		s.logger.Warn().Msg("refusing to track without an authenticated user")
		return false
	}

	s.mu.Lock()
	s.token = token
	s.userID = userID
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return true
	}

	s.state = StatePendingStart
	s.generation++
	gen := s.generation
	s.cancelStart = s.afterFunc(s.cfg.StartDelay, func() { s.startTracking(gen) })
	if s.monitor != nil && s.unsubMonitor == nil {
		s.unsubMonitor = s.monitor.Subscribe(s.connectivityHandler())
	}
	s.mu.Unlock()

	s.logger.Info().Str("user_id", userID).Dur("start_delay", s.cfg.StartDelay).Msg("location tracking scheduled")
	s.publish()
	return true
}

// AttachMonitor uploads on every offline to online transition while initialized.
func (s *Service) AttachMonitor(m StatusSource) {
	s.mu.Lock()
	s.monitor = m
	subscribe := s.state != StateUninitialized && s.unsubMonitor == nil
	s.mu.Unlock()

	if subscribe {
		unsub := m.Subscribe(s.connectivityHandler())
		s.mu.Lock()
		s.unsubMonitor = unsub
		s.mu.Unlock()
	}
}

// Stop cancels timers, the position watch and listeners. An upload already
// in flight is not aborted. Queued samples stay persisted.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.state == StateUninitialized {
		s.mu.Unlock()
		return
	}
	s.state = StateUninitialized
	s.generation++
	s.token = ""
	s.userID = ""
	cancels := []func(){s.cancelStart, s.cancelRetry, s.stopWatch, s.unsubMonitor}
	s.cancelStart, s.cancelRetry, s.stopWatch, s.unsubMonitor = nil, nil, nil, nil
	s.mu.Unlock()

	for _, cancel := range cancels {
		if cancel != nil {
			cancel()
		}
	}

	s.logger.Info().Msg("location tracking stopped")
	s.publish()
}

// State returns the lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns the current status.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.State = s.state
	return st
}

// Subscribe calls fn with the current status and after every change.
func (s *Service) Subscribe(fn func(Status)) func() {
	unsubscribe := s.bus.Subscribe(fn)
	fn(s.Status())
	return unsubscribe
}

// OnAppStateChange schedules an upload when the app returns to the foreground.
func (s *Service) OnAppStateChange(state AppState) {
	if state != AppForeground || s.State() == StateUninitialized {
		return
	}
	s.logger.Debug().Msg("app in foreground, scheduling upload")
	s.scheduleUpload(0)
}

func (s *Service) connectivityHandler() func(bool) {
	var (
		mu   sync.Mutex
		prev *bool
	)
	return func(online bool) {
		mu.Lock()
		restored := prev != nil && !*prev && online
		prev = &online
		mu.Unlock()

		if restored {
			s.logger.Debug().Msg("connectivity restored, scheduling upload")
			s.scheduleUpload(0)
		}
	}
}

func (s *Service) startTracking(gen int) {
	s.mu.Lock()
	if gen != s.generation || s.state != StatePendingStart {
		s.mu.Unlock()
		return
	}
	s.state = StateTracking
	s.cancelStart = nil
	s.mu.Unlock()

	stop, err := s.provider.Watch(s.cfg.WatchInterval, s.cfg.MinDistanceM, func(pos Position) {
		s.capture(context.Background(), func(context.Context) *Position { return &pos })
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("position watch unavailable, manual capture only")
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		if stop != nil {
			stop()
		}
		return
	}
	s.stopWatch = stop
	s.mu.Unlock()

	s.logger.Info().Msg("location tracking started")
	s.publish()
	// flush samples left over from a previous session
	s.scheduleUpload(0)
}

func (s *Service) publish() {
	s.bus.Publish(s.Status())
}

func (s *Service) setStatus(fn func(*Status)) {
	s.mu.Lock()
	fn(&s.status)
	s.mu.Unlock()
	s.publish()
}
