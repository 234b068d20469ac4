package location

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/guardian/internal/client/netmon"
	"github.com/iudanet/guardian/internal/client/storage/memory"
	"github.com/iudanet/guardian/internal/models"
)

var errOffline = errors.New("offline")

type fakeClock struct {
	t  time.Time
	mu sync.Mutex
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type scheduled struct {
	fn        func()
	d         time.Duration
	cancelled bool
}

type manualScheduler struct {
	tasks []*scheduled
	mu    sync.Mutex
}

func (m *manualScheduler) afterFunc(d time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	task := &scheduled{d: d, fn: fn}
	m.tasks = append(m.tasks, task)
	return func() {
		m.mu.Lock()
		task.cancelled = true
		m.mu.Unlock()
	}
}

func (m *manualScheduler) pending() []*scheduled {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*scheduled
	for _, t := range m.tasks {
		if !t.cancelled {
			out = append(out, t)
		}
	}
	return out
}

type fakeProvider struct {
	current    *Position
	currentErr error
	last       *Position
	watchFn    func(Position)
	watchStops int
	mu         sync.Mutex
}

func (p *fakeProvider) CurrentPosition(ctx context.Context, _ Accuracy) (*Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.currentErr != nil {
		return nil, p.currentErr
	}
	if p.current == nil {
		return nil, ErrNoFix
	}
	pos := *p.current
	return &pos, nil
}

func (p *fakeProvider) LastKnownPosition(context.Context) (*Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return nil, nil
	}
	pos := *p.last
	return &pos, nil
}

func (p *fakeProvider) Watch(_ time.Duration, _ float64, fn func(Position)) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.watchFn = fn
	return func() {
		p.mu.Lock()
		p.watchStops++
		p.mu.Unlock()
	}, nil
}

type testEnv struct {
	svc       *Service
	provider  *fakeProvider
	uploader  *UploaderMock
	store     *memory.Store
	clock     *fakeClock
	scheduler *manualScheduler
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	acc := 5.0
	env := &testEnv{
		provider: &fakeProvider{
			current: &Position{Latitude: 55.7558, Longitude: 37.6173, Accuracy: &acc},
		},
		uploader: &UploaderMock{
			PostLocationsFunc: func(ctx context.Context, token string, samples []models.LocationSample) error {
				return errOffline
			},
		},
		store:     memory.New(),
		clock:     &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		scheduler: &manualScheduler{},
	}
	env.svc = NewService(env.provider, env.uploader, env.store, zerolog.Nop(),
		WithConfig(cfg),
		WithClock(env.clock.now),
		WithScheduler(env.scheduler.afterFunc),
	)
	t.Cleanup(env.svc.Stop)
	return env
}

func (e *testEnv) seed(t *testing.T, samples ...models.LocationSample) {
	t.Helper()
	raw, err := json.Marshal(samples)
	require.NoError(t, err)
	require.NoError(t, e.store.Set(context.Background(), keySamples, string(raw)))
}

func (e *testEnv) waitIdle(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		e.svc.uploadMu.Lock()
		defer e.svc.uploadMu.Unlock()
		return !e.svc.uploading
	}, time.Second, time.Millisecond)
}

func sampleAt(ts time.Time, lat float64) models.LocationSample {
	return models.LocationSample{Latitude: lat, Longitude: 10, TimestampUTC: ts.UTC().Format(time.RFC3339Nano)}
}

func TestInitialize_RequiresCredentials(t *testing.T) {
	env := newTestEnv(t, Config{})

	assert.False(t, env.svc.Initialize("", "user-1"))
	assert.False(t, env.svc.Initialize("tok", ""))
	assert.Equal(t, StateUninitialized, env.svc.State())
	assert.Empty(t, env.scheduler.pending())
	assert.Nil(t, env.svc.CaptureNow(context.Background()), "never captures for an unauthenticated user")
}

func TestLifecycle(t *testing.T) {
	env := newTestEnv(t, Config{StartDelay: 3 * time.Second})

	var states []State
	env.svc.Subscribe(func(s Status) { states = append(states, s.State) })

	require.True(t, env.svc.Initialize("tok", "user-1"))
	assert.Equal(t, StatePendingStart, env.svc.State(), "tracking never starts synchronously")

	tasks := env.scheduler.pending()
	require.Len(t, tasks, 1)
	assert.Equal(t, 3*time.Second, tasks[0].d)

	tasks[0].fn()
	assert.Equal(t, StateTracking, env.svc.State())
	env.provider.mu.Lock()
	assert.NotNil(t, env.provider.watchFn)
	env.provider.mu.Unlock()

	env.svc.Stop()
	assert.Equal(t, StateUninitialized, env.svc.State())
	env.provider.mu.Lock()
	assert.Equal(t, 1, env.provider.watchStops)
	env.provider.mu.Unlock()

	assert.Equal(t, []State{StateUninitialized, StatePendingStart, StateTracking, StateUninitialized}, states)
	env.waitIdle(t)
}

func TestStopBeforeStartCancelsTracking(t *testing.T) {
	env := newTestEnv(t, Config{})
	require.True(t, env.svc.Initialize("tok", "user-1"))

	start := env.scheduler.pending()[0]
	env.svc.Stop()
	assert.True(t, start.cancelled)

	// a timer that fires anyway must not resurrect tracking
	start.fn()
	assert.Equal(t, StateUninitialized, env.svc.State())
}

func TestCaptureNow_Throttle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{Throttle: 3 * time.Second})
	require.True(t, env.svc.Initialize("tok", "user-1"))

	first := env.svc.CaptureNow(ctx)
	require.NotNil(t, first)

	env.clock.advance(2 * time.Second)
	assert.Nil(t, env.svc.CaptureNow(ctx), "second capture inside the throttle window")

	env.clock.advance(time.Second)
	assert.NotNil(t, env.svc.CaptureNow(ctx))

	env.waitIdle(t)
	pending, err := env.svc.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestCaptureNow_FallsBackToLastKnown(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})
	env.provider.currentErr = context.DeadlineExceeded
	env.provider.last = &Position{Latitude: 1.5, Longitude: 2.5, Timestamp: env.clock.now().Add(-time.Minute)}
	require.True(t, env.svc.Initialize("tok", "user-1"))

	sample := env.svc.CaptureNow(ctx)
	require.NotNil(t, sample)
	assert.Equal(t, 1.5, sample.Latitude)
	assert.Equal(t, "2026-03-01T11:59:00Z", sample.TimestampUTC)
	env.waitIdle(t)
}

func TestCaptureNow_NoFixReleasesThrottle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})
	env.provider.current = nil
	require.True(t, env.svc.Initialize("tok", "user-1"))

	assert.Nil(t, env.svc.CaptureNow(ctx))

	env.provider.current = &Position{Latitude: 3, Longitude: 4}
	assert.NotNil(t, env.svc.CaptureNow(ctx), "a failed capture does not consume the throttle window")
	env.waitIdle(t)
}

func TestCaptureNow_RejectsInvalidCoordinates(t *testing.T) {
	tests := []struct {
		name string
		pos  Position
	}{
		{name: "latitude above range", pos: Position{Latitude: 90.0001, Longitude: 0}},
		{name: "latitude below range", pos: Position{Latitude: -91, Longitude: 0}},
		{name: "longitude above range", pos: Position{Latitude: 0, Longitude: 180.5}},
		{name: "longitude below range", pos: Position{Latitude: 0, Longitude: -181}},
		{name: "not a number", pos: Position{Latitude: math.NaN(), Longitude: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			env := newTestEnv(t, Config{})
			pos := tt.pos
			env.provider.current = &pos
			require.True(t, env.svc.Initialize("tok", "user-1"))

			assert.Nil(t, env.svc.CaptureNow(ctx))

			pending, err := env.svc.Pending(ctx)
			require.NoError(t, err)
			assert.Empty(t, pending, "invalid samples never reach the queue")
		})
	}
}

func TestCaptureNow_RoundTripsThroughPersistence(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})
	acc, alt, speed, heading := 3.5, 120.25, 1.75, 270.0
	env.provider.current = &Position{
		Latitude:  -33.868820,
		Longitude: 151.209296,
		Accuracy:  &acc,
		Altitude:  &alt,
		Speed:     &speed,
		Heading:   &heading,
		Timestamp: time.Date(2026, 3, 1, 11, 30, 15, 123000000, time.UTC),
	}
	require.True(t, env.svc.Initialize("tok", "user-1"))

	sample := env.svc.CaptureNow(ctx)
	require.NotNil(t, sample)
	env.waitIdle(t)

	// a new service over the same store sees the identical sample
	reopened := NewService(env.provider, env.uploader, env.store, zerolog.Nop())
	pending, err := reopened.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, *sample, pending[0])
	assert.Equal(t, "2026-03-01T11:30:15.123Z", pending[0].TimestampUTC)
}

func TestWatchCallbackIsThrottled(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{Throttle: 3 * time.Second})
	require.True(t, env.svc.Initialize("tok", "user-1"))
	env.scheduler.pending()[0].fn()

	env.provider.mu.Lock()
	watch := env.provider.watchFn
	env.provider.mu.Unlock()
	require.NotNil(t, watch)

	watch(Position{Latitude: 1, Longitude: 1})
	watch(Position{Latitude: 2, Longitude: 2})
	env.clock.advance(3 * time.Second)
	watch(Position{Latitude: 3, Longitude: 3})
	env.waitIdle(t)

	pending, err := env.svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, 1.0, pending[0].Latitude)
	assert.Equal(t, 3.0, pending[1].Latitude)
}

func TestForceSyncNow_Batches(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{BatchSize: 2, RetryDelay: 2 * time.Second})
	now := env.clock.now()
	env.seed(t, sampleAt(now, 1), sampleAt(now, 2), sampleAt(now, 3))

	var batches [][]models.LocationSample
	env.uploader.PostLocationsFunc = func(ctx context.Context, token string, samples []models.LocationSample) error {
		assert.Equal(t, "tok", token)
		batches = append(batches, samples)
		return nil
	}
	require.True(t, env.svc.Initialize("tok", "user-1"))

	require.NoError(t, env.svc.ForceSyncNow(ctx))
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 2)
	assert.Equal(t, 1, env.svc.Status().QueueLength)

	var retry *scheduled
	for _, task := range env.scheduler.pending() {
		if task.d == 2*time.Second {
			retry = task
		}
	}
	require.NotNil(t, retry, "remaining samples schedule another attempt")

	retry.fn()
	env.waitIdle(t)
	require.Len(t, batches, 2)
	assert.Equal(t, 3.0, batches[1][0].Latitude)

	pending, err := env.svc.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestForceSyncNow_KeepsSamplesCapturedDuringUpload(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})
	now := env.clock.now()
	env.seed(t, sampleAt(now, 1), sampleAt(now, 2))

	late := sampleAt(now.Add(time.Second), 9)
	env.uploader.PostLocationsFunc = func(ctx context.Context, token string, samples []models.LocationSample) error {
		_, err := env.svc.samples.append(ctx, late)
		return err
	}
	require.True(t, env.svc.Initialize("tok", "user-1"))

	require.NoError(t, env.svc.ForceSyncNow(ctx))

	pending, err := env.svc.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.LocationSample{late}, pending)
}

func TestForceSyncNow_FailureKeepsQueue(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})
	env.seed(t, sampleAt(env.clock.now(), 1))
	require.True(t, env.svc.Initialize("tok", "user-1"))

	err := env.svc.ForceSyncNow(ctx)
	require.ErrorIs(t, err, errOffline)

	pending, err := env.svc.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Equal(t, errOffline.Error(), env.svc.Status().LastError)
}

func TestForceSyncNow_PrunesExpiredSamples(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{MaxSampleAge: 24 * time.Hour})
	now := env.clock.now()
	env.seed(t, sampleAt(now.Add(-25*time.Hour), 1), sampleAt(now.Add(-time.Hour), 2))

	var sent []models.LocationSample
	env.uploader.PostLocationsFunc = func(ctx context.Context, token string, samples []models.LocationSample) error {
		sent = samples
		return nil
	}
	require.True(t, env.svc.Initialize("tok", "user-1"))

	require.NoError(t, env.svc.ForceSyncNow(ctx))
	require.Len(t, sent, 1)
	assert.Equal(t, 2.0, sent[0].Latitude)

	st := env.svc.Status()
	assert.Equal(t, 1, st.Dropped)
	assert.Equal(t, "dropped 1 sample(s) older than 24h0m0s", st.LastError)

	dropped, err := env.svc.DroppedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)

	require.NoError(t, env.svc.Clear(ctx))
	dropped, err = env.svc.DroppedCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, dropped)
}

func TestCaptureNow_RejectsExpiredFix(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{MaxSampleAge: 24 * time.Hour})
	env.provider.currentErr = context.DeadlineExceeded
	env.provider.last = &Position{Latitude: 1.5, Longitude: 2.5, Timestamp: env.clock.now().Add(-25 * time.Hour)}
	require.True(t, env.svc.Initialize("tok", "user-1"))

	assert.Nil(t, env.svc.CaptureNow(ctx))

	pending, err := env.svc.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, ErrFixTooOld.Error(), env.svc.Status().LastError)
	assert.Empty(t, env.uploader.PostLocationsCalls())

	env.provider.currentErr = nil
	env.provider.current = &Position{Latitude: 3, Longitude: 4}
	assert.NotNil(t, env.svc.CaptureNow(ctx), "a rejected fix does not consume the throttle window")
	env.waitIdle(t)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})
	env.seed(t, sampleAt(env.clock.now(), 1), sampleAt(env.clock.now(), 2))

	require.NoError(t, env.svc.Clear(ctx))

	pending, err := env.svc.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Zero(t, env.svc.Status().QueueLength)
}

func TestForceSyncNow_NotInitialized(t *testing.T) {
	env := newTestEnv(t, Config{})
	assert.ErrorIs(t, env.svc.ForceSyncNow(context.Background()), ErrNotInitialized)
}

func TestUploadOnReconnectAndForeground(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.seed(t, sampleAt(env.clock.now(), 1))

	var mu sync.Mutex
	calls := 0
	env.uploader.PostLocationsFunc = func(ctx context.Context, token string, samples []models.LocationSample) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errOffline
	}
	callCount := func() int {
		mu.Lock()
		defer mu.Unlock()
		return calls
	}

	monitor := netmon.New(zerolog.Nop())
	env.svc.AttachMonitor(monitor)
	require.True(t, env.svc.Initialize("tok", "user-1"))
	assert.Zero(t, callCount(), "subscribing does not upload")

	monitor.SetStatus(false)
	monitor.SetStatus(true)
	require.Eventually(t, func() bool { return callCount() == 1 }, time.Second, time.Millisecond)
	env.waitIdle(t)

	env.svc.OnAppStateChange(AppBackground)
	env.svc.OnAppStateChange(AppForeground)
	require.Eventually(t, func() bool { return callCount() == 2 }, time.Second, time.Millisecond)
	env.waitIdle(t)

	env.svc.Stop()
	monitor.SetStatus(false)
	monitor.SetStatus(true)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, callCount(), "stopped service ignores connectivity")
}
