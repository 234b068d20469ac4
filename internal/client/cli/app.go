package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/iudanet/guardian/internal/client/alert"
	"github.com/iudanet/guardian/internal/client/api"
	"github.com/iudanet/guardian/internal/client/cache"
	"github.com/iudanet/guardian/internal/client/iocli"
	"github.com/iudanet/guardian/internal/client/launcher"
	"github.com/iudanet/guardian/internal/client/location"
	"github.com/iudanet/guardian/internal/client/netmon"
	"github.com/iudanet/guardian/internal/client/queue"
	"github.com/iudanet/guardian/internal/client/session"
	"github.com/iudanet/guardian/internal/client/storage"
	"github.com/iudanet/guardian/internal/client/storage/boltdb"
	"github.com/iudanet/guardian/internal/client/storage/sqlite"
	gsync "github.com/iudanet/guardian/internal/client/sync"
	"github.com/iudanet/guardian/internal/config"
	"github.com/iudanet/guardian/internal/crypto"
	"github.com/iudanet/guardian/internal/executil"
	"github.com/iudanet/guardian/internal/logging"
)

const (
	cacheVersion    = 1
	probeTimeout    = 5 * time.Second
	locationCommand = "termux-location"
)

// ErrNotLoggedIn is returned by commands that need a session.
var ErrNotLoggedIn = errors.New("not logged in, run 'guardian login' first")

// App holds every wired service for one CLI invocation.
type App struct {
	cfg      *config.Config
	logger   zerolog.Logger
	bolt     *boltdb.Storage
	sqlite   *sqlite.Storage
	kv       storage.KVStore
	api      *api.Client
	monitor  *netmon.Monitor
	cache    *cache.Cache
	queue    *queue.Queue
	sync     *gsync.Orchestrator
	location *location.Service
	alerts   *alert.Dispatcher
	sessions *session.Store
}

// AppOption replaces a platform dependency, mainly for tests.
type AppOption func(*appDeps)

type appDeps struct {
	locationProvider location.Provider
	launcherExec     executil.Executor
}

// WithLocationProvider replaces the termux-location provider.
func WithLocationProvider(p location.Provider) AppOption {
	return func(d *appDeps) { d.locationProvider = p }
}

// WithLauncherExecutor replaces the executor used to open URIs.
func WithLauncherExecutor(exec executil.Executor) AppOption {
	return func(d *appDeps) { d.launcherExec = exec }
}

// NewApp opens local storage and wires the services. Close releases it.
func NewApp(ctx context.Context, cfg *config.Config, io iocli.IO, logger zerolog.Logger, opts ...AppOption) (*App, error) {
	deps := appDeps{
		launcherExec: executil.RealExecutor{},
	}
	for _, opt := range opts {
		opt(&deps)
	}
	if deps.locationProvider == nil {
		deps.locationProvider = location.NewCommandProvider(executil.RealExecutor{}, locationCommand, "-p", "gps")
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	a := &App{cfg: cfg, logger: logger}

	var err error
	a.bolt, err = boltdb.New(ctx, cfg.BoltPath())
	if err != nil {
		return nil, fmt.Errorf("open bolt storage: %w", err)
	}
	a.sqlite, err = sqlite.New(ctx, cfg.SQLitePath())
	if err != nil {
		_ = a.bolt.Close()
		return nil, fmt.Errorf("open sqlite storage: %w", err)
	}

	a.kv = a.bolt
	if cfg.StorageDriver == config.DriverSQLite {
		a.kv = a.sqlite
	}

	if err := a.wire(ctx, io, deps); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context, io iocli.IO, deps appDeps) error {
	cfg := a.cfg

	sessionKey, err := session.DeviceKey(ctx, a.kv, cfg.DeviceSecret, session.PurposeSession)
	if err != nil {
		return fmt.Errorf("derive session key: %w", err)
	}
	a.sessions, err = session.NewStore(a.bolt, sessionKey)
	if err != nil {
		return err
	}

	medicalKey, err := session.DeviceKey(ctx, a.kv, cfg.DeviceSecret, session.PurposeMedical)
	if err != nil {
		return fmt.Errorf("derive cache key: %w", err)
	}
	sealer, err := crypto.NewSealer(medicalKey)
	if err != nil {
		return err
	}

	a.api = api.NewClient(cfg.APIBaseURL, api.WithTimeout(cfg.HTTPTimeout))
	a.monitor = netmon.New(logging.Component(a.logger, "netmon"))
	a.cache = cache.New(a.kv, cacheVersion,
		cache.WithSealer(sealer),
		cache.WithLogger(logging.Component(a.logger, "cache")),
	)
	a.queue = queue.New(a.kv, a.api, logging.Component(a.logger, "queue"),
		queue.WithMaxRetries(cfg.Queue.MaxRetries),
		queue.WithDrainDelay(cfg.Queue.DrainDelay),
	)

	syncLogger := logging.Component(a.logger, "sync")
	a.sync = gsync.NewOrchestrator(a.queue, a.cache, a.monitor,
		gsync.NewEntitySyncers(a.api, a.cache, a.queue, syncLogger),
		syncLogger,
		gsync.WithExecutor(a.api),
		gsync.WithStore(a.kv),
	)
	if err := a.sync.Load(ctx); err != nil {
		return fmt.Errorf("load sync state: %w", err)
	}

	a.location = location.NewService(deps.locationProvider, a.api, a.kv, logging.Component(a.logger, "location"),
		location.WithConfig(location.Config{
			Throttle:      cfg.Location.Throttle,
			StartDelay:    cfg.Location.StartDelay,
			FixTimeout:    cfg.Location.FixTimeout,
			RetryDelay:    cfg.Location.RetryDelay,
			WatchInterval: cfg.Location.WatchInterval,
			MaxSampleAge:  cfg.Location.MaxSampleAge,
			MinDistanceM:  cfg.Location.MinDistanceM,
			BatchSize:     cfg.Location.BatchSize,
		}),
	)
	a.location.AttachMonitor(a.monitor)

	opener := launcher.NewOpener(deps.launcherExec, launcher.DefaultOpenCommand())
	a.alerts, err = alert.NewDispatcher(a.api,
		launcher.NewMessenger(opener),
		launcher.NewSMSComposer(opener),
		launcher.NewDialer(opener),
		launcher.NewTerminalConfirmer(io),
		a.sqlite,
		logging.Component(a.logger, "alert"),
		alert.WithContactDelay(cfg.Alert.ContactDelay),
	)
	return err
}

// Close stops background work and closes storage.
func (a *App) Close() {
	if a.location != nil {
		a.location.Stop()
	}
	if a.sync != nil {
		a.sync.Wait()
		a.sync.Close()
	}
	if a.sqlite != nil {
		if err := a.sqlite.Close(); err != nil {
			a.logger.Error().Err(err).Msg("failed to close sqlite storage")
		}
	}
	if a.bolt != nil {
		if err := a.bolt.Close(); err != nil {
			a.logger.Error().Err(err).Msg("failed to close bolt storage")
		}
	}
}

// requireSession loads the stored session.
func (a *App) requireSession(ctx context.Context) (*session.Session, error) {
	sess, err := a.sessions.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrSessionNotFound):
		return nil, ErrNotLoggedIn
	case errors.Is(err, session.ErrSessionExpired):
		return nil, fmt.Errorf("%w, run 'guardian login' again", err)
	case err != nil:
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// probe checks backend reachability once and feeds the monitor.
func (a *App) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	err := a.api.Health(ctx)
	if err != nil {
		a.logger.Debug().Err(err).Msg("backend unreachable")
	}
	a.monitor.SetStatus(err == nil)
	return err == nil
}

// flushLocations uploads queued samples, waiting out a background upload.
func (a *App) flushLocations(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		err := a.location.ForceSyncNow(ctx)
		if errors.Is(err, location.ErrUploadInProgress) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				continue
			}
		}
		if err != nil {
			return err
		}

		pending, err := a.location.Pending(ctx)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}
	}
}
