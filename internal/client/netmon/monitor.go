// Package netmon tracks connectivity and notifies subscribers on transitions.
package netmon

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iudanet/guardian/internal/client/notify"
)

// Provider is a platform connectivity stream.
// Both channels are owned by the provider and closed when ctx is done.
type Provider interface {
	Watch(ctx context.Context) (<-chan bool, <-chan error)
}

// Monitor holds the current connectivity status.
// The status starts online: an unknown network must not block queue draining.
type Monitor struct {
	bus    notify.Bus[bool]
	logger zerolog.Logger
	// dispatchMu orders the initial subscribe callback against transitions
	dispatchMu sync.Mutex
	mu         sync.RWMutex
	online     bool
}

// New creates a monitor reporting online.
func New(logger zerolog.Logger) *Monitor {
	return &Monitor{
		logger: logger,
		online: true,
	}
}

// Status reports whether the device is online.
func (m *Monitor) Status() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Subscribe calls fn with the current status, then on every transition.
// Callbacks must not call Subscribe or SetStatus synchronously.
func (m *Monitor) Subscribe(fn func(online bool)) func() {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	unsubscribe := m.bus.Subscribe(fn)
	fn(m.Status())
	return unsubscribe
}

// SetStatus records a connectivity observation.
// Repeated observations of the same status are collapsed.
func (m *Monitor) SetStatus(online bool) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	m.mu.Unlock()

	m.logger.Info().Bool("online", online).Msg("connectivity changed")
	m.bus.Publish(online)
}

// Run feeds provider events into the monitor until ctx is done
// or the provider closes its event stream.
// A stream error forces the status online.
func (m *Monitor) Run(ctx context.Context, provider Provider) {
	events, errs := provider.Watch(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-events:
			if !ok {
				return
			}
			m.SetStatus(online)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			m.logger.Warn().Err(err).Msg("connectivity stream failed, assuming online")
			m.SetStatus(true)
		}
	}
}
