package netmon

import (
	"context"
	"time"
)

// HealthChecker probes backend reachability.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ProbeProvider polls a health endpoint. Any error reports offline.
type ProbeProvider struct {
	checker  HealthChecker
	interval time.Duration
	timeout  time.Duration
}

// NewProbeProvider creates a provider that probes every interval.
func NewProbeProvider(checker HealthChecker, interval time.Duration) *ProbeProvider {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	timeout := interval / 2
	if timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return &ProbeProvider{checker: checker, interval: interval, timeout: timeout}
}

// Watch probes immediately and then on every tick.
func (p *ProbeProvider) Watch(ctx context.Context) (<-chan bool, <-chan error) {
	events := make(chan bool, 1)
	errs := make(chan error)

	go func() {
		defer close(events)
		defer close(errs)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case events <- p.probe(ctx):
			case <-ctx.Done():
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, errs
}

func (p *ProbeProvider) probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.checker.Health(probeCtx) == nil
}

// ChanProvider forwards caller-fed events. Used by tests and manual overrides.
type ChanProvider struct {
	Events chan bool
	Errs   chan error
}

// NewChanProvider creates a provider with buffered channels.
func NewChanProvider() *ChanProvider {
	return &ChanProvider{
		Events: make(chan bool, 8),
		Errs:   make(chan error, 8),
	}
}

// Watch returns the provider's channels.
func (p *ChanProvider) Watch(context.Context) (<-chan bool, <-chan error) {
	return p.Events, p.Errs
}
