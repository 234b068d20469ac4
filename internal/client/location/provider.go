package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iudanet/guardian/internal/executil"
)

// Accuracy is the requested fix accuracy.
type Accuracy int

// Accuracy hints.
const (
	AccuracyBalanced Accuracy = iota
	AccuracyHigh
)

// ErrNoFix is returned when a provider cannot produce a position.
var ErrNoFix = errors.New("no position fix")

// Position is a device position.
type Position struct {
	Timestamp time.Time
	Accuracy  *float64
	Altitude  *float64
	Speed     *float64
	Heading   *float64
	Latitude  float64
	Longitude float64
}

// Provider is the platform geolocation service.
type Provider interface {
	// CurrentPosition acquires a fresh fix; ctx carries the timeout.
	CurrentPosition(ctx context.Context, accuracy Accuracy) (*Position, error)
	// LastKnownPosition returns the cached fix without waiting, or nil.
	LastKnownPosition(ctx context.Context) (*Position, error)
	// Watch calls fn for position updates until stop is called.
	Watch(interval time.Duration, minDistanceM float64, fn func(Position)) (stop func(), err error)
}

// StaticProvider always reports the same position. Used for fixed
// installations and for tests.
type StaticProvider struct {
	now func() time.Time
	pos *Position
	mu  sync.RWMutex
}

// NewStaticProvider creates a provider reporting pos; nil means no fix.
func NewStaticProvider(pos *Position) *StaticProvider {
	return &StaticProvider{pos: pos, now: time.Now}
}

// Set replaces the reported position.
func (p *StaticProvider) Set(pos *Position) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pos = pos
}

func (p *StaticProvider) current() (*Position, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.pos == nil {
		return nil, ErrNoFix
	}
	pos := *p.pos
	if pos.Timestamp.IsZero() {
		pos.Timestamp = p.now()
	}
	return &pos, nil
}

// CurrentPosition returns the configured position.
func (p *StaticProvider) CurrentPosition(context.Context, Accuracy) (*Position, error) {
	return p.current()
}

// LastKnownPosition returns the configured position or nil.
func (p *StaticProvider) LastKnownPosition(context.Context) (*Position, error) {
	pos, err := p.current()
	if errors.Is(err, ErrNoFix) {
		return nil, nil
	}
	return pos, err
}

// Watch emits the configured position every interval.
func (p *StaticProvider) Watch(interval time.Duration, _ float64, fn func(Position)) (func(), error) {
	return pollWatch(interval, func(ctx context.Context) (*Position, error) { return p.current() }, fn), nil
}

// CommandProvider reads fixes from a command printing a JSON object with
// latitude, longitude and optional accuracy, altitude, speed and bearing,
// such as termux-location.
type CommandProvider struct {
	exec executil.Executor
	last *Position
	cmd  string
	args []string
	mu   sync.Mutex
}

// NewCommandProvider creates a provider running cmd with args.
func NewCommandProvider(exec executil.Executor, cmd string, args ...string) *CommandProvider {
	return &CommandProvider{exec: exec, cmd: cmd, args: args}
}

type commandFix struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
	Altitude  *float64 `json:"altitude"`
	Speed     *float64 `json:"speed"`
	Bearing   *float64 `json:"bearing"`
}

// CurrentPosition runs the command and parses its output.
func (p *CommandProvider) CurrentPosition(ctx context.Context, _ Accuracy) (*Position, error) {
	out, err := p.exec.Run(ctx, p.cmd, p.args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoFix, err)
	}

	var fix commandFix
	if err := json.Unmarshal(out, &fix); err != nil {
		return nil, fmt.Errorf("%w: decode %s output: %w", ErrNoFix, p.cmd, err)
	}
	if fix.Latitude == nil || fix.Longitude == nil {
		return nil, fmt.Errorf("%w: %s reported no coordinates", ErrNoFix, p.cmd)
	}

	pos := &Position{
		Latitude:  *fix.Latitude,
		Longitude: *fix.Longitude,
		Accuracy:  fix.Accuracy,
		Altitude:  fix.Altitude,
		Speed:     fix.Speed,
		Heading:   fix.Bearing,
		Timestamp: time.Now(),
	}

	p.mu.Lock()
	last := *pos
	p.last = &last
	p.mu.Unlock()

	return pos, nil
}

// LastKnownPosition returns the last successful fix.
func (p *CommandProvider) LastKnownPosition(context.Context) (*Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return nil, nil
	}
	pos := *p.last
	return &pos, nil
}

// Watch polls the command every interval, skipping fixes that moved less
// than minDistanceM from the last emitted one.
func (p *CommandProvider) Watch(interval time.Duration, minDistanceM float64, fn func(Position)) (func(), error) {
	var emitted *Position
	return pollWatch(interval, func(ctx context.Context) (*Position, error) {
		pos, err := p.CurrentPosition(ctx, AccuracyBalanced)
		if err != nil {
			return nil, err
		}
		if emitted != nil && DistanceMeters(*emitted, *pos) < minDistanceM {
			return nil, nil
		}
		emitted = pos
		return pos, nil
	}, fn), nil
}

// pollWatch calls fetch every interval until stopped and forwards fixes to fn.
func pollWatch(interval time.Duration, fetch func(ctx context.Context) (*Position, error), fn func(Position)) func() {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fetchCtx, fetchCancel := context.WithTimeout(ctx, interval)
				pos, err := fetch(fetchCtx)
				fetchCancel()
				if err == nil && pos != nil && ctx.Err() == nil {
					fn(*pos)
				}
			}
		}
	}()

	return cancel
}
