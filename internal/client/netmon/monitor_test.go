package netmon

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	got []bool
	mu  sync.Mutex
}

func (r *recorder) record(online bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, online)
}

func (r *recorder) values() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool{}, r.got...)
}

func TestMonitor_SubscribeCallsImmediately(t *testing.T) {
	m := New(zerolog.Nop())
	rec := &recorder{}

	m.Subscribe(rec.record)

	assert.Equal(t, []bool{true}, rec.values())
	assert.True(t, m.Status())
}

func TestMonitor_CollapsesDuplicates(t *testing.T) {
	m := New(zerolog.Nop())
	rec := &recorder{}
	m.Subscribe(rec.record)

	m.SetStatus(true)
	m.SetStatus(false)
	m.SetStatus(false)
	m.SetStatus(true)

	assert.Equal(t, []bool{true, false, true}, rec.values())
}

func TestMonitor_Unsubscribe(t *testing.T) {
	m := New(zerolog.Nop())
	rec := &recorder{}
	unsubscribe := m.Subscribe(rec.record)

	unsubscribe()
	m.SetStatus(false)

	assert.Equal(t, []bool{true}, rec.values())
}

func TestMonitor_RunFailOpenOnStreamError(t *testing.T) {
	m := New(zerolog.Nop())
	rec := &recorder{}
	m.Subscribe(rec.record)

	provider := NewChanProvider()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, provider)
		close(done)
	}()

	provider.Events <- false
	require.Eventually(t, func() bool { return !m.Status() }, time.Second, 5*time.Millisecond)

	provider.Errs <- errors.New("stream broken")
	require.Eventually(t, m.Status, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	assert.Equal(t, []bool{true, false, true}, rec.values())
}

func TestMonitor_RunStopsWhenEventsClosed(t *testing.T) {
	m := New(zerolog.Nop())
	provider := NewChanProvider()
	close(provider.Events)

	done := make(chan struct{})
	go func() {
		m.Run(context.Background(), provider)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after provider closed")
	}
}

type flakyChecker struct {
	calls atomic.Int32
}

func (c *flakyChecker) Health(context.Context) error {
	if c.calls.Add(1)%2 == 1 {
		return errors.New("unreachable")
	}
	return nil
}

func TestProbeProvider_EmitsProbeResults(t *testing.T) {
	checker := &flakyChecker{}
	provider := NewProbeProvider(checker, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _ := provider.Watch(ctx)

	assert.False(t, <-events)
	assert.True(t, <-events)

	cancel()
	for range events {
	}
}
