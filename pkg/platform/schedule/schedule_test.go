package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualTimer hands out channels the test fires explicitly.
type manualTimer struct {
	mu    sync.Mutex
	chans []chan time.Time
}

func newManualTimer() *manualTimer {
	return &manualTimer{}
}

func (m *manualTimer) after(time.Duration) <-chan time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan time.Time, 1)
	m.chans = append(m.chans, ch)
	return ch
}

// fireLast fires the most recently created timer.
func (m *manualTimer) fireLast() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chans[len(m.chans)-1] <- time.Now()
}

func TestAfterRunsTask(t *testing.T) {
	timer := newManualTimer()
	s := New(WithTimer(timer.after))
	defer s.Close()

	done := make(chan struct{})
	require.True(t, s.After("push", time.Minute, func(ctx context.Context) {
		close(done)
	}))
	assert.Equal(t, 1, s.Pending())

	timer.fireLast()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
	assert.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestCancelPreventsRun(t *testing.T) {
	s := New(WithTimer(newManualTimer().after))
	defer s.Close()

	var ran atomic.Bool
	s.After("push", time.Minute, func(ctx context.Context) { ran.Store(true) })
	s.Cancel("push")

	assert.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 5*time.Millisecond)
	assert.False(t, ran.Load())
}

func TestRescheduleReplaces(t *testing.T) {
	timer := newManualTimer()
	s := New(WithTimer(timer.after))
	defer s.Close()

	var first, second atomic.Bool
	s.After("push", time.Minute, func(ctx context.Context) { first.Store(true) })
	s.After("push", time.Minute, func(ctx context.Context) { second.Store(true) })

	timer.fireLast()
	assert.Eventually(t, second.Load, time.Second, 5*time.Millisecond)
	assert.False(t, first.Load())
}

func TestCloseCancelsPending(t *testing.T) {
	s := New(WithTimer(newManualTimer().after))

	var ran atomic.Bool
	s.After("push", time.Hour, func(ctx context.Context) { ran.Store(true) })
	s.Close()

	assert.False(t, ran.Load())
	assert.Equal(t, 0, s.Pending())
	assert.False(t, s.After("late", time.Second, func(ctx context.Context) {}))
}

func TestRealTimer(t *testing.T) {
	s := New()
	defer s.Close()

	done := make(chan struct{})
	s.After("tick", 10*time.Millisecond, func(ctx context.Context) { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
}
