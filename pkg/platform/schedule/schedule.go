// Package schedule runs delayed one-shot tasks whose lifetime is tied to
// their owner. Closing the scheduler cancels every pending task and waits
// for running ones to return.
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task is the work run after a delay. ctx is cancelled when the task is
// cancelled or the scheduler closes.
type Task func(ctx context.Context)

// Scheduler owns a set of pending delayed tasks.
type Scheduler struct {
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	pending map[string]*entry
	logger  *slog.Logger
	after   func(time.Duration) <-chan time.Time
}

type entry struct {
	cancel context.CancelFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimer replaces time.After, for tests.
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(s *Scheduler) {
		if after != nil {
			s.after = after
		}
	}
}

// New creates a scheduler.
func New(opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[string]*entry),
		logger:  slog.New(slog.DiscardHandler),
		after:   time.After,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// After runs task once delay has passed. Scheduling a name that is already
// pending replaces the earlier task. It returns false once the scheduler is
// closed.
func (s *Scheduler) After(name string, delay time.Duration, task Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	if prev, ok := s.pending[name]; ok {
		prev.cancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	e := &entry{cancel: cancel}
	s.pending[name] = e
	timer := s.after(delay)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(name, e)
		select {
		case <-ctx.Done():
			return
		case <-timer:
		}
		if ctx.Err() != nil {
			return
		}
		s.logger.Debug("running scheduled task", "task", name)
		task(ctx)
	}()
	return true
}

// Cancel drops a pending task. A task already running sees its context
// cancelled.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.pending[name]; ok {
		e.cancel()
		delete(s.pending, name)
	}
}

// Pending reports how many tasks have not finished.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close cancels everything and waits for running tasks to return.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
}

// release clears e from the pending set unless a newer task replaced it.
func (s *Scheduler) release(name string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.cancel()
	if s.pending[name] == e {
		delete(s.pending, name)
	}
}
