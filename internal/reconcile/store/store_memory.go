// Package store persists the reconciliation throttle timestamp.
package store

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps the last success in process; it resets on restart.
type InMemoryStore struct {
	mu   sync.RWMutex
	last time.Time
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// LastSuccess returns the last recorded success, or the zero time.
func (s *InMemoryStore) LastSuccess(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, nil
}

// RecordSuccess stores at.
func (s *InMemoryStore) RecordSuccess(ctx context.Context, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = at
	return nil
}
