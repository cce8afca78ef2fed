package store

import (
	"context"
	"sync"

	"rosterlink/internal/enrollment/models"
)

// InMemoryStore keeps the snapshot in process. It round-trips through the
// same encoding as BoltStore so tests see identical behavior.
type InMemoryStore struct {
	mu      sync.RWMutex
	payload []byte
	saves   int
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Load returns the last saved model, or an empty one.
func (s *InMemoryStore) Load(ctx context.Context) (models.Model, error) {
	if err := ctx.Err(); err != nil {
		return models.Model{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.payload == nil {
		return models.New(), nil
	}
	return decode(s.payload)
}

// Save stores m.
func (s *InMemoryStore) Save(ctx context.Context, m models.Model) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := encode(m)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload = payload
	s.saves++
	return nil
}

// Saves reports how many snapshots were written.
func (s *InMemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
