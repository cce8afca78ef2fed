package store

import (
	"bytes"
	"context"
	"sync"
	"time"

	"rosterlink/pkg/platform/sentinel"
)

// InMemoryTier is a map-backed tier for tests and diskless runs.
type InMemoryTier struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewInMemoryTier creates an empty tier.
func NewInMemoryTier() *InMemoryTier {
	return &InMemoryTier{records: make(map[string][]byte)}
}

// Get returns the record under key or sentinel.ErrNotFound.
func (t *InMemoryTier) Get(_ context.Context, key string) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.records[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return bytes.Clone(v), nil
}

// Put stores value under key.
func (t *InMemoryTier) Put(_ context.Context, key string, value []byte, _ time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[key] = bytes.Clone(value)
	return nil
}

// Delete removes key.
func (t *InMemoryTier) Delete(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, key)
	return nil
}

// Clear drops every record.
func (t *InMemoryTier) Clear(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.records)
	return nil
}

// Range calls fn for every record until fn returns false.
func (t *InMemoryTier) Range(_ context.Context, fn func(key string, value []byte) bool) error {
	t.mu.RLock()
	snapshot := make(map[string][]byte, len(t.records))
	for k, v := range t.records {
		snapshot[k] = bytes.Clone(v)
	}
	t.mu.RUnlock()
	for k, v := range snapshot {
		if !fn(k, v) {
			return nil
		}
	}
	return nil
}

// Len reports how many records are held.
func (t *InMemoryTier) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Corrupt overwrites the record under key, for tests.
func (t *InMemoryTier) Corrupt(key string, value []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[key] = value
}
