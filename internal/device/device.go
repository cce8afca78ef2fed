// Package device owns the stable hardware identifier the agent presents to
// the backend. The identifier is created once and survives restarts.
package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"rosterlink/internal/platform/boltdb"
)

const (
	deviceBucket  = "device"
	hardwareIDKey = "hardware_id"
)

// BoltStore loads or creates the hardware identifier in the device database.
type BoltStore struct {
	db *bbolt.DB

	mu     sync.Mutex
	cached string
}

// NewBoltStore prepares the device bucket.
func NewBoltStore(db *bbolt.DB) (*BoltStore, error) {
	if err := boltdb.EnsureBuckets(db, deviceBucket); err != nil {
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// HardwareID returns the persisted identifier, creating it on first use.
func (s *BoltStore) HardwareID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != "" {
		return s.cached, nil
	}

	var id string
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(deviceBucket))
		if bucket == nil {
			return fmt.Errorf("%s bucket is missing", deviceBucket)
		}
		if v := bucket.Get([]byte(hardwareIDKey)); len(v) > 0 {
			if _, err := uuid.ParseBytes(v); err == nil {
				id = string(v)
				return nil
			}
		}
		id = uuid.NewString()
		return bucket.Put([]byte(hardwareIDKey), []byte(id))
	})
	if err != nil {
		return "", fmt.Errorf("load hardware id: %w", err)
	}
	s.cached = id
	return id, nil
}

// Static is a fixed identifier, for tests and ephemeral runs.
type Static string

// HardwareID returns the fixed identifier.
func (s Static) HardwareID(context.Context) (string, error) {
	return string(s), nil
}
