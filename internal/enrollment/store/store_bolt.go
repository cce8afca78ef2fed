package store

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"rosterlink/internal/enrollment/models"
	"rosterlink/internal/platform/boltdb"
)

const (
	modelBucket = "enrollment_model"
	snapshotKey = "snapshot"
)

// BoltStore keeps the model snapshot in the device database.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore prepares the model bucket in db.
func NewBoltStore(db *bbolt.DB) (*BoltStore, error) {
	if err := boltdb.EnsureBuckets(db, modelBucket); err != nil {
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Load returns the persisted model, or an empty model when none was saved.
func (s *BoltStore) Load(ctx context.Context) (models.Model, error) {
	if err := ctx.Err(); err != nil {
		return models.Model{}, err
	}
	var payload []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(modelBucket))
		if bucket == nil {
			return fmt.Errorf("%s bucket is missing", modelBucket)
		}
		// Bolt memory is only valid inside the transaction.
		if v := bucket.Get([]byte(snapshotKey)); v != nil {
			payload = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return models.Model{}, err
	}
	if payload == nil {
		return models.New(), nil
	}
	return decode(payload)
}

// Save replaces the persisted snapshot with m.
func (s *BoltStore) Save(ctx context.Context, m models.Model) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := encode(m)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(modelBucket))
		if bucket == nil {
			return fmt.Errorf("%s bucket is missing", modelBucket)
		}
		return bucket.Put([]byte(snapshotKey), payload)
	})
}
