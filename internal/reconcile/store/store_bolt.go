package store

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"rosterlink/internal/platform/boltdb"
	"rosterlink/pkg/platform/sentinel"
)

const (
	reconcileBucket = "reconcile"
	lastSuccessKey  = "last_success"
)

// BoltStore keeps the last success in the device database so the throttle
// survives restarts.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore prepares the reconcile bucket.
func NewBoltStore(db *bbolt.DB) (*BoltStore, error) {
	if err := boltdb.EnsureBuckets(db, reconcileBucket); err != nil {
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// LastSuccess returns the last recorded success, or the zero time.
func (s *BoltStore) LastSuccess(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	var at time.Time
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(reconcileBucket))
		if bucket == nil {
			return fmt.Errorf("%s bucket is missing", reconcileBucket)
		}
		v := bucket.Get([]byte(lastSuccessKey))
		if v == nil {
			return nil
		}
		if err := at.UnmarshalBinary(v); err != nil {
			return fmt.Errorf("decode last success: %w: %w", sentinel.ErrCorrupt, err)
		}
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return at, nil
}

// RecordSuccess stores at.
func (s *BoltStore) RecordSuccess(ctx context.Context, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := at.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode last success: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(reconcileBucket))
		if bucket == nil {
			return fmt.Errorf("%s bucket is missing", reconcileBucket)
		}
		return bucket.Put([]byte(lastSuccessKey), payload)
	})
}
