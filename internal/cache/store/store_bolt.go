// Package store holds the persistent tiers of the tiered cache.
package store

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"rosterlink/internal/platform/boltdb"
	"rosterlink/pkg/platform/sentinel"
)

const cacheBucket = "cache"

// BoltTier keeps cache records in the device database.
type BoltTier struct {
	db *bbolt.DB
}

// NewBoltTier prepares the cache bucket.
func NewBoltTier(db *bbolt.DB) (*BoltTier, error) {
	if err := boltdb.EnsureBuckets(db, cacheBucket); err != nil {
		return nil, err
	}
	return &BoltTier{db: db}, nil
}

// Get returns the record under key or sentinel.ErrNotFound.
func (t *BoltTier) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	err := t.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(cacheBucket)).Get([]byte(key))
		if v == nil {
			return sentinel.ErrNotFound
		}
		out = bytes.Clone(v)
		return nil
	})
	return out, err
}

// Put stores value under key. Expiry is judged by the cache, not the tier.
func (t *BoltTier) Put(ctx context.Context, key string, value []byte, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(cacheBucket)).Put([]byte(key), value)
	})
}

// Delete removes key; deleting an absent key is not an error.
func (t *BoltTier) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(cacheBucket)).Delete([]byte(key))
	})
}

// Clear drops every record.
func (t *BoltTier) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(cacheBucket)); err != nil {
			return fmt.Errorf("drop cache bucket: %w", err)
		}
		_, err := tx.CreateBucket([]byte(cacheBucket))
		return err
	})
}

// Range calls fn for every record until fn returns false.
func (t *BoltTier) Range(ctx context.Context, fn func(key string, value []byte) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.db.View(func(tx *bbolt.Tx) error {
		cur := tx.Bucket([]byte(cacheBucket)).Cursor()
		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			if !fn(string(k), bytes.Clone(v)) {
				return nil
			}
		}
		return nil
	})
}
