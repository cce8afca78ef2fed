// Package boltdb opens the agent's single on-device database file.
//
// bbolt holds an exclusive file lock, so the model snapshot, throttle state,
// device identity and cache tier all share one *bbolt.DB and keep to their
// own buckets.
package boltdb

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

// Open opens (or creates) the database at path.
func Open(path string, timeout time.Duration) (*bbolt.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if timeout <= 0 {
		timeout = time.Second
	}
	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}
	return db, nil
}

// EnsureBuckets creates the named top-level buckets if missing.
func EnsureBuckets(db *bbolt.DB, names ...string) error {
	if db == nil {
		return fmt.Errorf("storage is not configured")
	}
	return db.Update(func(tx *bbolt.Tx) error {
		for _, name := range names {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}
