package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"rosterlink/pkg/platform/sentinel"
)

const (
	// Redis key prefix for cache records
	cacheKeyPrefix = "rosterlink:cache:"
	scanBatch      = 100
)

// RedisTier keeps cache records in Redis. Records carry a Redis expiry equal
// to their TTL so abandoned entries disappear even without a sweep.
type RedisTier struct {
	client *redis.Client
	prefix string
}

// RedisTierOption configures a RedisTier.
type RedisTierOption func(*RedisTier)

// WithKeyPrefix namespaces keys, e.g. per device.
func WithKeyPrefix(prefix string) RedisTierOption {
	return func(t *RedisTier) {
		if prefix != "" {
			t.prefix = prefix
		}
	}
}

// NewRedisTier constructs a Redis-backed tier.
func NewRedisTier(client *redis.Client, opts ...RedisTierOption) *RedisTier {
	t := &RedisTier{client: client, prefix: cacheKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// Get returns the record under key or sentinel.ErrNotFound.
func (t *RedisTier) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := t.client.Get(ctx, t.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Put stores value under key with ttl as the Redis expiry.
func (t *RedisTier) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return t.client.Set(ctx, t.prefix+key, value, ttl).Err()
}

// Delete removes key.
func (t *RedisTier) Delete(ctx context.Context, key string) error {
	return t.client.Del(ctx, t.prefix+key).Err()
}

// Clear drops every record under the prefix.
func (t *RedisTier) Clear(ctx context.Context) error {
	iter := t.client.Scan(ctx, 0, t.prefix+"*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := t.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return t.client.Del(ctx, batch...).Err()
	}
	return nil
}

// Range calls fn for every record until fn returns false. Keys that expire
// between SCAN and GET are skipped.
func (t *RedisTier) Range(ctx context.Context, fn func(key string, value []byte) bool) error {
	iter := t.client.Scan(ctx, 0, t.prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		full := iter.Val()
		v, err := t.client.Get(ctx, full).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return err
		}
		if !fn(strings.TrimPrefix(full, t.prefix), v) {
			return nil
		}
	}
	return iter.Err()
}
