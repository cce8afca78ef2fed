// Package cache is a two-tier key/value cache with per-entry TTL.
//
// Reads hit memory first, then the persistent tier, promoting what they find.
// An entry is Fresh for the first half of its TTL and Stale for the second;
// past its TTL it is a Miss and is purged from both tiers. Writes land in
// memory at once and reach the persistent tier through a single background
// queue, so the cache is best-effort: it only ever saves latency and is never
// a source of correctness.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"rosterlink/internal/cache/metrics"
	"rosterlink/internal/platform/logger"
	"rosterlink/pkg/platform/sentinel"
)

const (
	defaultMemoryBytes = 4 << 20
	defaultQueueSize   = 256
	defaultOpTimeout   = 5 * time.Second
)

var errClosed = fmt.Errorf("cache: %w", sentinel.ErrClosed)

// Tier is a persistent cache tier. Keys are already hashed; values are
// opaque encoded records. Get returns sentinel.ErrNotFound for absent keys.
type Tier interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Range(ctx context.Context, fn func(key string, value []byte) bool) error
}

// Tiered is the memory plus persistent cache.
type Tiered struct {
	tier Tier

	mu        sync.Mutex
	mem       *simplelru.LRU[string, *memEntry]
	memBytes  int
	memBudget int

	ops       chan op
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	opTimeout time.Duration

	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Tiered cache.
type Option func(*Tiered)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Tiered) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Tiered) {
		c.metrics = m
	}
}

// WithMemoryBudget bounds the memory tier in bytes.
func WithMemoryBudget(bytes int) Option {
	return func(c *Tiered) {
		if bytes > 0 {
			c.memBudget = bytes
		}
	}
}

// WithQueueSize bounds the persistent write queue.
func WithQueueSize(n int) Option {
	return func(c *Tiered) {
		if n > 0 {
			c.ops = make(chan op, n)
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Tiered) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a cache over tier and starts its write worker. Call Close to
// drain and stop it.
func New(tier Tier, opts ...Option) (*Tiered, error) {
	if tier == nil {
		return nil, errors.New("cache tier is required")
	}
	mem, err := simplelru.NewLRU[string, *memEntry](math.MaxInt, nil)
	if err != nil {
		return nil, fmt.Errorf("create memory tier: %w", err)
	}
	c := &Tiered{
		tier:      tier,
		mem:       mem,
		memBudget: defaultMemoryBytes,
		ops:       make(chan op, defaultQueueSize),
		quit:      make(chan struct{}),
		stopped:   make(chan struct{}),
		opTimeout: defaultOpTimeout,
		logger:    logger.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.worker()
	return c, nil
}

// Put stores value under key for ttl. Serialization failures are logged and
// dropped.
func (c *Tiered) Put(ctx context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		c.logger.WarnContext(ctx, "cache put ignored: ttl must be positive", "key", key)
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.WarnContext(ctx, "cache put ignored: value does not serialize", "key", key, "error", err)
		return
	}
	now := c.now()
	raw, err := record{Key: key, Payload: payload, CreatedAt: now, TTL: ttl}.encode()
	if err != nil {
		c.logger.WarnContext(ctx, "cache put ignored: record does not serialize", "key", key, "error", err)
		return
	}

	c.mu.Lock()
	c.memInsert(key, &memEntry{payload: payload, created: now, ttl: ttl})
	c.mu.Unlock()

	if !c.enqueueWrite(op{kind: opPut, key: storageKey(key), value: raw, ttl: ttl}) {
		c.logger.DebugContext(ctx, "cache persistent write dropped", "key", key)
	}
}

// Get decodes the entry for key into dst and reports its freshness. dst is
// left untouched on Miss.
func (c *Tiered) Get(ctx context.Context, key string, dst any) State {
	now := c.now()

	c.mu.Lock()
	if e, ok := c.mem.Get(key); ok {
		state, expired := classify(e.created, e.ttl, now)
		if expired {
			c.memRemove(key)
			c.mu.Unlock()
			c.purgePersistent(ctx, key, "expired")
			c.countRead("memory", Miss)
			return Miss
		}
		payload := e.payload
		c.mu.Unlock()
		if err := json.Unmarshal(payload, dst); err != nil {
			c.logger.WarnContext(ctx, "cache entry does not decode; purging", "key", key, "error", err)
			c.purgePersistent(ctx, key, "corrupt")
			c.countRead("memory", Miss)
			return Miss
		}
		c.countRead("memory", state)
		return state
	}
	c.mu.Unlock()

	raw, err := c.tier.Get(ctx, storageKey(key))
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			c.tierError(ctx, "get", err)
		}
		c.countRead("persistent", Miss)
		return Miss
	}
	rec, err := decodeRecord(raw, key)
	if err != nil {
		c.logger.WarnContext(ctx, "persistent cache record is corrupt; purging", "key", key, "error", err)
		c.purgePersistent(ctx, key, "corrupt")
		c.countRead("persistent", Miss)
		return Miss
	}
	state, expired := classify(rec.CreatedAt, rec.TTL, now)
	if expired {
		c.purgePersistent(ctx, key, "expired")
		c.countRead("persistent", Miss)
		return Miss
	}
	if err := json.Unmarshal(rec.Payload, dst); err != nil {
		c.logger.WarnContext(ctx, "persistent cache payload does not decode; purging", "key", key, "error", err)
		c.purgePersistent(ctx, key, "corrupt")
		c.countRead("persistent", Miss)
		return Miss
	}

	c.mu.Lock()
	c.memInsert(key, &memEntry{payload: rec.Payload, created: rec.CreatedAt, ttl: rec.TTL})
	c.mu.Unlock()
	c.countRead("persistent", state)
	return state
}

// Invalidate removes key from both tiers and waits for the persistent delete.
func (c *Tiered) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	c.memRemove(key)
	c.mu.Unlock()
	_, err := c.enqueueWait(ctx, op{kind: opDelete, key: storageKey(key)})
	return err
}

// InvalidateAll empties both tiers.
func (c *Tiered) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	c.mem.Purge()
	c.memBytes = 0
	c.setMemGauge()
	c.mu.Unlock()
	_, err := c.enqueueWait(ctx, op{kind: opClear})
	return err
}

// Sweep purges expired entries from both tiers and returns how many
// persistent records it removed.
func (c *Tiered) Sweep(ctx context.Context) (int, error) {
	now := c.now()
	c.mu.Lock()
	for _, key := range c.mem.Keys() {
		if e, ok := c.mem.Peek(key); ok {
			if _, expired := classify(e.created, e.ttl, now); expired {
				c.memRemove(key)
			}
		}
	}
	c.mu.Unlock()

	res, err := c.enqueueWait(ctx, op{kind: opSweep, now: now})
	if err != nil {
		return res.purged, err
	}
	if res.purged > 0 {
		c.logger.InfoContext(ctx, "cache sweep purged expired entries", "purged", res.purged)
	}
	return res.purged, nil
}

// Flush waits until every write queued before it reached the persistent tier.
func (c *Tiered) Flush(ctx context.Context) error {
	_, err := c.enqueueWait(ctx, op{kind: opBarrier})
	return err
}

// Close drains queued work and stops the worker. It is safe to call twice.
func (c *Tiered) Close() error {
	c.closeOnce.Do(func() {
		close(c.quit)
	})
	<-c.stopped
	return nil
}

// MemoryBytes reports the bytes held by the memory tier.
func (c *Tiered) MemoryBytes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memBytes
}

// sweepTier runs on the worker goroutine.
func (c *Tiered) sweepTier(ctx context.Context, now time.Time) (int, error) {
	var doomed []string
	err := c.tier.Range(ctx, func(key string, value []byte) bool {
		var rec record
		if err := json.Unmarshal(value, &rec); err != nil || rec.TTL <= 0 {
			doomed = append(doomed, key)
			return true
		}
		if _, expired := classify(rec.CreatedAt, rec.TTL, now); expired {
			doomed = append(doomed, key)
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	purged := 0
	for _, key := range doomed {
		if err := c.tier.Delete(ctx, key); err != nil {
			return purged, err
		}
		purged++
		c.countPurge("sweep")
	}
	return purged, nil
}

// purgePersistent deletes key from the persistent tier through the queue so
// it is ordered after any pending write of the same key.
func (c *Tiered) purgePersistent(ctx context.Context, key, reason string) {
	c.mu.Lock()
	c.memRemove(key)
	c.mu.Unlock()
	if _, err := c.enqueueWait(ctx, op{kind: opDelete, key: storageKey(key)}); err != nil {
		c.logger.WarnContext(ctx, "cache purge failed", "key", key, "error", err)
		return
	}
	c.countPurge(reason)
}

// memInsert must be called with mu held.
func (c *Tiered) memInsert(key string, e *memEntry) {
	size := e.size(key)
	if size > c.memBudget {
		// Too large for memory; the persistent tier still gets it.
		c.memRemove(key)
		return
	}
	if old, ok := c.mem.Peek(key); ok {
		c.memBytes -= old.size(key)
	}
	c.mem.Add(key, e)
	c.memBytes += size
	for c.memBytes > c.memBudget {
		k, v, ok := c.mem.RemoveOldest()
		if !ok {
			break
		}
		c.memBytes -= v.size(k)
		if c.metrics != nil {
			c.metrics.Evictions.Inc()
		}
	}
	c.setMemGauge()
}

// memRemove must be called with mu held.
func (c *Tiered) memRemove(key string) {
	if old, ok := c.mem.Peek(key); ok {
		c.memBytes -= old.size(key)
		c.mem.Remove(key)
		c.setMemGauge()
	}
}

func (c *Tiered) setMemGauge() {
	if c.metrics != nil {
		c.metrics.MemoryBytes.Set(float64(c.memBytes))
	}
}

func (c *Tiered) countRead(tier string, s State) {
	if c.metrics != nil {
		c.metrics.IncrementRead(tier, s.String())
	}
}

func (c *Tiered) countPurge(reason string) {
	if c.metrics != nil {
		c.metrics.IncrementPurge(reason)
	}
}

func (c *Tiered) tierError(ctx context.Context, op string, err error) {
	c.logger.WarnContext(ctx, "persistent cache tier failed", "op", op, "error", err)
	if c.metrics != nil {
		c.metrics.IncrementTierError(op)
	}
}
