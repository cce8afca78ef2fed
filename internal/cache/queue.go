package cache

import (
	"context"
	"time"
)

type opKind int

const (
	opPut opKind = iota
	opDelete
	opClear
	opSweep
	opBarrier
)

// op is one persistent-tier operation. Writes are fire-and-forget; every
// other kind carries a done channel the caller waits on.
type op struct {
	kind  opKind
	key   string
	value []byte
	ttl   time.Duration
	now   time.Time
	done  chan opResult
}

type opResult struct {
	purged int
	err    error
}

// worker drains the queue in FIFO order so a delete queued after a write
// always lands after it.
func (c *Tiered) worker() {
	defer close(c.stopped)
	for {
		select {
		case o := <-c.ops:
			c.exec(o)
		case <-c.quit:
			for {
				select {
				case o := <-c.ops:
					c.exec(o)
				default:
					return
				}
			}
		}
	}
}

func (c *Tiered) exec(o op) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
	defer cancel()

	var res opResult
	switch o.kind {
	case opPut:
		if err := c.tier.Put(ctx, o.key, o.value, o.ttl); err != nil {
			c.tierError(ctx, "put", err)
		}
	case opDelete:
		res.err = c.tier.Delete(ctx, o.key)
		if res.err != nil {
			c.tierError(ctx, "delete", res.err)
		}
	case opClear:
		res.err = c.tier.Clear(ctx)
		if res.err != nil {
			c.tierError(ctx, "clear", res.err)
		}
	case opSweep:
		res.purged, res.err = c.sweepTier(ctx, o.now)
		if res.err != nil {
			c.tierError(ctx, "sweep", res.err)
		}
	case opBarrier:
	}
	if o.done != nil {
		o.done <- res
	}
}

// enqueueWrite queues a persistent write without blocking. A full queue
// drops the write; the memory tier still holds the value.
func (c *Tiered) enqueueWrite(o op) bool {
	select {
	case <-c.quit:
		return false
	default:
	}
	select {
	case c.ops <- o:
		return true
	default:
		if c.metrics != nil {
			c.metrics.DroppedWrites.Inc()
		}
		return false
	}
}

// enqueueWait queues o and waits for the worker to run it.
func (c *Tiered) enqueueWait(ctx context.Context, o op) (opResult, error) {
	o.done = make(chan opResult, 1)
	select {
	case <-c.quit:
		return opResult{}, errClosed
	default:
	}
	select {
	case c.ops <- o:
	case <-c.stopped:
		return opResult{}, errClosed
	case <-ctx.Done():
		return opResult{}, ctx.Err()
	}
	select {
	case res := <-o.done:
		return res, res.err
	case <-c.stopped:
		// The worker may have run o while draining.
		select {
		case res := <-o.done:
			return res, res.err
		default:
			return opResult{}, errClosed
		}
	case <-ctx.Done():
		return opResult{}, ctx.Err()
	}
}
