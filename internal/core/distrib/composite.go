// If you are AI: This file implements CompositeDistributor, a sequential
// chain with helpers that splice in async subtrees behind connectors.

package distrib

import (
	"time"

	"ringbus/internal/core/disruptor"
)

// DefaultAsyncCapacity is the ring size async helpers use when the
// composite was built with no explicit capacity.
const DefaultAsyncCapacity int64 = 1024

// CompositeDistributor is a SequentialDistributor whose AddAsyncParallel
// and AddAsyncSequential helpers synthesize ParallelDistributor subtrees
// and splice them into the chain via Connectors. Synthesized children are
// owned by the composite: removing one signals it, joins it, and drops it.
type CompositeDistributor[T any] struct {
	SequentialDistributor[T]
	capacity int64
	mode     disruptor.ClaimMode
	wait     func() disruptor.WaitStrategy
	poll     time.Duration
	derived  []*Connector[T]
}

// NewComposite creates a composite whose async helpers use the default
// capacity, single-producer claims, and busy-spin waits.
func NewComposite[T any]() *CompositeDistributor[T] {
	return NewCompositeWith[T](DefaultAsyncCapacity, disruptor.SingleProducer, nil, DefaultPollTimeout)
}

// NewCompositeWith creates a composite whose async helpers use the given
// ring capacity, claim mode, wait strategy constructor, and worker poll
// timeout. wait is a constructor, not an instance, because blocking
// strategies carry per-sequencer state and each subtree needs its own.
func NewCompositeWith[T any](capacity int64, mode disruptor.ClaimMode, wait func() disruptor.WaitStrategy, poll time.Duration) *CompositeDistributor[T] {
	if wait == nil {
		wait = func() disruptor.WaitStrategy { return disruptor.BusySpinStrategy{} }
	}
	return &CompositeDistributor[T]{
		capacity: capacity,
		mode:     mode,
		wait:     wait,
		poll:     poll,
	}
}

// AddAsyncParallel synthesizes a ParallelDistributor where every handler
// runs on its own worker, and splices it into the chain.
func (c *CompositeDistributor[T]) AddAsyncParallel(handlers ...Handler[T]) (*ParallelDistributor[T], error) {
	par, err := NewParallel[T](c.capacity, c.mode, c.wait())
	if err != nil {
		return nil, err
	}
	par.SetPollTimeout(c.poll)
	for _, h := range handlers {
		if err := par.AddHandler(h); err != nil {
			return nil, err
		}
	}
	c.splice(par)
	return par, nil
}

// AddAsyncSequential synthesizes a ParallelDistributor whose single worker
// drives the handlers in order, and splices it into the chain. The chain
// hop is async; the handlers still see each message one after another.
func (c *CompositeDistributor[T]) AddAsyncSequential(handlers ...Handler[T]) (*ParallelDistributor[T], error) {
	par, err := NewParallel[T](c.capacity, c.mode, c.wait())
	if err != nil {
		return nil, err
	}
	par.SetPollTimeout(c.poll)
	if err := par.AddHandler(NewConnector[T](NewSequential(handlers...))); err != nil {
		return nil, err
	}
	c.splice(par)
	return par, nil
}

// splice wraps the synthesized subtree in a Connector, records ownership,
// and appends it to the chain.
func (c *CompositeDistributor[T]) splice(par *ParallelDistributor[T]) {
	conn := NewConnector[T](par)
	c.derived = append(c.derived, conn)
	c.SequentialDistributor.AddHandler(conn)
}

// RemoveHandler detaches h. A synthesized child is signaled to stop after
// draining what the composite distributed, joined, and only then dropped,
// so no worker outlives its subtree.
func (c *CompositeDistributor[T]) RemoveHandler(h Handler[T]) error {
	idx := -1
	for i, conn := range c.derived {
		if Handler[T](conn) == h {
			idx = i
			break
		}
	}
	if idx < 0 {
		return c.SequentialDistributor.RemoveHandler(h)
	}

	conn := c.derived[idx]
	// Signal first: SequentialDistributor.RemoveHandler joins the removed
	// handler, and a worker that was never signaled would never exit.
	conn.Signal(DefaultStop)
	if err := c.SequentialDistributor.RemoveHandler(h); err != nil {
		return err
	}
	conn.Join()
	c.derived = append(c.derived[:idx], c.derived[idx+1:]...)
	return nil
}
