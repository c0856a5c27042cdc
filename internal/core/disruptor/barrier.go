// If you are AI: This file implements the SequenceBarrier, the read-side
// combination of a wait strategy, a dependency set, and an alert flag.

package disruptor

import (
	"math"
	"sync/atomic"
	"time"
)

// SequenceBarrier answers "what is the highest sequence at or past my
// request that every dependency has cleared?". Dependencies are the
// producer cursor plus, for chained consumers, upstream consumer sequences.
// Allocation: the dependency slice, once at construction.
type SequenceBarrier struct {
	wait    WaitStrategy
	deps    []*Sequence
	highest func(next, avail int64) int64
	alert   atomic.Bool
}

// newSequenceBarrier builds a barrier over the given dependency set.
// deps must be non-empty; the Sequencer always places its cursor first.
func newSequenceBarrier(wait WaitStrategy, deps []*Sequence, highest func(next, avail int64) int64) *SequenceBarrier {
	return &SequenceBarrier{
		wait:    wait,
		deps:    deps,
		highest: highest,
	}
}

// minimum returns the smallest dependency value.
func (b *SequenceBarrier) minimum() int64 {
	return minimumSequence(b.deps, math.MaxInt64)
}

// WaitFor blocks until every dependency reaches s, then returns the highest
// contiguously published sequence at or past s (batch consumption follows
// naturally). A returned value below s means the barrier was alerted; the
// caller must treat it as "no new data" and not advance.
func (b *SequenceBarrier) WaitFor(s int64) int64 {
	v := b.wait.WaitFor(s, b.minimum, b.alert.Load)
	if v < s {
		return v
	}
	return b.highest(s, v)
}

// WaitForTimeout behaves like WaitFor but gives up after timeout when the
// wait strategy supports deadlines. Spinning strategies already poll the
// alert flag every iteration and ignore the timeout. A zero timeout is a
// non-blocking poll on timed strategies.
func (b *SequenceBarrier) WaitForTimeout(s int64, timeout time.Duration) int64 {
	tw, ok := b.wait.(timedWaitStrategy)
	if !ok {
		return b.WaitFor(s)
	}
	v := tw.WaitForTimeout(s, timeout, b.minimum, b.alert.Load)
	if v < s {
		return v
	}
	return b.highest(s, v)
}

// Alert short-circuits current and future waits, waking parked waiters.
// This is the standard way to unblock consumers during shutdown.
func (b *SequenceBarrier) Alert() {
	b.alert.Store(true)
	b.wait.SignalAllWhenBlocking()
}

// ClearAlert re-arms the barrier after an alert has been handled.
func (b *SequenceBarrier) ClearAlert() {
	b.alert.Store(false)
}

// Alerted reports whether the barrier is currently alerted.
func (b *SequenceBarrier) Alerted() bool {
	return b.alert.Load()
}
