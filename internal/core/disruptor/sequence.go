// If you are AI: This file defines the Sequence primitive used for all cross-thread coordination.
// A Sequence is a cache-line padded monotonic counter shared between producers and consumers.

package disruptor

import (
	"sync/atomic"
)

// InitialSequence is the sentinel value a Sequence starts at.
// Valid sequence numbers begin at 0, so -1 never collides with published data.
const InitialSequence int64 = -1

// Sequence is a monotonic 64-bit counter used as the cursor, as consumer read
// positions, and as gating sequences. The padding on both sides keeps each
// Sequence on its own cache line so that independent counters never share one.
// Allocation: one per producer cursor and one per consumer, at construction.
type Sequence struct {
	_     [64]byte
	value atomic.Int64
	_     [56]byte
}

// NewSequence creates a Sequence initialized to InitialSequence.
func NewSequence() *Sequence {
	s := &Sequence{}
	s.value.Store(InitialSequence)
	return s
}

// NewSequenceAt creates a Sequence initialized to the given value.
func NewSequenceAt(v int64) *Sequence {
	s := &Sequence{}
	s.value.Store(v)
	return s
}

// Get returns the current value with atomic load semantics.
func (s *Sequence) Get() int64 {
	return s.value.Load()
}

// Set stores a new value with atomic store semantics.
// Publishing a slot pairs this store with the Get in a consumer's wait loop.
func (s *Sequence) Set(v int64) {
	s.value.Store(v)
}

// IncrementAndGet atomically adds delta and returns the new value.
func (s *Sequence) IncrementAndGet(delta int64) int64 {
	return s.value.Add(delta)
}

// CompareAndSet atomically replaces expected with next.
// Returns true if the swap happened.
func (s *Sequence) CompareAndSet(expected, next int64) bool {
	return s.value.CompareAndSwap(expected, next)
}

// minimumSequence returns the smallest value among seqs, or fallback when
// seqs is empty. Used for gating checks and barrier dependency scans.
func minimumSequence(seqs []*Sequence, fallback int64) int64 {
	min := fallback
	for _, s := range seqs {
		if v := s.Get(); v < min {
			min = v
		}
	}
	return min
}
