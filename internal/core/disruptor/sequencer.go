// If you are AI: This file implements the Sequencer, which owns the ring
// storage and orchestrates claim, publish, cursor, gating, and barriers.

package disruptor

import (
	"fmt"
)

// Sequencer owns a pre-allocated power-of-two ring of T and coordinates
// producers and consumers through sequence numbers. Slots are overwritten in
// place; no allocation happens on the claim/publish path.
//
// Producer protocol: s := Claim(); write *Slot(s); Publish(s).
// Consumer protocol: avail := barrier.WaitFor(cs+1); read Get(cs+1..avail);
// cs.Set(avail).
type Sequencer[T any] struct {
	ring   []T
	mask   int64
	cursor *Sequence
	gating []*Sequence
	claim  claimStrategy
	wait   WaitStrategy
}

// New creates a Sequencer with the given capacity, claim mode, and wait
// strategy. Capacity must be a positive power of two. A nil wait strategy
// defaults to BusySpinStrategy.
func New[T any](capacity int64, mode ClaimMode, wait WaitStrategy) (*Sequencer[T], error) {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("ring capacity must be a positive power of two, got %d", capacity)
	}
	if wait == nil {
		wait = BusySpinStrategy{}
	}
	s := &Sequencer[T]{
		ring:   make([]T, capacity),
		mask:   capacity - 1,
		cursor: NewSequence(),
		wait:   wait,
	}
	switch mode {
	case SingleProducer:
		s.claim = newSingleProducerClaim(capacity, s.cursor, s.minGating)
	case MultiProducer:
		s.claim = newMultiProducerClaim(capacity, s.cursor, s.minGating)
	default:
		return nil, fmt.Errorf("unknown claim mode %d", mode)
	}
	return s, nil
}

// Capacity returns the fixed ring size.
func (s *Sequencer[T]) Capacity() int64 {
	return int64(len(s.ring))
}

// Cursor returns the highest published sequence.
func (s *Sequencer[T]) Cursor() int64 {
	return s.cursor.Get()
}

// CursorSequence exposes the cursor Sequence so it can gate a downstream
// Sequencer or join another barrier's dependency set.
func (s *Sequencer[T]) CursorSequence() *Sequence {
	return s.cursor
}

// LastClaimed returns the highest sequence any producer has claimed, which
// may run ahead of the cursor while writes are in flight.
func (s *Sequencer[T]) LastClaimed() int64 {
	return s.claim.lastClaimed()
}

// SetGatingSequences replaces the gating set with the consumer sequences
// that bound producer progress. Must be called before any claim that could
// be gated; swapping it while claims are active is a contract violation.
func (s *Sequencer[T]) SetGatingSequences(seqs ...*Sequence) {
	s.gating = seqs
}

// minGating returns the slowest gating value, or the cursor when no gating
// sequences are registered; claims are then bounded only by publication and
// block only when they would run a full ring turn past the cursor.
func (s *Sequencer[T]) minGating() int64 {
	return minimumSequence(s.gating, s.cursor.Get())
}

// Claim returns the next sequence slot exclusive to the caller, blocking
// while the ring is full.
func (s *Sequencer[T]) Claim() int64 {
	return s.claim.claimOne()
}

// ClaimBatch claims n consecutive slots and returns the last; the caller
// owns [last-n+1, last]. n must be in [1, capacity].
func (s *Sequencer[T]) ClaimBatch(n int64) int64 {
	if n < 1 || n > s.Capacity() {
		panic(fmt.Sprintf("claim batch of %d on ring of %d", n, s.Capacity()))
	}
	return s.claim.claimBatch(n)
}

// Publish releases a claimed slot to consumers and wakes blocked waiters.
func (s *Sequencer[T]) Publish(seq int64) {
	s.claim.publish(seq, seq)
	s.wait.SignalAllWhenBlocking()
}

// PublishRange releases the claimed slots [lo, hi] in one step.
func (s *Sequencer[T]) PublishRange(lo, hi int64) {
	s.claim.publish(lo, hi)
	s.wait.SignalAllWhenBlocking()
}

// Slot returns a pointer into the ring for a sequence. Before Publish only
// the claimer may touch it; after Publish a consumer holding a barrier
// result covering seq may borrow it for the duration of processing.
func (s *Sequencer[T]) Slot(seq int64) *T {
	return &s.ring[seq&s.mask]
}

// Get returns the value at a published sequence. Callers must hold a
// barrier result covering seq; nothing else guards the read.
func (s *Sequencer[T]) Get(seq int64) T {
	return s.ring[seq&s.mask]
}

// NewBarrier constructs a barrier whose dependency set is the cursor plus
// deps. Consumers chained behind other consumers pass the upstream
// sequences here so they can never overtake them.
func (s *Sequencer[T]) NewBarrier(deps ...*Sequence) *SequenceBarrier {
	all := make([]*Sequence, 0, len(deps)+1)
	all = append(all, s.cursor)
	all = append(all, deps...)
	return newSequenceBarrier(s.wait, all, s.claim.highestPublished)
}
