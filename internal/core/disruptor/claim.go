// If you are AI: This file implements the producer-side claim strategies.
// A claim strategy hands out exclusive sequence slots and enforces that
// producers never lap the slowest gating consumer.

package disruptor

import (
	"runtime"
	"sync/atomic"
)

// ClaimMode selects the producer coordination protocol for a Sequencer.
type ClaimMode uint8

const (
	// SingleProducer assumes exactly one publishing goroutine. Claims use a
	// plain counter and publish stores the cursor directly.
	SingleProducer ClaimMode = iota
	// MultiProducer coordinates concurrent publishers with an atomic claim
	// cursor and a per-slot availability buffer.
	MultiProducer
)

// String returns the claim mode name for logs and config errors.
func (m ClaimMode) String() string {
	switch m {
	case SingleProducer:
		return "single"
	case MultiProducer:
		return "multi"
	default:
		return "unknown"
	}
}

// claimGoschedEvery bounds tight gating spins before yielding the scheduler.
const claimGoschedEvery = 64

// claimStrategy is the internal contract between the Sequencer and its
// producer coordination protocol.
//
// claimBatch returns the last of n consecutive slots now owned by the
// caller, blocking until the claim is within one ring turn of the slowest
// gating sequence. publish marks [lo, hi] published and advances the cursor
// over the contiguous published prefix. highestPublished returns the
// highest sequence in [next, avail] that is safe to read; single-producer
// mode returns avail unchanged, multi-producer mode stops at the first gap.
type claimStrategy interface {
	claimOne() int64
	claimBatch(n int64) int64
	publish(lo, hi int64)
	highestPublished(next, avail int64) int64
	lastClaimed() int64
}

// singleProducerClaim is the uncontended protocol: one goroutine claims, so
// the next-claim counter needs no atomics. The gating minimum is cached so
// the gating sequences are only re-read when the ring is nearly full.
type singleProducerClaim struct {
	capacity  int64
	nextClaim int64
	gateCache int64
	cursor    *Sequence
	minGating func() int64
}

// newSingleProducerClaim wires the strategy to the sequencer's cursor and
// gating view.
func newSingleProducerClaim(capacity int64, cursor *Sequence, minGating func() int64) *singleProducerClaim {
	return &singleProducerClaim{
		capacity:  capacity,
		nextClaim: InitialSequence,
		gateCache: InitialSequence,
		cursor:    cursor,
		minGating: minGating,
	}
}

// claimOne claims the next single slot.
func (c *singleProducerClaim) claimOne() int64 {
	return c.claimBatch(1)
}

// claimBatch claims n consecutive slots and returns the last one.
// Spins while the claim would overwrite unread data, escalating to
// scheduler yields so a stalled consumer on the same core can run.
func (c *singleProducerClaim) claimBatch(n int64) int64 {
	next := c.nextClaim + n
	wrapPoint := next - c.capacity
	if wrapPoint > c.gateCache {
		spins := 0
		for {
			gate := c.minGating()
			if wrapPoint <= gate {
				c.gateCache = gate
				break
			}
			spins++
			if spins%claimGoschedEvery == 0 {
				runtime.Gosched()
			}
		}
	}
	c.nextClaim = next
	return next
}

// publish makes [lo, hi] visible by storing the cursor. With one producer
// the claim order is the publish order, so the store alone suffices.
func (c *singleProducerClaim) publish(lo, hi int64) {
	c.cursor.Set(hi)
}

// highestPublished passes avail through: the cursor never runs ahead of
// published data in single-producer mode.
func (c *singleProducerClaim) highestPublished(next, avail int64) int64 {
	return avail
}

// lastClaimed returns the most recently claimed sequence.
func (c *singleProducerClaim) lastClaimed() int64 {
	return c.nextClaim
}

// multiProducerClaim coordinates concurrent publishers. Claims race forward
// with CAS; because publishes then complete out of order, each slot carries
// a generation stamp (sequence / capacity) in the availability buffer, and
// the cursor advances lazily over the contiguous stamped prefix.
type multiProducerClaim struct {
	capacity     int64
	mask         int64
	shift        uint
	claimed      *Sequence
	cursor       *Sequence
	minGating    func() int64
	gateCache    atomic.Int64
	availability []atomic.Int32
}

// newMultiProducerClaim allocates the availability buffer with every slot
// marked unpublished.
func newMultiProducerClaim(capacity int64, cursor *Sequence, minGating func() int64) *multiProducerClaim {
	c := &multiProducerClaim{
		capacity:     capacity,
		mask:         capacity - 1,
		shift:        uint(log2(capacity)),
		claimed:      NewSequence(),
		cursor:       cursor,
		minGating:    minGating,
		availability: make([]atomic.Int32, capacity),
	}
	c.gateCache.Store(InitialSequence)
	for i := range c.availability {
		c.availability[i].Store(-1)
	}
	return c
}

// claimOne claims the next single slot.
func (c *multiProducerClaim) claimOne() int64 {
	return c.claimBatch(1)
}

// claimBatch CASes the shared claim cursor forward by n, gating first so a
// successful claim is always within one ring turn of the slowest consumer.
func (c *multiProducerClaim) claimBatch(n int64) int64 {
	spins := 0
	for {
		current := c.claimed.Get()
		next := current + n
		wrapPoint := next - c.capacity
		if wrapPoint > c.gateCache.Load() {
			gate := c.minGating()
			if wrapPoint > gate {
				spins++
				if spins%claimGoschedEvery == 0 {
					runtime.Gosched()
				}
				continue
			}
			c.gateCache.Store(gate)
		}
		if c.claimed.CompareAndSet(current, next) {
			return next
		}
		spins++
		if spins%claimGoschedEvery == 0 {
			runtime.Gosched()
		}
	}
}

// publish stamps the slots' generations, then drags the cursor forward over
// the contiguous published prefix. Racing publishers may each advance the
// cursor; the CAS keeps it monotonic either way.
func (c *multiProducerClaim) publish(lo, hi int64) {
	for s := lo; s <= hi; s++ {
		c.setAvailable(s)
	}
	for {
		current := c.cursor.Get()
		if !c.isAvailable(current + 1) {
			return
		}
		c.cursor.CompareAndSet(current, current+1)
	}
}

// highestPublished scans [next, avail] and returns the sequence before the
// first unpublished gap, so consumers never read a slot a slower publisher
// has claimed but not yet written.
func (c *multiProducerClaim) highestPublished(next, avail int64) int64 {
	for s := next; s <= avail; s++ {
		if !c.isAvailable(s) {
			return s - 1
		}
	}
	return avail
}

// lastClaimed returns the highest sequence any producer has claimed.
func (c *multiProducerClaim) lastClaimed() int64 {
	return c.claimed.Get()
}

// setAvailable stamps slot s with its generation.
func (c *multiProducerClaim) setAvailable(s int64) {
	c.availability[s&c.mask].Store(int32(s >> c.shift))
}

// isAvailable reports whether slot s holds generation s/capacity, i.e. the
// write for exactly this sequence has completed.
func (c *multiProducerClaim) isAvailable(s int64) bool {
	if s < 0 {
		return false
	}
	return c.availability[s&c.mask].Load() == int32(s>>c.shift)
}

// log2 returns the base-2 logarithm of a power-of-two value.
func log2(v int64) int {
	n := 0
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}
