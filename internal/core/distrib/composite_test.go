package distrib

import (
	"sync/atomic"
	"testing"

	"ringbus/internal/core/disruptor"
)

// TestCompositeMixedChain runs a synchronous handler and an async parallel
// subtree side by side: both must observe every message.
func TestCompositeMixedChain(t *testing.T) {
	c := NewCompositeWith[int64](256, disruptor.SingleProducer,
		func() disruptor.WaitStrategy { return disruptor.YieldingStrategy{} }, DefaultPollTimeout)

	var syncCount atomic.Int64
	c.AddHandler(HandlerFunc[int64](func(*int64) { syncCount.Add(1) }))

	async1 := &counter{}
	async2 := &counter{}
	if _, err := c.AddAsyncParallel(async1, async2); err != nil {
		t.Fatal(err)
	}
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}

	const rounds = 200
	for i := int64(0); i < rounds; i++ {
		v := i
		c.Distribute(&v)
	}
	c.Signal(DefaultStop)
	c.Join()

	if got := syncCount.Load(); got != rounds {
		t.Errorf("Synchronous handler processed %d, want %d", got, rounds)
	}
	wantSum := int64(rounds * (rounds - 1) / 2)
	for i, h := range []*counter{async1, async2} {
		if got := h.n.Load(); got != rounds {
			t.Errorf("Async handler %d processed %d, want %d", i, got, rounds)
		}
		if got := h.sum.Load(); got != wantSum {
			t.Errorf("Async handler %d sum %d, want %d", i, got, wantSum)
		}
	}
}

// TestCompositeAsyncSequentialOrdering verifies the async-sequential shape:
// one worker drives the handlers in registration order per message.
func TestCompositeAsyncSequentialOrdering(t *testing.T) {
	c := NewCompositeWith[int64](64, disruptor.SingleProducer,
		func() disruptor.WaitStrategy { return disruptor.YieldingStrategy{} }, DefaultPollTimeout)

	// first must always run before second for any given message; a single
	// worker guarantees it, so the relative counts never invert.
	var firstSeen, inverted atomic.Int64
	first := HandlerFunc[int64](func(*int64) { firstSeen.Add(1) })
	second := HandlerFunc[int64](func(*int64) {
		if firstSeen.Load() == 0 {
			inverted.Add(1)
		}
		firstSeen.Add(-1)
	})

	if _, err := c.AddAsyncSequential(first, second); err != nil {
		t.Fatal(err)
	}
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}

	for i := int64(0); i < 100; i++ {
		v := i
		c.Distribute(&v)
	}
	c.Signal(DefaultStop)
	c.Join()

	if inverted.Load() != 0 {
		t.Errorf("Second handler ran before first %d times", inverted.Load())
	}
}

// TestCompositeRemoveDerived verifies a synthesized subtree is signaled,
// joined, and dropped when removed, and messages keep flowing to the rest.
func TestCompositeRemoveDerived(t *testing.T) {
	c := NewCompositeWith[int64](64, disruptor.SingleProducer,
		func() disruptor.WaitStrategy { return disruptor.YieldingStrategy{} }, DefaultPollTimeout)

	keep := &counter{}
	c.AddHandler(keep)

	dropped := &counter{}
	if _, err := c.AddAsyncParallel(dropped); err != nil {
		t.Fatal(err)
	}
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}

	for i := int64(0); i < 50; i++ {
		v := i
		c.Distribute(&v)
	}

	// The derived connector is the second chain entry.
	conn := c.Handlers()[1]
	if err := c.RemoveHandler(conn); err != nil {
		t.Fatalf("Removing the derived subtree should succeed, got %v", err)
	}
	if got := dropped.n.Load(); got != 50 {
		t.Errorf("Removed subtree should have drained all 50 messages, got %d", got)
	}

	for i := int64(50); i < 80; i++ {
		v := i
		c.Distribute(&v)
	}
	if got := keep.n.Load(); got != 80 {
		t.Errorf("Remaining handler should see all 80 messages, got %d", got)
	}
	if got := dropped.n.Load(); got != 50 {
		t.Errorf("Removed subtree should see no further messages, got %d", got)
	}
}

// TestCompositeRemoveUnknown verifies removal of a never-attached handler
// fails without disturbing the chain.
func TestCompositeRemoveUnknown(t *testing.T) {
	c := NewComposite[int64]()
	c.AddHandler(&counter{})
	if err := c.RemoveHandler(&counter{}); err == nil {
		t.Error("Removing an unknown handler should fail")
	}
	if len(c.Handlers()) != 1 {
		t.Error("Chain should be untouched after failed removal")
	}
}
