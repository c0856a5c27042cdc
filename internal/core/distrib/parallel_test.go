package distrib

import (
	"sync/atomic"
	"testing"
	"time"

	"ringbus/internal/core/disruptor"
)

// counter is a test handler that counts invocations and sums values.
type counter struct {
	n   atomic.Int64
	sum atomic.Int64
}

// Process tallies the message.
func (c *counter) Process(msg *int64) {
	c.n.Add(1)
	c.sum.Add(*msg)
}

// TestParallelStopWithDrain distributes 1000 messages, signals DefaultStop,
// and joins: every handler must have processed exactly 1000.
func TestParallelStopWithDrain(t *testing.T) {
	d, err := NewParallel[int64](64, disruptor.SingleProducer, disruptor.YieldingStrategy{})
	if err != nil {
		t.Fatal(err)
	}

	handlers := []*counter{{}, {}, {}}
	for _, h := range handlers {
		if err := d.AddHandler(h); err != nil {
			t.Fatal(err)
		}
	}
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}

	const rounds = 1000
	for i := int64(0); i < rounds; i++ {
		v := i
		d.Distribute(&v)
	}

	d.Signal(DefaultStop)
	d.Join()

	wantSum := int64(rounds * (rounds - 1) / 2)
	for i, h := range handlers {
		if got := h.n.Load(); got != rounds {
			t.Errorf("Handler %d processed %d messages, want %d", i, got, rounds)
		}
		if got := h.sum.Load(); got != wantSum {
			t.Errorf("Handler %d sum %d, want %d", i, got, wantSum)
		}
	}
	for i, n := range d.Processed() {
		if n != rounds {
			t.Errorf("Worker %d counter %d, want %d", i, n, rounds)
		}
	}
}

// TestParallelStopImmediately signals StopImmediately after 500 distributes
// and keeps publishing to 1000: handlers see between 500 and 1000 messages
// and join returns promptly.
func TestParallelStopImmediately(t *testing.T) {
	d, err := NewParallel[int64](1024, disruptor.SingleProducer, disruptor.YieldingStrategy{})
	if err != nil {
		t.Fatal(err)
	}

	h := &counter{}
	if err := d.AddHandler(h); err != nil {
		t.Fatal(err)
	}
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}

	for i := int64(0); i < 500; i++ {
		v := i
		d.Distribute(&v)
	}
	// Let the worker observe the whole first half before the stop.
	waitForCount(t, &h.n, 500)
	d.Signal(StopImmediately)
	for i := int64(500); i < 1000; i++ {
		v := i
		d.Distribute(&v)
	}

	joined := make(chan struct{})
	go func() {
		d.Join()
		close(joined)
	}()
	select {
	case <-joined:
	case <-time.After(5 * time.Second):
		t.Fatal("Join should return promptly after StopImmediately")
	}

	got := h.n.Load()
	if got < 500 || got > 1000 {
		t.Errorf("Handler processed %d messages, want between 500 and 1000", got)
	}
}

// TestParallelFrozenAfterStart verifies the gating set freezes at Start.
func TestParallelFrozenAfterStart(t *testing.T) {
	d, err := NewParallel[int64](16, disruptor.SingleProducer, nil)
	if err != nil {
		t.Fatal(err)
	}
	h := &counter{}
	if err := d.AddHandler(h); err != nil {
		t.Fatal(err)
	}
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}
	defer func() {
		d.Signal(DefaultStop)
		d.Join()
	}()

	if err := d.AddHandler(&counter{}); err == nil {
		t.Error("AddHandler after Start should be refused")
	}
	if err := d.RemoveHandler(h); err == nil {
		t.Error("RemoveHandler after Start should be refused")
	}
	if err := d.Start(); err == nil {
		t.Error("Second Start should be refused")
	}
}

// TestParallelPauseHoldsPosition verifies a pause/resume cycle neither
// discards nor duplicates messages: the worker resumes where it left off.
func TestParallelPauseHoldsPosition(t *testing.T) {
	d, err := NewParallel[int64](64, disruptor.SingleProducer, disruptor.YieldingStrategy{})
	if err != nil {
		t.Fatal(err)
	}
	h := &counter{}
	if err := d.AddHandler(h); err != nil {
		t.Fatal(err)
	}
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}

	for i := int64(0); i < 10; i++ {
		v := i
		d.Distribute(&v)
	}
	waitForCount(t, &h.n, 10)

	d.Pause()
	// Give the worker time to reach the pause gate before more arrive.
	time.Sleep(5 * time.Millisecond)
	for i := int64(10); i < 20; i++ {
		v := i
		d.Distribute(&v)
	}
	time.Sleep(20 * time.Millisecond)
	pausedCount := h.n.Load()

	d.Resume()
	waitForCount(t, &h.n, 20)

	if pausedCount > 20 {
		t.Errorf("Processed count %d exceeded distributed messages", pausedCount)
	}
	if got := h.sum.Load(); got != 190 {
		t.Errorf("Sum after resume should be 190 (no loss, no duplication), got %d", got)
	}

	d.Signal(DefaultStop)
	d.Join()
}

// TestParallelBlockingStrategyStops verifies Signal wakes workers parked on
// a blocking wait even with the poll timeout disabled.
func TestParallelBlockingStrategyStops(t *testing.T) {
	d, err := NewParallel[int64](16, disruptor.SingleProducer, &disruptor.BlockingStrategy{})
	if err != nil {
		t.Fatal(err)
	}
	d.SetPollTimeout(0)
	h := &counter{}
	if err := d.AddHandler(h); err != nil {
		t.Fatal(err)
	}
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}

	for i := int64(0); i < 5; i++ {
		v := i
		d.Distribute(&v)
	}

	d.Signal(DefaultStop)
	joined := make(chan struct{})
	go func() {
		d.Join()
		close(joined)
	}()
	select {
	case <-joined:
	case <-time.After(5 * time.Second):
		t.Fatal("Signal should wake a parked blocking worker")
	}

	if got := h.n.Load(); got != 5 {
		t.Errorf("Handler should drain all 5 messages before stopping, got %d", got)
	}
}

// waitForCount polls until the counter reaches want or the deadline passes.
func waitForCount(t *testing.T, n *atomic.Int64, want int64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for n.Load() < want {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for count %d, at %d", want, n.Load())
		}
		time.Sleep(time.Millisecond)
	}
}

// BenchmarkParallelDistribute measures the distribute path with one
// absorbing worker.
func BenchmarkParallelDistribute(b *testing.B) {
	d, _ := NewParallel[int64](1<<14, disruptor.SingleProducer, disruptor.YieldingStrategy{})
	h := &counter{}
	d.AddHandler(h)
	d.Start()

	v := int64(42)
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d.Distribute(&v)
	}
	b.StopTimer()
	d.Signal(DefaultStop)
	d.Join()
}
