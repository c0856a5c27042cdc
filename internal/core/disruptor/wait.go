// If you are AI: This file implements the consumer wait strategies.
// A wait strategy decides how a consumer burns (or does not burn) CPU while
// waiting for a target sequence to become available.

package disruptor

import (
	"runtime"
	"sync"
	"time"

	"github.com/valyala/fastrand"
)

// WaitStrategy controls how a barrier waits for a target sequence.
//
// WaitFor blocks until available() >= target or stop() reports true, then
// returns the latest available value. A returned value below target means
// "no new data yet" (stop or timeout); callers must not advance past it.
// SignalAllWhenBlocking is invoked after every publish so strategies that
// park waiters can wake them; spinning strategies treat it as a no-op.
type WaitStrategy interface {
	WaitFor(target int64, available func() int64, stop func() bool) int64
	SignalAllWhenBlocking()
}

// timedWaitStrategy is implemented by strategies that can bound a single
// wait with a deadline. Spinning strategies re-check stop() every iteration
// and do not need one.
type timedWaitStrategy interface {
	WaitForTimeout(target int64, timeout time.Duration, available func() int64, stop func() bool) int64
}

// BusySpinStrategy spins in a tight loop. Lowest latency, one core pinned.
type BusySpinStrategy struct{}

// WaitFor spins until the target is available or stop reports true.
func (BusySpinStrategy) WaitFor(target int64, available func() int64, stop func() bool) int64 {
	for {
		if v := available(); v >= target {
			return v
		}
		if stop() {
			return available()
		}
	}
}

// SignalAllWhenBlocking is a no-op; spinners never park.
func (BusySpinStrategy) SignalAllWhenBlocking() {}

// yieldSpinTries is how many tight spins YieldingStrategy performs before
// handing the scheduler a chance on every further iteration.
const yieldSpinTries = 100

// YieldingStrategy spins briefly, then yields the processor between polls.
// Latency stays low while other goroutines on the same core can still run.
type YieldingStrategy struct{}

// WaitFor spins with scheduler yields until the target is available.
func (YieldingStrategy) WaitFor(target int64, available func() int64, stop func() bool) int64 {
	tries := 0
	for {
		if v := available(); v >= target {
			return v
		}
		if stop() {
			return available()
		}
		tries++
		if tries > yieldSpinTries {
			runtime.Gosched()
		}
	}
}

// SignalAllWhenBlocking is a no-op; yielders never park.
func (YieldingStrategy) SignalAllWhenBlocking() {}

// SleepingStrategy polls, then sleeps a short jittered interval between
// polls. Moderate latency, near-zero CPU while idle.
type SleepingStrategy struct {
	// Interval is the base sleep duration. Zero means 100 microseconds.
	Interval time.Duration
}

// sleepInterval returns the configured interval with the default applied.
func (s SleepingStrategy) sleepInterval() time.Duration {
	if s.Interval <= 0 {
		return 100 * time.Microsecond
	}
	return s.Interval
}

// WaitFor polls with jittered sleeps until the target is available.
// Jitter desynchronizes sleepers so multiple consumers do not wake in
// lock-step against the same cursor cache line.
func (s SleepingStrategy) WaitFor(target int64, available func() int64, stop func() bool) int64 {
	base := s.sleepInterval()
	for {
		if v := available(); v >= target {
			return v
		}
		if stop() {
			return available()
		}
		time.Sleep(jitter(base))
	}
}

// SignalAllWhenBlocking is a no-op; sleepers wake on their own schedule.
func (SleepingStrategy) SignalAllWhenBlocking() {}

// jitter returns a duration in [d/2, d] using a lock-free PRNG.
func jitter(d time.Duration) time.Duration {
	half := d / 2
	if half <= 0 || half > time.Duration(^uint32(0)) {
		return d
	}
	span := uint32(half)
	return half + time.Duration(fastrand.Uint32n(span+1))
}

// BlockingStrategy parks waiters on a condition variable and relies on the
// publisher signaling after every publish. Highest latency, lowest CPU.
type BlockingStrategy struct {
	mu   sync.Mutex
	cond *sync.Cond
	once sync.Once
}

// init lazily wires the condition variable to the mutex.
func (b *BlockingStrategy) init() {
	b.once.Do(func() {
		b.cond = sync.NewCond(&b.mu)
	})
}

// WaitFor parks until a publish signal makes the target available or stop
// reports true. The availability check runs under the lock so a concurrent
// signal cannot be missed between check and park.
func (b *BlockingStrategy) WaitFor(target int64, available func() int64, stop func() bool) int64 {
	b.init()
	b.mu.Lock()
	for available() < target && !stop() {
		b.cond.Wait()
	}
	b.mu.Unlock()
	return available()
}

// SignalAllWhenBlocking wakes every parked waiter after a publish or alert.
func (b *BlockingStrategy) SignalAllWhenBlocking() {
	b.init()
	b.mu.Lock()
	b.cond.Broadcast()
	b.mu.Unlock()
}

// TimedBlockingStrategy blocks like BlockingStrategy but each wait gives up
// after a deadline, letting callers re-check stop conditions periodically.
type TimedBlockingStrategy struct {
	// Timeout bounds each WaitFor call. Zero means a non-blocking poll.
	Timeout time.Duration

	mu sync.Mutex
	ch chan struct{}
}

// WaitFor waits up to the configured Timeout for the target.
func (t *TimedBlockingStrategy) WaitFor(target int64, available func() int64, stop func() bool) int64 {
	return t.WaitForTimeout(target, t.Timeout, available, stop)
}

// WaitForTimeout waits up to timeout for the target, returning the current
// available value (possibly below target) once the deadline passes.
// A zero timeout is a non-blocking poll.
func (t *TimedBlockingStrategy) WaitForTimeout(target int64, timeout time.Duration, available func() int64, stop func() bool) int64 {
	if v := available(); v >= target {
		return v
	}
	if timeout <= 0 || stop() {
		return available()
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		ch := t.signalChan()
		// Re-check after acquiring the channel: a publish between the first
		// check and signalChan would have closed the previous channel.
		if v := available(); v >= target {
			return v
		}
		if stop() {
			return available()
		}
		select {
		case <-ch:
		case <-timer.C:
			return available()
		}
	}
}

// SignalAllWhenBlocking wakes all current waiters by closing their channel.
func (t *TimedBlockingStrategy) SignalAllWhenBlocking() {
	t.mu.Lock()
	if t.ch != nil {
		close(t.ch)
		t.ch = nil
	}
	t.mu.Unlock()
}

// signalChan returns the channel the next wake-up will close.
func (t *TimedBlockingStrategy) signalChan() chan struct{} {
	t.mu.Lock()
	if t.ch == nil {
		t.ch = make(chan struct{})
	}
	ch := t.ch
	t.mu.Unlock()
	return ch
}
