// If you are AI: This file implements ParallelDistributor and its async
// worker wrappers. Each registered handler runs on an owned worker driven
// by its own barrier over the distributor's internal sequencer.

package distrib

import (
	"errors"
	"runtime"
	"sync/atomic"
	"time"

	"ringbus/internal/core/disruptor"
)

// DefaultPollTimeout bounds each worker wait so workers re-check their stop
// state periodically. Only wait strategies with deadline support
// (TimedBlockingStrategy) apply it; other strategies wait untimed and are
// woken by the alert that Signal raises.
const DefaultPollTimeout = 100 * time.Microsecond

// ParallelDistributor fans messages out asynchronously: Distribute claims a
// slot on an owned Sequencer, copies the message value in, and publishes;
// one worker goroutine per handler consumes at its own pace. The handler
// set freezes at Start because each worker's sequence gates the producer.
type ParallelDistributor[T any] struct {
	seqr     *disruptor.Sequencer[T]
	wrappers []*asyncWrapper[T]
	started  atomic.Bool
	poll     time.Duration
}

// NewParallel creates a ParallelDistributor with an internal ring of the
// given capacity. A nil wait strategy defaults to busy-spin; mode is almost
// always SingleProducer since one distributing thread feeds the ring.
func NewParallel[T any](capacity int64, mode disruptor.ClaimMode, wait disruptor.WaitStrategy) (*ParallelDistributor[T], error) {
	seqr, err := disruptor.New[T](capacity, mode, wait)
	if err != nil {
		return nil, err
	}
	return &ParallelDistributor[T]{
		seqr: seqr,
		poll: DefaultPollTimeout,
	}, nil
}

// SetPollTimeout adjusts the periodic stop-check interval for workers.
// Zero means a pure wait: workers then rely solely on the alert raised by
// Signal to wake out of a parked wait. Must be called before Start.
func (d *ParallelDistributor[T]) SetPollTimeout(timeout time.Duration) {
	d.poll = timeout
}

// AddHandler registers h with its own worker state. Refused after Start:
// the worker sequences are the sequencer's gating set and must not change
// while the producer is claiming against them.
func (d *ParallelDistributor[T]) AddHandler(h Handler[T]) error {
	if h == nil {
		return errors.New("nil handler")
	}
	if d.started.Load() {
		return errors.New("gating set is frozen after start")
	}
	d.wrappers = append(d.wrappers, newAsyncWrapper(h, d.seqr))
	return nil
}

// RemoveHandler unregisters h. Refused after Start for the same gating
// reason as AddHandler.
func (d *ParallelDistributor[T]) RemoveHandler(h Handler[T]) error {
	if d.started.Load() {
		return errors.New("gating set is frozen after start")
	}
	for i, w := range d.wrappers {
		if w.handler == h {
			d.wrappers = append(d.wrappers[:i], d.wrappers[i+1:]...)
			return nil
		}
	}
	return errors.New("handler is not attached")
}

// Start freezes the handler set, registers every worker sequence as a
// gating sequence, and launches the workers.
func (d *ParallelDistributor[T]) Start() error {
	if d.started.Swap(true) {
		return errors.New("distributor already started")
	}
	gating := make([]*disruptor.Sequence, len(d.wrappers))
	for i, w := range d.wrappers {
		gating[i] = w.sequence
	}
	d.seqr.SetGatingSequences(gating...)
	for _, w := range d.wrappers {
		if err := startHandler(w.handler); err != nil {
			return err
		}
		w.start(d.poll)
	}
	return nil
}

// Distribute claims a slot, copies msg into it, and publishes. Blocks while
// the slowest worker is a full ring turn behind. Must only be called after
// Start; before Start no worker sequence gates the ring, so claims do not
// wait for the workers and a full ring turn overwrites unread slots.
func (d *ParallelDistributor[T]) Distribute(msg *T) {
	s := d.seqr.Claim()
	*d.seqr.Slot(s) = *msg
	d.seqr.Publish(s)
}

// Signal conveys a stop boundary to every worker. DefaultStop is replaced
// by the last claimed index so "stop after what the parent distributed"
// needs no bookkeeping from the caller.
func (d *ParallelDistributor[T]) Signal(stopSeq int64) {
	if stopSeq == DefaultStop {
		stopSeq = d.seqr.LastClaimed()
	}
	for _, w := range d.wrappers {
		w.signal(stopSeq)
		signalHandler(w.handler, stopSeq)
	}
}

// Join blocks until every worker goroutine has exited.
func (d *ParallelDistributor[T]) Join() {
	for _, w := range d.wrappers {
		w.join()
		joinHandler(w.handler)
	}
}

// Pause flags every worker; paused workers hold position at the top of
// their wait loop and never advance, never discard.
func (d *ParallelDistributor[T]) Pause() {
	for _, w := range d.wrappers {
		w.paused.Store(true)
	}
}

// Resume clears the pause flag on every worker.
func (d *ParallelDistributor[T]) Resume() {
	for _, w := range d.wrappers {
		w.paused.Store(false)
	}
}

// Processed returns the per-worker processed message counts in handler
// registration order.
func (d *ParallelDistributor[T]) Processed() []int64 {
	out := make([]int64, len(d.wrappers))
	for i, w := range d.wrappers {
		out[i] = w.processed.Load()
	}
	return out
}

// Cursor returns the internal sequencer's published cursor.
func (d *ParallelDistributor[T]) Cursor() int64 {
	return d.seqr.Cursor()
}

// asyncWrapper owns one worker goroutine: its consumer Sequence (registered
// as gating), its barrier over the distributor's cursor, and its stop and
// pause state.
type asyncWrapper[T any] struct {
	handler   Handler[T]
	seqr      *disruptor.Sequencer[T]
	sequence  *disruptor.Sequence
	barrier   *disruptor.SequenceBarrier
	poll      time.Duration
	paused    atomic.Bool
	stopNow   atomic.Bool
	stopArmed atomic.Bool
	stopAt    atomic.Int64
	processed atomic.Int64
	done      chan struct{}
}

// newAsyncWrapper allocates the worker state for h. The worker goroutine
// itself is created on start.
func newAsyncWrapper[T any](h Handler[T], seqr *disruptor.Sequencer[T]) *asyncWrapper[T] {
	return &asyncWrapper[T]{
		handler:  h,
		seqr:     seqr,
		sequence: disruptor.NewSequence(),
	}
}

// start builds the worker's barrier and launches its goroutine.
func (w *asyncWrapper[T]) start(poll time.Duration) {
	w.poll = poll
	w.barrier = w.seqr.NewBarrier()
	w.done = make(chan struct{})
	go w.run()
}

// signal records the stop boundary and wakes the worker out of any parked
// wait via the barrier alert.
func (w *asyncWrapper[T]) signal(stopSeq int64) {
	if stopSeq == StopImmediately {
		w.stopNow.Store(true)
	} else {
		w.stopAt.Store(stopSeq)
		w.stopArmed.Store(true)
	}
	if w.barrier != nil {
		w.barrier.Alert()
	}
}

// join waits for the worker goroutine to exit. Safe to call repeatedly and
// before start.
func (w *asyncWrapper[T]) join() {
	if w.done != nil {
		<-w.done
	}
}

// run is the worker loop: wait for the barrier, process the available
// batch, advance the consumer sequence, re-check stop state.
func (w *asyncWrapper[T]) run() {
	defer close(w.done)
	next := w.sequence.Get() + 1
	for {
		for w.paused.Load() && !w.stopNow.Load() {
			runtime.Gosched()
		}

		var avail int64
		if w.poll > 0 {
			avail = w.barrier.WaitForTimeout(next, w.poll)
		} else {
			avail = w.barrier.WaitFor(next)
		}
		if w.stopNow.Load() {
			return
		}

		for ; next <= avail; next++ {
			w.handler.Process(w.seqr.Slot(next))
			w.processed.Add(1)
		}
		w.sequence.Set(next - 1)

		if w.stopArmed.Load() && next-1 >= w.stopAt.Load() {
			return
		}
		if avail < next {
			// Alerted or timed out with no new data; yield so a draining
			// producer is not starved by this re-check loop.
			runtime.Gosched()
		}
	}
}
