// If you are AI: This file implements SingleDistributor, the one-handler
// degenerate form of the distribution tree.

package distrib

import (
	"errors"
)

// SingleDistributor forwards every message to exactly one handler on the
// caller's thread.
type SingleDistributor[T any] struct {
	handler Handler[T]
}

// NewSingle creates a SingleDistributor around h.
func NewSingle[T any](h Handler[T]) *SingleDistributor[T] {
	return &SingleDistributor[T]{handler: h}
}

// AddHandler replaces an absent handler; a second handler is refused.
func (d *SingleDistributor[T]) AddHandler(h Handler[T]) error {
	if d.handler != nil {
		return errors.New("single distributor already holds a handler")
	}
	d.handler = h
	return nil
}

// RemoveHandler detaches the handler after joining it.
func (d *SingleDistributor[T]) RemoveHandler(h Handler[T]) error {
	if d.handler == nil || d.handler != h {
		return errors.New("handler is not attached")
	}
	joinHandler(h)
	d.handler = nil
	return nil
}

// Distribute forwards msg synchronously.
func (d *SingleDistributor[T]) Distribute(msg *T) {
	if d.handler != nil {
		d.handler.Process(msg)
	}
}

// Start starts the handler's lifecycle if it has one.
func (d *SingleDistributor[T]) Start() error {
	if d.handler == nil {
		return nil
	}
	return startHandler(d.handler)
}

// Signal forwards the stop signal.
func (d *SingleDistributor[T]) Signal(stopSeq int64) {
	if d.handler != nil {
		signalHandler(d.handler, stopSeq)
	}
}

// Join waits for the handler to quiesce.
func (d *SingleDistributor[T]) Join() {
	if d.handler != nil {
		joinHandler(d.handler)
	}
}
