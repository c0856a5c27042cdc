// If you are AI: This file implements the Connector, the adapter that lets
// a whole distributor subtree stand in as a single handler.

package distrib

// Distributor is the fan-out contract every distributor variant satisfies.
type Distributor[T any] interface {
	AddHandler(h Handler[T]) error
	RemoveHandler(h Handler[T]) error
	Distribute(msg *T)
	Start() error
	Signal(stopSeq int64)
	Join()
}

// Connector holds a Distributor and implements the Handler contract by
// delegation, so subtrees nest inside parent chains. It is a plain value;
// ownership of the wrapped distributor stays with whoever created it.
type Connector[T any] struct {
	dist Distributor[T]
}

// NewConnector wraps dist as a Handler.
func NewConnector[T any](dist Distributor[T]) *Connector[T] {
	return &Connector[T]{dist: dist}
}

// Distributor returns the wrapped distributor.
func (c *Connector[T]) Distributor() Distributor[T] {
	return c.dist
}

// Process forwards the message into the subtree.
func (c *Connector[T]) Process(msg *T) {
	c.dist.Distribute(msg)
}

// Start starts the subtree.
func (c *Connector[T]) Start() error {
	return c.dist.Start()
}

// Signal forwards the stop boundary into the subtree.
func (c *Connector[T]) Signal(stopSeq int64) {
	c.dist.Signal(stopSeq)
}

// Join waits for the subtree to quiesce.
func (c *Connector[T]) Join() {
	c.dist.Join()
}
