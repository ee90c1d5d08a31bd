package runner

import "sync"

// Cancellation is an asynchronous stop request. Signal may be called any
// number of times from any goroutine; the first call wins and the rest
// are no-ops.
type Cancellation struct {
	once sync.Once
	ch   chan struct{}
}

func NewCancellation() *Cancellation {
	return &Cancellation{ch: make(chan struct{})}
}

// Signal requests that the current run stop at its next wait point.
func (c *Cancellation) Signal() {
	c.once.Do(func() { close(c.ch) })
}

// Poll reports whether Signal has ever been called, without blocking.
func (c *Cancellation) Poll() bool {
	select {
	case <-c.ch:
		return true
	default:
		return false
	}
}

// Done returns a channel closed once Signal has been called. Waiting on
// it is how the runner combines "sleep" and "check for cancellation"
// into a single operation.
func (c *Cancellation) Done() <-chan struct{} {
	return c.ch
}
