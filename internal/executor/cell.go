package executor

import (
	"sync"
	"time"

	"github.com/probekit/probe/pkg/errorsx"
	"github.com/probekit/probe/pkg/stdx"
)

// Cell is a single-assignment value slot shared between a producer and any
// number of consumers. It transitions empty -> fulfilled exactly once: the
// first Complete wins and every later call is ignored, so a misbehaving
// producer cannot corrupt an already observed value. Reads after
// fulfillment are idempotent and always yield the same value.
type Cell[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
}

// NewCell returns an empty cell.
func NewCell[T any]() *Cell[T] {
	return &Cell[T]{done: make(chan struct{})}
}

// Complete fulfills the cell with v. It reports whether this call was the
// one that fulfilled it; false means the value was already set and v was
// dropped.
func (c *Cell[T]) Complete(v T) bool {
	accepted := false
	c.once.Do(func() {
		c.value = v
		accepted = true
		close(c.done)
	})
	return accepted
}

// Fulfilled is a non-blocking point-in-time check.
func (c *Cell[T]) Fulfilled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Get blocks until the cell is fulfilled and returns the value. Prefer
// Await in tests so a broken producer fails the test instead of hanging it.
func (c *Cell[T]) Get() T {
	<-c.done
	return c.value
}

// Await blocks up to timeout for fulfillment. On timeout it returns the
// zero value and a TimeoutError; the cell itself is unaffected and a later
// Await can still succeed.
func (c *Cell[T]) Await(timeout time.Duration) (T, error) {
	select {
	case <-c.done:
		return c.value, nil
	case <-time.After(timeout):
		return stdx.Zero[T](), errorsx.NewTimeout("await stored value", timeout)
	}
}

// Done exposes the fulfillment signal for callers that want to select on
// it alongside other channels.
func (c *Cell[T]) Done() <-chan struct{} {
	return c.done
}
