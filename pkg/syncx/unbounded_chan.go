package syncx

import (
	"sync"
	"sync/atomic"
)

// Unbounded is a FIFO channel with an unlimited internal buffer. Writers
// block at most briefly; values are buffered until a reader drains them. A
// dedicated goroutine shuttles values between the inbound channel, the
// buffer, and the outbound channel.
//
// Multiple writers and readers are supported. Shutdown comes in two
// flavors:
//
//   - Close stops accepting new values but keeps delivering buffered ones;
//     the outbound channel closes once the buffer drains, so readers
//     ranging over Out observe every accepted value.
//   - Stop additionally discards whatever was not yet consumed and joins
//     the pump goroutine before returning, for owners that are tearing
//     down and have no reader left to drain.
type Unbounded[T any] struct {
	in   chan T
	out  chan T
	stop chan struct{}
	done chan struct{}

	mu       sync.Mutex
	closed   bool
	stopOnce sync.Once
	size     atomic.Int64
}

// NewUnbounded creates an unbounded channel and starts its pump goroutine.
func NewUnbounded[T any]() *Unbounded[T] {
	u := &Unbounded[T]{
		in:   make(chan T),
		out:  make(chan T),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go u.pump()
	return u
}

// Push appends v to the queue. It reports false when the channel has been
// closed or stopped, in which case v is dropped.
func (u *Unbounded[T]) Push(v T) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return false
	}
	u.size.Add(1)
	u.in <- v
	return true
}

// Out returns the read side. It is closed once the pump exits: after Close
// when every accepted value has been delivered, or immediately on Stop.
func (u *Unbounded[T]) Out() <-chan T {
	return u.out
}

// Len returns the number of accepted values not yet read. It is a point in
// time snapshot and cannot be relied on for exact accounting under
// concurrent use.
func (u *Unbounded[T]) Len() int {
	return int(u.size.Load())
}

// Close stops accepting new values. Buffered values remain readable from
// Out until it is drained and closed. Close is idempotent and does not
// wait for the drain; use Stop when nothing will read the remainder.
func (u *Unbounded[T]) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return
	}
	u.closed = true
	close(u.in)
}

// Stop shuts the channel down terminally: no new values are accepted,
// undelivered values are discarded, and Stop blocks until the pump
// goroutine has exited. Idempotent, and safe to combine with Close in
// either order.
func (u *Unbounded[T]) Stop() {
	u.Close()
	u.stopOnce.Do(func() { close(u.stop) })
	<-u.done
}

func (u *Unbounded[T]) pump() {
	defer close(u.done)
	defer close(u.out)

	var buf []T
	in := u.in

	for in != nil || len(buf) > 0 {
		var out chan T
		var next T
		if len(buf) > 0 {
			out = u.out
			next = buf[0]
		}

		select {
		case v, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			buf = append(buf, v)
		case out <- next:
			buf = buf[1:]
			u.size.Add(-1)
		case <-u.stop:
			// Terminal shutdown: whatever is still buffered is dropped.
			return
		}
	}
}
