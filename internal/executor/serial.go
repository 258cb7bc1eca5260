package executor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/probekit/probe/pkg/errorsx"
	"github.com/probekit/probe/pkg/syncx"
)

// Serial runs submitted tasks on one dedicated goroutine, strictly in
// submission order, one at a time. It is the executor backing AsyncRuntime:
// everything that touches the script engine funnels through it, which is
// what makes the engine single-threaded by construction.
type Serial struct {
	tasks     *syncx.Unbounded[func()]
	done      chan struct{}
	closeOnce sync.Once
}

// NewSerial starts the worker goroutine and returns the executor.
func NewSerial() *Serial {
	s := &Serial{
		tasks: syncx.NewUnbounded[func()](),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

// Submit enqueues a task behind all previously submitted ones. It returns
// immediately and reports false when the executor has been closed.
func (s *Serial) Submit(task func()) bool {
	return s.tasks.Push(task)
}

// Barrier blocks until every task submitted strictly before this call has
// finished, or until the timeout elapses. Tasks submitted concurrently
// with or after the call are not waited on. The in-flight task is not
// cancelled on timeout.
func (s *Serial) Barrier(timeout time.Duration) error {
	ready := make(chan struct{})
	if !s.Submit(func() { close(ready) }) {
		// Executor is closing; wait for the worker to finish whatever is
		// still draining instead of declaring the queue quiet early.
		select {
		case <-s.done:
			return nil
		case <-time.After(timeout):
			return errorsx.NewTimeout("executor barrier", timeout)
		}
	}

	select {
	case <-ready:
		return nil
	case <-time.After(timeout):
		return errorsx.NewTimeout("executor barrier", timeout)
	}
}

// Close stops accepting tasks, lets the queue drain, and joins the worker
// goroutine. It is idempotent and safe to call from any goroutine except
// the worker itself.
func (s *Serial) Close() {
	s.closeOnce.Do(func() {
		s.tasks.Close()
	})
	<-s.done
}

func (s *Serial) run() {
	defer close(s.done)
	for task := range s.tasks.Out() {
		s.safely(task)
	}
}

// safely keeps a panicking task from killing the worker; subsequent tasks
// still run.
func (s *Serial) safely(task func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("task panicked on serial executor", slog.Any("panic", r))
		}
	}()
	task()
}
