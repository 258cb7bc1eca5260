package vm

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fogfish/opts"
	"github.com/go-openapi/strfmt"
	"github.com/probekit/probe/internal/executor"
	"github.com/probekit/probe/pkg/slogx"
	"github.com/probekit/probe/pkg/uuidx"
)

// Config carries construction options for AsyncRuntime.
type Config struct {
	veryLazy bool
	factory  EngineFactory
}

// VeryLazy defers engine creation and script compilation to the worker's
// first task instead of doing it during New. Tests use it to stress
// lazy-initialization paths.
func VeryLazy() opts.Option[Config] {
	return opts.Type[Config](func(c *Config) error {
		c.veryLazy = true
		return nil
	})
}

// WithEngine swaps the engine factory. The default is Goja.
func WithEngine(factory EngineFactory) opts.Option[Config] {
	return opts.Type[Config](func(c *Config) error {
		c.factory = factory
		return nil
	})
}

// Exception is one recorded script failure.
type Exception struct {
	Message string          `json:"message"`
	At      strfmt.DateTime `json:"at"`
}

// StoredValue is the future-like handle to the value a script passes to
// the global storeValue function. Obtaining the handle never blocks; only
// Get and Await do.
type StoredValue interface {
	Fulfilled() bool
	Get() any
	Await(timeout time.Duration) (any, error)
	Done() <-chan struct{}
}

// AsyncRuntime runs scripts in an embedded engine on a dedicated serial
// worker goroutine, so tests can exercise "script execution happens
// elsewhere" without giving up deterministic observation. The test
// goroutine and the worker share exactly three synchronized channels: the
// cooperative stop flag, the one-shot stored-value cell, and the
// exception log. The engine itself never leaves the worker.
//
// Scripts see two extra globals:
//
//	shouldStop() -> bool   current value of the stop flag
//	storeValue(v)          fulfill the stored-value cell; first call wins,
//	                       later calls are ignored
type AsyncRuntime struct {
	id      string
	exec    *executor.Serial
	factory EngineFactory

	stopFlag atomic.Bool
	stored   *executor.Cell[any]

	mu         sync.Mutex
	exceptions []Exception

	// worker-only state
	engine   Engine
	profiled bool
}

// New builds the runtime and starts its worker. Unless VeryLazy is given,
// the engine is created (on the worker) before New returns control flow to
// the queue, so the first script finds it ready.
func New(options ...opts.Option[Config]) (*AsyncRuntime, error) {
	cfg := Config{factory: Goja()}
	if err := opts.Apply(&cfg, options); err != nil {
		return nil, err
	}

	r := &AsyncRuntime{
		id:      uuidx.NewString(),
		exec:    executor.NewSerial(),
		factory: cfg.factory,
		stored:  executor.NewCell[any](),
	}

	if !cfg.veryLazy {
		r.exec.Submit(func() {
			if err := r.ensureEngine(); err != nil {
				r.recordException(err)
			}
		})
	}
	return r, nil
}

// ID returns the runtime's unique identifier, also used as its profiling
// label.
func (r *AsyncRuntime) ID() string { return r.id }

// Stop sets the stop flag. Running scripts observe it on their next
// shouldStop() call; native code already in flight is not interrupted.
func (r *AsyncRuntime) Stop() { r.stopFlag.Store(true) }

// Start clears the stop flag.
func (r *AsyncRuntime) Start() { r.stopFlag.Store(false) }

// ExecuteScriptAsync enqueues a compile-and-run task on the worker and
// returns immediately. The supported contract is at most one call per
// runtime; extra calls are not rejected but simply queue FIFO behind the
// first.
func (r *AsyncRuntime) ExecuteScriptAsync(source, url string) {
	r.exec.Submit(func() {
		if err := r.ensureEngine(); err != nil {
			r.recordException(err)
			return
		}
		if _, err := r.engine.Evaluate(source, url); err != nil {
			r.recordException(err)
		}
	})
}

// Wait blocks until every task queued before the call has finished, or
// until the timeout elapses, in which case it returns a TimeoutError. The
// in-flight script is not cancelled.
func (r *AsyncRuntime) Wait(timeout time.Duration) error {
	return r.exec.Barrier(timeout)
}

// StoredValue returns the future-like handle for the script-stored value.
func (r *AsyncRuntime) StoredValue() StoredValue { return r.stored }

// HasStoredValue is a non-blocking point-in-time check.
func (r *AsyncRuntime) HasStoredValue() bool { return r.stored.Fulfilled() }

// AwaitStoredValue blocks up to timeout for a script to call storeValue
// and returns the stored value. Reads after fulfillment are idempotent.
func (r *AsyncRuntime) AwaitStoredValue(timeout time.Duration) (any, error) {
	return r.stored.Await(timeout)
}

// NumExceptions returns how many submitted scripts have thrown so far.
func (r *AsyncRuntime) NumExceptions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.exceptions)
}

// LastExceptionMessage returns the message of the most recent script
// exception, or the empty string when nothing has thrown yet.
func (r *AsyncRuntime) LastExceptionMessage() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.exceptions) == 0 {
		return ""
	}
	return r.exceptions[len(r.exceptions)-1].Message
}

// Exceptions returns a copy of the full exception log.
func (r *AsyncRuntime) Exceptions() []Exception {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Exception, len(r.exceptions))
	copy(out, r.exceptions)
	return out
}

// Close drains the task queue, stops the worker, and joins it. The
// runtime is unusable afterwards.
func (r *AsyncRuntime) Close() {
	r.exec.Close()
}

// ensureEngine lazily creates the engine and installs the script-visible
// globals. Worker goroutine only.
func (r *AsyncRuntime) ensureEngine() error {
	if r.engine != nil {
		return nil
	}
	eng, err := r.factory()
	if err != nil {
		return err
	}
	if err := eng.Bind("shouldStop", r.shouldStop); err != nil {
		return err
	}
	if err := eng.Bind("storeValue", r.storeValue); err != nil {
		return err
	}
	r.engine = eng
	return nil
}

func (r *AsyncRuntime) shouldStop() bool {
	return r.stopFlag.Load()
}

func (r *AsyncRuntime) storeValue(v any) {
	if !r.stored.Complete(v) {
		slog.Debug("storeValue called again, keeping the first value",
			slog.String("runtime", r.id))
	}
}

// recordException appends a script failure to the log. The worker keeps
// running; the test goroutine observes failures only through the
// accessors above.
func (r *AsyncRuntime) recordException(err error) {
	slog.Debug("script threw", slogx.Error(err), slog.String("runtime", r.id))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.exceptions = append(r.exceptions, Exception{
		Message: err.Error(),
		At:      strfmt.DateTime(time.Now()),
	})
}
