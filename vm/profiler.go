package vm

import (
	"context"
	"log/slog"
	"runtime/pprof"
	"sync"
)

// RegisterForProfilingInExecutor tags the worker goroutine with this
// runtime's profiling label. The labeling runs as a task on the worker
// itself, so registration and unregistration always happen on the same
// goroutine identity. Registrations do not nest; a second register before
// the matching unregister is logged and dropped.
func (r *AsyncRuntime) RegisterForProfilingInExecutor() {
	r.exec.Submit(func() {
		if r.profiled {
			slog.Warn("runtime already registered for profiling", slog.String("runtime", r.id))
			return
		}
		r.profiled = true
		pprof.SetGoroutineLabels(pprof.WithLabels(context.Background(),
			pprof.Labels("probe_runtime", r.id)))
	})
}

// UnregisterForProfilingInExecutor removes the worker's profiling label.
// Unbalanced calls are logged and dropped.
func (r *AsyncRuntime) UnregisterForProfilingInExecutor() {
	r.exec.Submit(func() {
		if !r.profiled {
			slog.Warn("runtime is not registered for profiling", slog.String("runtime", r.id))
			return
		}
		r.profiled = false
		pprof.SetGoroutineLabels(context.Background())
	})
}

// ProfilingScope pairs registration with a guaranteed unregistration.
// Acquire it at the top of a guarded region and defer Close; whatever path
// exits the region, including a test failure unwinding through it, the
// worker ends up unregistered. Close is idempotent.
type ProfilingScope struct {
	rt   *AsyncRuntime
	once sync.Once
}

// NewProfilingScope registers rt for profiling and returns the scope that
// releases it.
func NewProfilingScope(rt *AsyncRuntime) *ProfilingScope {
	rt.RegisterForProfilingInExecutor()
	return &ProfilingScope{rt: rt}
}

// Close unregisters the runtime. Safe to call more than once.
func (s *ProfilingScope) Close() {
	s.once.Do(s.rt.UnregisterForProfilingInExecutor)
}
