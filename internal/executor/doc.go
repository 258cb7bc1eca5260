// Package executor holds the concurrency primitives behind AsyncRuntime:
// a serial FIFO worker that owns the script engine's goroutine, and a
// single-assignment cell shared between script code and the test
// goroutine.
package executor
