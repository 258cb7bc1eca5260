// Package vm provides AsyncRuntime, a test double for "script execution
// happens on another thread". Scripts run in an embedded goja engine on a
// single serial worker goroutine while the test goroutine observes results
// through a cooperative stop flag, a one-shot stored-value cell, and an
// append-only exception log.
package vm
