// Package probe is a test harness for asynchronous, message-based
// debugging protocols. It pairs two independent primitives: an
// AsyncRuntime (package vm) that executes scripts on a dedicated worker
// goroutine while the test observes results through synchronized channels,
// and a SyncConnection (package bridge) that turns a callback-driven
// message session into blocking request/response and notification-wait
// calls. The root package wires the two over an in-process pipe for
// end-to-end protocol tests.
package probe
