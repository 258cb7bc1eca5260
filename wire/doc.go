// Package wire defines the session capability the bridge wraps: a
// bidirectional, callback-driven channel of opaque string messages. It
// ships two implementations with identical semantics, an in-process pipe
// for unit tests and a NATS-backed session for tests that want a real
// transport in the middle.
package wire
