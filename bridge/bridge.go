package bridge

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fogfish/opts"
	"github.com/probekit/probe/pkg/errorsx"
	"github.com/probekit/probe/pkg/jsonx"
	"github.com/probekit/probe/pkg/slogx"
	"github.com/probekit/probe/pkg/syncx"
	"github.com/probekit/probe/wire"
	"github.com/tidwall/gjson"
)

// Config carries construction options for SyncConnection.
type Config struct {
	waitForDebugger bool
}

// WaitForDebugger records that the session should be opened with the
// target paused until a debugger attaches. The connection itself never
// acts on the flag; whoever opens the target side reads it through
// WaitsForDebugger.
func WaitForDebugger() opts.Option[Config] {
	return opts.Type[Config](func(c *Config) error {
		c.waitForDebugger = true
		return nil
	})
}

// kind tags a message exactly once, at arrival. Downstream code never
// re-inspects payloads, which keeps "each message lives in exactly one
// queue" trivially true.
type kind uint8

const (
	kindReply kind = iota
	kindNotification
)

// classify routes a payload by its own content only: a valid JSON document
// carrying an "id" field is a reply to some request, everything else,
// malformed input included, is an unsolicited notification. Fail-open on
// purpose; nothing is ever dropped.
func classify(message string) kind {
	if gjson.Valid(message) && gjson.Get(message, "id").Exists() {
		return kindReply
	}
	return kindNotification
}

// SyncConnection turns an asynchronous session into a blocking testing
// API. Inbound messages are classified on arrival into two independently
// ordered FIFO queues, replies and notifications, so straight-line test
// code can wait for "the next solicited answer" and "the next unsolicited
// event" without filtering a merged stream. A reply arriving never wakes a
// notification waiter and vice versa.
type SyncConnection struct {
	session         wire.Session
	waitForDebugger bool

	replies       *syncx.Unbounded[string]
	notifications *syncx.Unbounded[string]
	closeOnce     sync.Once
}

// New connects a sink to the session and returns the ready connection.
func New(session wire.Session, options ...opts.Option[Config]) (*SyncConnection, error) {
	var cfg Config
	if err := opts.Apply(&cfg, options); err != nil {
		return nil, err
	}

	c := &SyncConnection{
		session:         session,
		waitForDebugger: cfg.waitForDebugger,
		replies:         syncx.NewUnbounded[string](),
		notifications:   syncx.NewUnbounded[string](),
	}
	if err := session.Connect(remoteSink{conn: c}); err != nil {
		c.replies.Close()
		c.notifications.Close()
		return nil, fmt.Errorf("connect session: %w", err)
	}
	return c, nil
}

// WaitsForDebugger reports the flag recorded at construction.
func (c *SyncConnection) WaitsForDebugger() bool { return c.waitForDebugger }

// Send forwards the raw payload to the session. Fire-and-forget: no
// queuing and no correlation happen here; callers that care about
// matching replies to requests inspect the payloads they receive back.
func (c *SyncConnection) Send(message string) error {
	slog.Debug("sending message", slog.String("payload", message))
	return c.session.SendMessage(message)
}

// WaitForResponse blocks until the oldest unconsumed reply is available or
// the timeout elapses. On success the handler runs with the payload on the
// calling goroutine, outside any lock. On timeout nothing is consumed and
// a TimeoutError is returned.
func (c *SyncConnection) WaitForResponse(handler func(string), timeout time.Duration) error {
	return c.waitOn("wait for response", c.replies, handler, timeout)
}

// WaitForNotification is WaitForResponse against the notification queue.
func (c *SyncConnection) WaitForNotification(handler func(string), timeout time.Duration) error {
	return c.waitOn("wait for notification", c.notifications, handler, timeout)
}

func (c *SyncConnection) waitOn(op string, q *syncx.Unbounded[string], handler func(string), timeout time.Duration) error {
	select {
	case msg, ok := <-q.Out():
		if !ok {
			return fmt.Errorf("%s: connection closed", op)
		}
		handler(msg)
		return nil
	case <-time.After(timeout):
		slog.Debug("blocking wait timed out", slogx.Op(op), slogx.Duration("waited", timeout))
		return errorsx.NewTimeout(op, timeout)
	}
}

// Close disconnects the session and shuts both queues down terminally,
// joining their pump goroutines before returning. Unconsumed messages are
// discarded; subsequent waits fail with a "connection closed" error.
func (c *SyncConnection) Close() {
	c.closeOnce.Do(func() {
		c.session.Disconnect()
		c.replies.Stop()
		c.notifications.Stop()
	})
}

// onMessage classifies and enqueues one inbound payload. It runs on
// whatever goroutine the session delivers from. The pretty-printed log
// line is best effort and can never fail classification.
func (c *SyncConnection) onMessage(message string) {
	slog.Debug("received message", slog.String("payload", jsonx.Prettify(message)))

	switch classify(message) {
	case kindReply:
		c.replies.Push(message)
	case kindNotification:
		c.notifications.Push(message)
	}
}

// remoteSink keeps the wire.Sink methods off SyncConnection's public
// surface.
type remoteSink struct {
	conn *SyncConnection
}

func (s remoteSink) OnMessage(message string) { s.conn.onMessage(message) }

// OnDisconnect is a no-op: the connection exposes disconnect as a
// capability but does not act on it internally.
func (s remoteSink) OnDisconnect() {}
