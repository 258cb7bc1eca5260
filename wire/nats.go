package wire

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/probekit/probe/pkg/slogx"
)

// NATS adapts a pair of subjects on a NATS connection into a Session.
// Inbound messages are whatever arrives on inSubject; SendMessage
// publishes to outSubject. NATS delivers messages for one subscription
// sequentially, so per-stream FIFO holds without extra locking here.
//
// The connection is borrowed, not owned: Disconnect drops the
// subscription but leaves the connection open for other sessions.
func NATS(conn *nats.Conn, inSubject, outSubject string) Session {
	return &natsSession{
		conn:       conn,
		inSubject:  inSubject,
		outSubject: outSubject,
	}
}

type natsSession struct {
	conn       *nats.Conn
	inSubject  string
	outSubject string

	mu   sync.Mutex
	sub  *nats.Subscription
	sink Sink
}

func (n *natsSession) Connect(sink Sink) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sink != nil {
		return fmt.Errorf("nats session already connected")
	}

	sub, err := n.conn.Subscribe(n.inSubject, func(msg *nats.Msg) {
		sink.OnMessage(string(msg.Data))
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", n.inSubject, err)
	}

	n.sink = sink
	n.sub = sub
	return nil
}

func (n *natsSession) SendMessage(message string) error {
	return n.conn.Publish(n.outSubject, []byte(message))
}

func (n *natsSession) Disconnect() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sub == nil {
		return
	}
	if err := n.sub.Unsubscribe(); err != nil {
		slog.Error("failed to unsubscribe nats session", slogx.Error(err), slog.String("subject", n.inSubject))
	}
	n.sub = nil

	sink := n.sink
	n.sink = nil
	if sink != nil {
		sink.OnDisconnect()
	}
}
