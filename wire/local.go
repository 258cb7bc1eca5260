package wire

import (
	"fmt"
	"sync"

	"github.com/alphadose/haxmap"
	"github.com/probekit/probe/pkg/syncx"
)

// Pipe returns two connected in-process sessions. Whatever one end sends,
// the other end's sink receives, in order, from a pump goroutine owned by
// the receiving end. That pump goroutine is the point of the exercise:
// messages genuinely arrive on a goroutine that is neither the sender's
// nor the test's, the same shape a real transport callback has.
//
// Messages sent before the peer connects are buffered and delivered once
// it does. Disconnecting either end disconnects both.
func Pipe() (Session, Session) {
	a := newPipeEnd()
	b := newPipeEnd()
	a.peer = b
	b.peer = a
	return a, b
}

type pipeEnd struct {
	peer  *pipeEnd
	inbox *syncx.Unbounded[string]

	mu        sync.Mutex
	connected bool
}

func newPipeEnd() *pipeEnd {
	return &pipeEnd{inbox: syncx.NewUnbounded[string]()}
}

func (p *pipeEnd) Connect(sink Sink) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connected {
		return fmt.Errorf("pipe session already connected")
	}
	p.connected = true

	go func() {
		for msg := range p.inbox.Out() {
			sink.OnMessage(msg)
		}
		sink.OnDisconnect()
	}()
	return nil
}

func (p *pipeEnd) SendMessage(message string) error {
	if !p.peer.inbox.Push(message) {
		return fmt.Errorf("pipe session is disconnected")
	}
	return nil
}

func (p *pipeEnd) Disconnect() {
	// Stopping an inbox discards undelivered messages, fires the sink's
	// OnDisconnect, and joins the inbox pump before returning. Idempotent
	// on both ends.
	p.inbox.Stop()
	p.peer.inbox.Stop()
}

// Hub is a registry of named pipes so independently constructed test
// actors can meet in the middle: the side driving the protocol asks for
// the client end, the fake target asks for the server end of the same
// name.
type Hub struct {
	pipes *haxmap.Map[string, *pipePair]
}

type pipePair struct {
	client Session
	server Session
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{pipes: haxmap.New[string, *pipePair]()}
}

// Client returns the client end of the named pipe, creating the pipe on
// first use.
func (h *Hub) Client(name string) Session {
	return h.pair(name).client
}

// Server returns the server end of the named pipe, creating the pipe on
// first use.
func (h *Hub) Server(name string) Session {
	return h.pair(name).server
}

func (h *Hub) pair(name string) *pipePair {
	p, _ := h.pipes.GetOrCompute(name, func() *pipePair {
		c, s := Pipe()
		return &pipePair{client: c, server: s}
	})
	return p
}
