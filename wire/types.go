package wire

// Sink receives inbound traffic from a session. Both callbacks may be
// invoked from any goroutine, any number of times; implementations must do
// their own synchronization.
type Sink interface {
	// OnMessage delivers one raw message payload.
	OnMessage(message string)

	// OnDisconnect signals that the session will deliver no further
	// messages.
	OnDisconnect()
}

// Session is the bidirectional message channel capability the bridge
// wraps. Implementations own the transport; the messages themselves are
// opaque strings to this package.
type Session interface {
	// Connect registers the sink that receives inbound messages. A
	// session accepts exactly one sink; connecting twice is an error.
	Connect(sink Sink) error

	// SendMessage forwards one payload to the remote end. There is no
	// queuing or correlation at this layer.
	SendMessage(message string) error

	// Disconnect tears the channel down. Every connected sink receives
	// OnDisconnect exactly once. Disconnect is idempotent.
	Disconnect()
}
