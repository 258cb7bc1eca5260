package probe

import (
	"time"

	"github.com/fogfish/opts"
	"github.com/probekit/probe/bridge"
	"github.com/probekit/probe/pkg/uuidx"
	"github.com/probekit/probe/vm"
	"github.com/probekit/probe/wire"
)

// DefaultTimeout bounds every blocking call the harness makes on behalf of
// a test that did not pick its own deadline.
const DefaultTimeout = 2500 * time.Millisecond

// Config carries harness construction options.
type Config struct {
	veryLazy        bool
	waitForDebugger bool
	timeout         time.Duration
	engine          vm.EngineFactory
}

// VeryLazy defers engine creation in the runtime to the first submitted
// script.
func VeryLazy() opts.Option[Config] {
	return opts.Type[Config](func(c *Config) error {
		c.veryLazy = true
		return nil
	})
}

// WaitForDebugger opens the connection with the target held paused until a
// debugger attaches.
func WaitForDebugger() opts.Option[Config] {
	return opts.Type[Config](func(c *Config) error {
		c.waitForDebugger = true
		return nil
	})
}

// DefaultTimeoutOf overrides DefaultTimeout for this harness.
var DefaultTimeoutOf = opts.ForName[Config, time.Duration]("timeout")

// WithEngine overrides the runtime's engine factory.
func WithEngine(factory vm.EngineFactory) opts.Option[Config] {
	return opts.Type[Config](func(c *Config) error {
		c.engine = factory
		return nil
	})
}

// Harness composes an AsyncRuntime with a SyncConnection over an
// in-process pipe. The two components stay independent, exactly as tests
// use them; the harness only saves the boilerplate of wiring a pipe and
// remembering the default deadline. Target is the far end of the pipe,
// where a test installs its fake debug target.
type Harness struct {
	Runtime *vm.AsyncRuntime
	Conn    *bridge.SyncConnection
	Target  wire.Session

	timeout time.Duration
}

// New builds the harness.
func New(options ...opts.Option[Config]) (*Harness, error) {
	cfg := Config{timeout: DefaultTimeout, engine: vm.Goja()}
	if err := opts.Apply(&cfg, options); err != nil {
		return nil, err
	}

	var vmOpts []opts.Option[vm.Config]
	vmOpts = append(vmOpts, vm.WithEngine(cfg.engine))
	if cfg.veryLazy {
		vmOpts = append(vmOpts, vm.VeryLazy())
	}
	rt, err := vm.New(vmOpts...)
	if err != nil {
		return nil, err
	}

	var brOpts []opts.Option[bridge.Config]
	if cfg.waitForDebugger {
		brOpts = append(brOpts, bridge.WaitForDebugger())
	}

	// Both ends come out of a hub under a fresh session name, the same way
	// independently constructed actors would find each other.
	hub := wire.NewHub()
	session := uuidx.NewString()
	client := hub.Client(session)
	server := hub.Server(session)
	conn, err := bridge.New(client, brOpts...)
	if err != nil {
		rt.Close()
		return nil, err
	}

	return &Harness{
		Runtime: rt,
		Conn:    conn,
		Target:  server,
		timeout: cfg.timeout,
	}, nil
}

// Wait blocks until the runtime's worker drains, bounded by the harness
// default timeout.
func (h *Harness) Wait() error {
	return h.Runtime.Wait(h.timeout)
}

// AwaitStoredValue blocks for the script-stored value, bounded by the
// harness default timeout.
func (h *Harness) AwaitStoredValue() (any, error) {
	return h.Runtime.AwaitStoredValue(h.timeout)
}

// WaitForResponse pops the oldest reply, bounded by the harness default
// timeout.
func (h *Harness) WaitForResponse(handler func(string)) error {
	return h.Conn.WaitForResponse(handler, h.timeout)
}

// WaitForNotification pops the oldest notification, bounded by the
// harness default timeout.
func (h *Harness) WaitForNotification(handler func(string)) error {
	return h.Conn.WaitForNotification(handler, h.timeout)
}

// Close tears both components down, joining their goroutines.
func (h *Harness) Close() {
	h.Conn.Close()
	h.Runtime.Close()
}
