package vm

import "github.com/dop251/goja"

// Engine is the script-execution capability AsyncRuntime drives. It is
// synchronous per call and must only ever be touched from the runtime's
// worker goroutine. The default implementation is goja; tests inject
// stubs to force specific failure shapes.
type Engine interface {
	// Evaluate compiles and runs source. The url names the script in
	// stack traces and error messages. A thrown script error comes back
	// as a regular Go error.
	Evaluate(source, url string) (any, error)

	// Bind installs a native value, usually a Go function, under name in
	// the global scope.
	Bind(name string, value any) error
}

// EngineFactory produces an Engine. The factory runs on the worker
// goroutine so the engine never escapes it.
type EngineFactory func() (Engine, error)

// Goja returns the default engine factory.
func Goja() EngineFactory {
	return func() (Engine, error) {
		return &gojaEngine{rt: goja.New()}, nil
	}
}

type gojaEngine struct {
	rt *goja.Runtime
}

func (e *gojaEngine) Evaluate(source, url string) (any, error) {
	v, err := e.rt.RunScript(url, source)
	if err != nil {
		return nil, err
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	return v.Export(), nil
}

func (e *gojaEngine) Bind(name string, value any) error {
	return e.rt.Set(name, value)
}
