// Package steps dispatches one Script to the handler matching its Kind:
// sql scripts submit directly through the driver facade, javascript scripts
// run inside a sandboxed goja runtime with a narrow set of host bindings.
// Unknown-kind scripts have no handler and are the caller's responsibility
// to skip.
package steps

import (
	"context"

	"github.com/kvlabs/schemamgr/internal/driver"
	"github.com/kvlabs/schemamgr/internal/script"
)

// Logger is the narrow logging surface a Handler writes to: the engine
// passes its per-version capturelog.Logger here so every step's output lands
// in that version's transcript.
type Logger interface {
	Trace(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Handler executes one Script against a live Provider.
type Handler interface {
	Run(ctx context.Context, p driver.Provider, s script.Script, log Logger) error
}

// Registry looks up a Handler by script.Kind.
type Registry struct {
	handlers map[script.Kind]Handler
}

// NewDefaultRegistry wires the built-in sql and javascript handlers.
func NewDefaultRegistry() *Registry {
	r := &Registry{handlers: make(map[script.Kind]Handler, 2)}
	r.Register(script.SQL, NewSQLHandler())
	r.Register(script.JavaScript, NewJSHandler())
	return r
}

// Register installs or replaces the handler for kind.
func (r *Registry) Register(kind script.Kind, h Handler) {
	r.handlers[kind] = h
}

// Lookup returns the handler for kind, if any is registered.
func (r *Registry) Lookup(kind script.Kind) (Handler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}
