package hsi

import (
	"log/slog"

	"github.com/comalice/hsi/internal/clock"
)

// InspectorHook observes an interpreter's lifecycle without participating
// in it: every method is fire-and-forget, called synchronously from the
// interpreter's single-threaded update loop. Concrete hooks (tracing,
// metrics) live outside this package so hsi never imports an exporter
// SDK directly; see internal/devtools.
type InspectorHook interface {
	OnTransition(interpreterID string, snap Snapshot)
	OnEvent(interpreterID string, ev Event)
	OnActionError(interpreterID string, err error)
}

// Option configures an Interpreter at construction time.
type Option func(*Interpreter)

// WithID overrides the interpreter's registry id (defaults to the
// machine's own ID()).
func WithID(id string) Option {
	return func(i *Interpreter) { i.id = id }
}

// WithParent addresses the spawning actor hierarchy: "#parent" sends and
// escalated error events go to this parent, and a Done snapshot is
// reported to it as a "done.invoke.<id>" event. Sends with no "to" stay
// self-sends.
func WithParent(parent ActorRef) Option {
	return func(i *Interpreter) { i.parent = parent }
}

// WithClock overrides the production clock.Real, e.g. with clock.Fake in
// tests that need to control delayed-send firing deterministically.
func WithClock(c clock.Clock) Option {
	return func(i *Interpreter) { i.clock = c }
}

// WithLogger overrides the default slog.Default()-backed logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Interpreter) { i.logger = l }
}

// WithDeferEvents buffers Send calls made before Start rather than
// returning ErrNotStarted; the buffered events replay, in order,
// immediately after the initial snapshot is produced.
func WithDeferEvents() Option {
	return func(i *Interpreter) { i.deferEvents = true }
}

// WithActions supplies the interpreter's action-implementation map,
// consulted before a Send/Exec/built-in action resolves.
func WithActions(impl ActionImplementations) Option {
	return func(i *Interpreter) {
		if i.actionImpls == nil {
			i.actionImpls = ActionImplementations{}
		}
		for k, v := range impl {
			i.actionImpls[k] = v
		}
	}
}

// WithServices supplies the interpreter's invoke-service factory map,
// consulted by a "start" action's src.
func WithServices(svc ServiceFactories) Option {
	return func(i *Interpreter) {
		if i.services == nil {
			i.services = ServiceFactories{}
		}
		for k, v := range svc {
			i.services[k] = v
		}
	}
}

// WithInitialState restores the interpreter from a caller-supplied state
// value via the machine's RestorableMachine.Restore, instead of calling
// InitialState on Start.
func WithInitialState(value any) Option {
	return func(i *Interpreter) { i.initialValue = value; i.hasInitialValue = true }
}

// WithInspector registers a hook notified of every transition, raised
// event, and action error.
func WithInspector(h InspectorHook) Option {
	return func(i *Interpreter) { i.hooks = append(i.hooks, h) }
}

// WithExecute controls whether a microstep's action list actually runs.
// Defaults to true; WithExecute(false) still attaches the action list to
// each resulting Snapshot and still notifies listeners of it, but skips
// dispatch entirely — useful for dry-running a machine (visualizing or
// testing its transition table) without side effects like spawning
// services or sending events.
func WithExecute(execute bool) Option {
	return func(i *Interpreter) { i.skipExecute = !execute }
}
