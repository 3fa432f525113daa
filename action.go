package hsi

// Built-in action type discriminators, recognized by the action executor
// when no custom implementation shadows them.
const (
	ActionSend   = "send"
	ActionCancel = "cancel"
	ActionStart  = "start"
	ActionStop   = "stop"
	ActionLog    = "log"
	ActionAssign = "assign"
)

// Action is the tagged record a Snapshot's action list is made of. Type
// selects built-in handling in the executor unless Exec or an entry in the
// interpreter's implementation map resolves to a callable first.
//
// Params carries the built-in-specific payload: for "send", "event" and
// optionally "to"/"delay"; for "cancel"/"stop", nothing beyond ID; for
// "start", "src" and optionally "data"; for "log", "label" and "value".
type Action struct {
	Type   string
	ID     string
	Params map[string]any
	Exec   ActionExecFunc
}

// ActionExecFunc is a user-supplied action implementation. ctx is the
// machine's extended state (opaque), ev is the triggering event, meta
// carries the action and snapshot it ran against.
type ActionExecFunc func(ctx any, ev Event, meta ActionMeta) error

// ActionMeta is passed to every invoked action implementation.
type ActionMeta struct {
	Action Action
	State  Snapshot
	Event  Event
}

// Param reads a typed parameter out of Params, returning the zero value
// if absent or of the wrong type.
func Param[T any](a Action, key string) T {
	var zero T
	if a.Params == nil {
		return zero
	}
	v, ok := a.Params[key]
	if !ok {
		return zero
	}
	typed, ok := v.(T)
	if !ok {
		return zero
	}
	return typed
}

// ActionImplementations maps an action.Type (or a custom type string) to
// an executable. Supplied via WithActions, merged over any default
// implementations the Machine exposes through ImplementationSource.
type ActionImplementations map[string]ActionExecFunc

// ImplementationSource is optionally implemented by a Machine to supply
// default action/service implementations baked into the definition
// itself, which WithActions/WithServices override.
type ImplementationSource interface {
	DefaultActions() ActionImplementations
	DefaultServices() ServiceFactories
}

// ServiceFactories maps an invoke's "src" name to a factory that builds
// the Spawnable it should run as when a "start" action fires.
type ServiceFactories map[string]ServiceFactory

// ServiceFactory builds the entity to spawn for an invoke action. ctx is
// the parent's extended state, data is the invoke's resolved data
// expression result.
type ServiceFactory func(ctx any, ev Event, data any) (Spawnable, error)
