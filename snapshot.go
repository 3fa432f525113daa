package hsi

// StateDescriptor describes one active leaf state in a Snapshot's
// configuration: its hierarchical path, its type, and the path of its
// parent (for ancestor walks without re-consulting the machine).
type StateDescriptor struct {
	Path   string
	Type   string // "atomic", "compound", "parallel", "final", "history", ...
	Parent string
}

// IsFinal reports whether the descriptor names a final state.
func (d StateDescriptor) IsFinal() bool {
	return d.Type == "final"
}

// Snapshot is the opaque-to-this-package state-value the machine
// collaborator produces on every transition. The interpreter never
// constructs one itself; it only reads these accessors.
type Snapshot interface {
	// Value is the machine's own hierarchical state label (opaque).
	Value() any
	// Context is the machine's extended state (user data), opaque to the
	// interpreter beyond being handed to context-listeners.
	Context() any
	// Event is the event that produced this snapshot, or the zero Event
	// for the initial snapshot.
	Event() Event
	// Configuration is the set of currently active leaf states.
	Configuration() []StateDescriptor
	// Actions is the ordered action list attached to this transition.
	Actions() []Action
	// Changed reports whether this snapshot differs from its predecessor.
	Changed() bool
	// History is the previous-history snapshot, or nil if none.
	History() Snapshot
	// Done reports whether this snapshot represents completion: every
	// active top-level state is final.
	Done() bool
}

// Machine is the pure, external (state, event) -> state compiler this
// interpreter drives. It is never mutated by, and never mutates, the
// Interpreter: every method is safe to call concurrently and must not
// retain the ActorRef passed to Transition beyond the call.
type Machine interface {
	// ID names the machine definition (defaults the interpreter's id).
	ID() string
	// InitialState returns the machine's starting snapshot.
	InitialState(parent ActorRef) Snapshot
	// Transition computes the next snapshot for (state, event). It is
	// pure: calling it must not mutate state, schedule timers, or spawn
	// actors — any actor-hierarchy side effects are deferred to the
	// action list the interpreter executes against the result.
	Transition(state Snapshot, event Event, parent ActorRef) Snapshot
}

// RestorableMachine is implemented by machines that can resume from a
// caller-supplied state value rather than InitialState. Interpreter.Start
// uses it when the interpreter was built with WithInitialState.
type RestorableMachine interface {
	Machine
	Restore(stateValue any, parent ActorRef) (Snapshot, error)
}
