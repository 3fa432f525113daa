package machine

import "github.com/comalice/hsi"

// ActionSpec is the declarative ActionRef value a StateConfig or
// TransitionConfig uses to wire a built-in interpreter action (send,
// cancel, start, stop, log, assign) into a transition. Transition
// translates it into a recorded hsi.Action; for Kind == hsi.ActionAssign
// it also applies Assign to the extended state immediately, since
// assignment has no externally visible effect for the interpreter's
// action executor to perform.
type ActionSpec struct {
	Kind   string
	ID     string
	Params map[string]any
	Assign func(ctx *Context, event Event)
}

// SendAction emits an event, optionally delayed or addressed to a named
// target, via the interpreter's executor.
func SendAction(event string, opts ...map[string]any) ActionSpec {
	params := map[string]any{"event": event}
	for _, o := range opts {
		for k, v := range o {
			params[k] = v
		}
	}
	return ActionSpec{Kind: hsi.ActionSend, Params: params}
}

// CancelAction cancels a previously scheduled delayed send by id.
func CancelAction(id string) ActionSpec {
	return ActionSpec{Kind: hsi.ActionCancel, ID: id}
}

// StartAction spawns the service factory registered under src. When
// autoForward is true, the interpreter relays every event it receives to
// the spawned child before computing its own next transition, matching
// an invoked service that needs to observe its parent's whole event
// stream rather than only what's explicitly sent to it.
func StartAction(id, src string, data any, autoForward bool) ActionSpec {
	return ActionSpec{Kind: hsi.ActionStart, ID: id, Params: map[string]any{"src": src, "data": data, "autoForward": autoForward}}
}

// StopAction stops the child actor named id.
func StopAction(id string) ActionSpec {
	return ActionSpec{Kind: hsi.ActionStop, ID: id}
}

// LogAction records a label/value pair through the interpreter's logger.
func LogAction(label string, value any) ActionSpec {
	return ActionSpec{Kind: hsi.ActionLog, Params: map[string]any{"label": label, "value": value}}
}

// AssignAction mutates the extended state in place as part of the
// transition's action list.
func AssignAction(assign func(ctx *Context, event Event)) ActionSpec {
	return ActionSpec{Kind: hsi.ActionAssign, Assign: assign}
}

// runActions executes refs against ctx/event in order, applying any
// assign mutation immediately and returning the hsi.Action records the
// interpreter will dispatch through its action executor.
func (d *Definition) runActions(ctx *Context, event Event, refs []ActionRef) []hsi.Action {
	if len(refs) == 0 {
		return nil
	}
	out := make([]hsi.Action, 0, len(refs))
	for _, ref := range refs {
		switch v := ref.(type) {
		case ActionSpec:
			if v.Kind == hsi.ActionAssign && v.Assign != nil {
				v.Assign(ctx, event)
			}
			out = append(out, hsi.Action{Type: v.Kind, ID: v.ID, Params: v.Params})
		case func(*Context, Event):
			v(ctx, event)
		case string:
			if fn, ok := d.actions[v]; ok {
				fn(ctx, event)
			}
			out = append(out, hsi.Action{Type: v})
		case nil:
			// no-op
		default:
			out = append(out, hsi.Action{Type: "unknown"})
		}
	}
	return out
}
