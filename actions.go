package hsi

import (
	"fmt"
	"time"

	"github.com/comalice/hsi/internal/svcscope"
)

// runActions executes snap's action list in order against ev.
func (i *Interpreter) runActions(actions []Action, snap Snapshot, ev Event) {
	for _, a := range actions {
		i.runAction(a, snap, ev)
	}
}

// runAction resolves a's implementation — Exec field, then the
// interpreter's implementation map, then built-in dispatch — and runs
// it, catching both returned errors and panics so one bad action cannot
// take down the interpreter's goroutine. handleActionError itself
// panics with the escalated *ActionError once it has exhausted every
// listener/parent it can forward to, so that error still propagates out
// of the microstep rather than vanishing silently — the recover below
// re-panics that case immediately rather than re-escalating it a second
// time through handleActionError.
func (i *Interpreter) runAction(a Action, snap Snapshot, ev Event) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if ae, ok := r.(*ActionError); ok {
			panic(ae)
		}
		if err, ok := r.(error); ok {
			i.handleActionError(a, fmt.Errorf("panic: %w", err))
		} else {
			i.handleActionError(a, fmt.Errorf("panic: %v", r))
		}
	}()

	meta := ActionMeta{Action: a, State: snap, Event: ev}

	// Exec and the implementation map are both user-supplied code; push i
	// onto svcscope for their duration so Spawn called from inside either
	// one resolves the interpreter actually running them.
	if a.Exec != nil {
		svcscope.Push(i)
		defer svcscope.Pop()
		if err := a.Exec(snap.Context(), ev, meta); err != nil {
			i.handleActionError(a, err)
		}
		return
	}
	if impl, ok := i.actionImpls[a.Type]; ok {
		svcscope.Push(i)
		defer svcscope.Pop()
		if err := impl(snap.Context(), ev, meta); err != nil {
			i.handleActionError(a, err)
		}
		return
	}

	switch a.Type {
	case ActionSend:
		i.execSend(a)
	case ActionCancel:
		i.execCancel(a)
	case ActionStart:
		i.execStart(a, ev)
	case ActionStop:
		i.execStop(a)
	case ActionLog:
		i.execLog(a)
	case ActionAssign:
		// Mutation already happened inside the machine's Transition;
		// the record exists only for listener/log visibility.
	default:
		i.logger.Warn("hsi: unhandled action type", "type", a.Type, "interpreter", i.id)
	}
}

func (i *Interpreter) execSend(a Action) {
	name := Param[string](a, "event")
	to := Param[string](a, "to")
	delay := Param[time.Duration](a, "delay")
	data := a.Params["data"]

	fire := func() {
		i.mu.Lock()
		delete(i.timers, a.ID)
		i.mu.Unlock()
		i.sendTo(to, Event{Name: name, Data: data, Origin: i.id})
	}

	if delay <= 0 {
		i.sendTo(to, Event{Name: name, Data: data, Origin: i.id})
		return
	}

	id := a.ID
	if id == "" {
		id = name
	}
	timer := i.clock.AfterFunc(delay, fire)
	i.mu.Lock()
	i.timers[id] = timer
	i.mu.Unlock()
}

func (i *Interpreter) execCancel(a Action) {
	i.mu.Lock()
	t, ok := i.timers[a.ID]
	delete(i.timers, a.ID)
	i.mu.Unlock()
	if ok {
		t.Stop()
	}
}

func (i *Interpreter) execStart(a Action, ev Event) {
	src := Param[string](a, "src")
	data := a.Params["data"]
	autoForward := Param[bool](a, "autoForward")

	factory, ok := i.services[src]
	if !ok {
		i.handleActionError(a, fmt.Errorf("hsi: no service registered for src %q", src))
		return
	}
	spawnable, err := factory(i.Snapshot().Context(), ev, data)
	if err != nil {
		i.handleActionError(a, err)
		return
	}
	id := a.ID
	if id == "" {
		id = src
	}
	if _, err := i.spawn(id, spawnable); err != nil {
		i.handleActionError(a, err)
		return
	}
	if autoForward {
		i.mu.Lock()
		i.forwardTo[id] = struct{}{}
		i.mu.Unlock()
	}
}

func (i *Interpreter) execStop(a Action) {
	i.stopChild(a.ID)
}

func (i *Interpreter) execLog(a Action) {
	label := Param[string](a, "label")
	i.logger.Info(label, "value", a.Params["value"], "interpreter", i.id)
}

// handleActionError escalates an action failure: registered error
// listeners first, then the parent as a platform-error event. If
// neither exists to observe it, the error is recorded as lastErr,
// logged, and rethrown by panicking with it — runAction's own recover
// lets that panic through unchanged, so it ultimately surfaces out of
// the microstep queue to the caller of Send/TrySend/Batch instead of
// disappearing into a log line nothing can act on.
func (i *Interpreter) handleActionError(a Action, err error) {
	wrapped := &ActionError{InterpreterID: i.id, ActionType: a.Type, Err: err}

	i.mu.RLock()
	listeners := append([]func(error){}, i.errListen...)
	i.mu.RUnlock()

	for _, h := range i.hooks {
		h.OnActionError(i.id, wrapped)
	}

	if len(listeners) > 0 {
		for _, l := range listeners {
			l(wrapped)
		}
		return
	}
	if i.parent != nil {
		i.parent.Send(Event{Name: PlatformErrorToken, Data: wrapped, Origin: i.id})
		return
	}
	i.mu.Lock()
	i.lastErr = wrapped
	i.mu.Unlock()
	i.logger.Error("hsi: unhandled action error", "interpreter", i.id, "err", wrapped)
	panic(wrapped)
}
