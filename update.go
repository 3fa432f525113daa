package hsi

import "fmt"

// update runs one run-to-completion microstep for ev against the
// interpreter's current snapshot. It always executes on the scheduler
// queue, so no two calls ever run concurrently for the same interpreter.
//
// Steps: auto-forward, transition, execute actions, swap state, notify
// subscribers, handle completion.
func (i *Interpreter) update(ev Event) {
	// 1. Read the current snapshot under lock.
	i.mu.RLock()
	cur := i.snap
	status := i.status
	i.mu.RUnlock()
	if status == StatusStopped {
		return
	}

	// 2. Relay ev to every auto-forward child before the machine sees it,
	// so an invoked child observes the same event stream as its parent.
	for _, ref := range i.forwardChildren() {
		ref.Send(ev)
	}

	// 3. Compute the next snapshot. Transition is pure: it must not
	// mutate cur, schedule timers, or spawn actors itself.
	next := i.machine.Transition(cur, ev, i)

	if ev.IsPlatformError() && !next.Changed() {
		i.escalatePlatformError(ev)
	}

	// 4. Execute the action list the transition attached, handling
	// spawn/stop/send/cancel/log/assign side effects and escalating
	// action failures, unless WithExecute(false) suppressed dispatch.
	if !i.skipExecute {
		i.runActions(next.Actions(), next, ev)
	}

	// 5. Swap the current snapshot.
	i.mu.Lock()
	i.snap = next
	i.mu.Unlock()

	// 6. Dispatch in the ordering guarantee's order: event-listeners,
	// then transition-listeners, then context-listeners. Actions above
	// have already run against next, so every listener here observes
	// their effects rather than racing them.
	i.notifyEventHooks(ev)
	i.fireEvent(ev)

	i.notify(next)
	i.notifyHooks(next)
	i.fireTransition(next)

	i.fireChange(next)

	// 7. If the machine has reached a final configuration, report
	// completion to the parent and stop supervising children.
	i.checkDone(next)
}

// updateBatch runs every event in evs through the machine in order as a
// single microstep: one notify/notifyHooks/checkDone call covers the
// whole batch, with actions concatenated across every event's
// transition and Changed OR-folded into the synthesized final snapshot.
func (i *Interpreter) updateBatch(evs []Event) {
	i.mu.RLock()
	cur := i.snap
	status := i.status
	i.mu.RUnlock()
	if status == StatusStopped {
		return
	}

	var actions []Action
	changed := false
	next := cur

	for _, ev := range evs {
		for _, ref := range i.forwardChildren() {
			ref.Send(ev)
		}

		next = i.machine.Transition(next, ev, i)
		if ev.IsPlatformError() && !next.Changed() {
			i.escalatePlatformError(ev)
		}
		actions = append(actions, next.Actions()...)
		changed = changed || next.Changed()
	}

	final := batchSnapshot{Snapshot: next, actions: actions, changed: changed}
	lastEv := evs[len(evs)-1]

	if !i.skipExecute {
		i.runActions(final.Actions(), final, lastEv)
	}

	i.mu.Lock()
	i.snap = final
	i.mu.Unlock()

	if !changed {
		i.logger.Warn(fmt.Sprintf("hsi: batch: %d events produced no transition", len(evs)), "interpreter", i.id)
	}

	// Dispatch order matches update: event-listeners for every event in
	// the batch, then the batch's single set of transition-listeners,
	// then context-listeners, mirroring the ordering guarantee a
	// single-event microstep follows.
	for _, ev := range evs {
		i.notifyEventHooks(ev)
		i.fireEvent(ev)
	}

	i.notify(final)
	i.notifyHooks(final)
	i.fireTransition(final)

	i.fireChange(final)

	i.checkDone(final)
}

// batchSnapshot wraps the final Snapshot a Batch call's last event
// produced, substituting its Actions/Changed with the concatenated and
// OR-folded values accumulated across the whole batch so listeners see
// the batch as one transition rather than the last event alone.
type batchSnapshot struct {
	Snapshot
	actions []Action
	changed bool
}

func (b batchSnapshot) Actions() []Action { return b.actions }
func (b batchSnapshot) Changed() bool     { return b.changed }

func (i *Interpreter) notifyEventHooks(ev Event) {
	for _, h := range i.hooks {
		h.OnEvent(i.id, ev)
	}
}

// escalatePlatformError reports an incoming platform-error event that
// produced no transition — meaning nothing in the active configuration
// handled it — to every registered error listener, then the parent, and
// finally lastErr/the logger when nothing else can observe it. Mirrors
// handleActionError's escalation order since both ultimately report "an
// error this interpreter could not resolve on its own." Like
// handleActionError, the final fallback panics with the wrapped error
// instead of only logging it, so it is still rethrown to the caller of
// Send/TrySend/Batch rather than silently dropped.
func (i *Interpreter) escalatePlatformError(ev Event) {
	wrapped := &PlatformError{
		InterpreterID: i.id,
		Event:         ev,
		Err:           fmt.Errorf("hsi: unhandled platform error event %q", ev.Name),
	}

	i.mu.RLock()
	listeners := append([]func(error){}, i.errListen...)
	i.mu.RUnlock()

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
	i.logger.Error("hsi: unhandled platform error event", "interpreter", i.id, "event", ev.Name)
	panic(wrapped)
}
