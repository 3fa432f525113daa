package hsi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/comalice/hsi/internal/clock"
	"github.com/comalice/hsi/internal/registry"
	"github.com/comalice/hsi/internal/scheduler"
)

// Status is the interpreter's own lifecycle phase, distinct from the
// machine's Snapshot.
type Status int

const (
	StatusNotStarted Status = iota
	StatusRunning
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "notStarted"
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// childEntry tracks one spawned actor under supervision.
type childEntry struct {
	ref ActorRef
	sub Subscription
}

// Listener identifies one registration made through OnTransition/
// OnChange/OnEvent/OnSend/OnDone/OnStop, so it can be removed again with
// Off without the caller needing to know which internal set it lives in.
type Listener struct {
	kind string
	key  int
}

// Interpreter drives machine through event-driven microsteps, executes
// the action list each transition produces, supervises spawned children,
// and fans the resulting Snapshot stream out to subscribers. It
// implements ActorRef so it can itself be spawned as a child.
type Interpreter struct {
	id          string
	machine     Machine
	parent      ActorRef
	clock       clock.Clock
	logger      *slog.Logger
	actionImpls ActionImplementations
	services    ServiceFactories
	deferEvents bool
	skipExecute bool
	hooks       []InspectorHook

	initialValue    any
	hasInitialValue bool
	initOnce        sync.Once
	cachedInitial   Snapshot

	mu        sync.RWMutex
	status    Status
	snap      Snapshot
	queue     *scheduler.Queue
	children  map[string]childEntry
	forwardTo map[string]struct{}
	timers    map[string]clock.Timer
	observers map[int]Observer
	nextKey   int
	pending   []Event
	errListen []func(error)
	lastErr   error

	listenKey         int
	transitionListen  map[int]func(Snapshot)
	changeListen      map[int]func(Snapshot)
	eventListen       map[int]func(Event)
	sendListen        map[int]func(Event)
	doneListen        map[int]func(Snapshot)
	stopListen        map[int]func()
}

// Interpret constructs an Interpreter for machine. It does not start it;
// call Start.
func Interpret(machine Machine, opts ...Option) *Interpreter {
	i := &Interpreter{
		id:               machine.ID(),
		machine:          machine,
		clock:            clock.Real,
		logger:           slog.Default(),
		children:         make(map[string]childEntry),
		forwardTo:        make(map[string]struct{}),
		timers:           make(map[string]clock.Timer),
		observers:        make(map[int]Observer),
		queue:            scheduler.New(),
		transitionListen: make(map[int]func(Snapshot)),
		changeListen:     make(map[int]func(Snapshot)),
		eventListen:      make(map[int]func(Event)),
		sendListen:       make(map[int]func(Event)),
		doneListen:       make(map[int]func(Snapshot)),
		stopListen:       make(map[int]func()),
	}
	for _, o := range opts {
		o(i)
	}
	if src, ok := machine.(ImplementationSource); ok {
		merged := ActionImplementations{}
		for k, v := range src.DefaultActions() {
			merged[k] = v
		}
		for k, v := range i.actionImpls {
			merged[k] = v
		}
		i.actionImpls = merged

		msvc := ServiceFactories{}
		for k, v := range src.DefaultServices() {
			msvc[k] = v
		}
		for k, v := range i.services {
			msvc[k] = v
		}
		i.services = msvc
	}
	return i
}

// ID implements ActorRef.
func (i *Interpreter) ID() string { return i.id }

// Status reports the interpreter's current lifecycle phase.
func (i *Interpreter) Status() Status {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.status
}

// Snapshot returns the current machine snapshot. Safe to call
// concurrently with Send.
func (i *Interpreter) Snapshot() Snapshot {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.snap
}

// InitialState returns the machine's starting Snapshot, computed once
// from machine.InitialState and cached thereafter — calling it
// repeatedly, before or after Start, never re-runs the machine's initial
// entry actions.
func (i *Interpreter) InitialState() Snapshot {
	i.initOnce.Do(func() {
		i.cachedInitial = i.machine.InitialState(i)
	})
	return i.cachedInitial
}

// Start computes the initial (or restored) snapshot, registers the
// interpreter so sendTo/forward can resolve it by id, replays any events
// buffered via WithDeferEvents, and notifies subscribers. Idempotent.
func (i *Interpreter) Start() (*Interpreter, error) {
	i.mu.Lock()
	if i.status != StatusNotStarted {
		i.mu.Unlock()
		return i, nil
	}

	var snap Snapshot
	if i.hasInitialValue {
		rm, ok := i.machine.(RestorableMachine)
		if !ok {
			i.mu.Unlock()
			return nil, fmt.Errorf("hsi: machine %q does not support Restore", i.id)
		}
		s, err := rm.Restore(i.initialValue, i)
		if err != nil {
			i.mu.Unlock()
			return nil, err
		}
		snap = s
	} else {
		snap = i.InitialState()
	}

	i.snap = snap
	i.status = StatusRunning
	pending := i.pending
	i.pending = nil
	i.mu.Unlock()

	registry.Register(i.id, i)
	i.queue.Initialize()

	if !i.skipExecute {
		if err := catchPanic(func() { i.runActions(snap.Actions(), snap, snap.Event()) }); err != nil {
			return i, err
		}
	}
	i.notify(snap)
	i.notifyHooks(snap)
	i.fireTransition(snap)
	i.fireChange(snap)
	i.checkDone(snap)

	for _, ev := range pending {
		i.enqueue(ev)
	}

	return i, nil
}

// Stop tears down every spawned child, clears pending work, drops the
// transition, change and done listeners, and unregisters the
// interpreter. Idempotent.
func (i *Interpreter) Stop() {
	i.mu.Lock()
	if i.status == StatusStopped {
		i.mu.Unlock()
		return
	}
	i.status = StatusStopped
	children := i.children
	i.children = make(map[string]childEntry)
	i.forwardTo = make(map[string]struct{})
	timers := i.timers
	i.timers = make(map[string]clock.Timer)
	obs := i.observers
	i.observers = make(map[int]Observer)
	i.transitionListen = make(map[int]func(Snapshot))
	i.changeListen = make(map[int]func(Snapshot))
	i.doneListen = make(map[int]func(Snapshot))
	i.mu.Unlock()

	for _, t := range timers {
		t.Stop()
	}
	for _, c := range children {
		c.sub.Unsubscribe()
		if s, ok := c.ref.(Stoppable); ok {
			s.Stop()
		}
	}
	i.queue.Clear()
	registry.Unregister(i.id)

	i.fireStop()

	for _, o := range obs {
		if o.Complete != nil {
			o.Complete()
		}
	}
}

// Send normalizes and enqueues event for processing on the interpreter's
// single-threaded microstep queue. It implements ActorRef, so a failure
// to deliver (not started, no WithDeferEvents) is logged rather than
// returned; callers that need to observe that failure should use
// TrySend instead.
func (i *Interpreter) Send(event any) {
	if err := i.TrySend(event); err != nil {
		i.logger.Warn("hsi: dropped event", "interpreter", i.id, "err", err)
	}
}

// TrySend is Send's error-returning counterpart, for callers driving the
// interpreter directly rather than through the ActorRef interface.
func (i *Interpreter) TrySend(event any) error {
	ev := ToSCXMLEvent(event)

	i.mu.Lock()
	status := i.status
	if status == StatusNotStarted {
		if i.deferEvents {
			i.pending = append(i.pending, ev)
			i.mu.Unlock()
			return nil
		}
		i.mu.Unlock()
		return ErrNotStarted
	}
	i.mu.Unlock()

	if status == StatusStopped {
		return nil
	}

	return catchPanic(func() { i.enqueue(ev) })
}

// Batch runs every event in events through the machine as a single
// run-to-completion microstep: each event's transition is applied in
// order against the result of the one before it, their action lists are
// concatenated, and Changed is OR-folded across the whole batch — so
// subscribers and devtools hooks observe exactly one notification for
// the batch, carrying its final snapshot, rather than one per event.
func (i *Interpreter) Batch(events []any) error {
	if len(events) == 0 {
		return nil
	}
	evs := make([]Event, len(events))
	for idx, e := range events {
		evs[idx] = ToSCXMLEvent(e)
	}

	i.mu.Lock()
	status := i.status
	if status == StatusNotStarted {
		if i.deferEvents {
			i.pending = append(i.pending, evs...)
			i.mu.Unlock()
			return nil
		}
		i.mu.Unlock()
		return ErrNotStarted
	}
	i.mu.Unlock()

	if status == StatusStopped {
		return nil
	}

	return catchPanic(func() { i.queue.Schedule(func() { i.updateBatch(evs) }) })
}

// NextState previews the Snapshot event would produce without executing
// any action, spawning any child, or mutating the interpreter's current
// state. Useful for validating a prospective event from outside the
// microstep queue.
func (i *Interpreter) NextState(event any) Snapshot {
	ev := ToSCXMLEvent(event)
	cur := i.Snapshot()
	return i.machine.Transition(cur, ev, i)
}

// Sender returns a bound closure equivalent to i.TrySend, convenient for
// wiring into an internal/actors callback or observable source.
func (i *Interpreter) Sender() func(event any) error {
	return i.TrySend
}

// OnError registers a listener invoked for every action error or panic
// and every unhandled platform-error event. While any such listener is
// registered, these errors are not sent to the parent.
func (i *Interpreter) OnError(fn func(error)) {
	i.mu.Lock()
	i.errListen = append(i.errListen, fn)
	i.mu.Unlock()
}

// OnTransition registers fn to run after every transition — initial or
// not, changed or not — with the resulting Snapshot.
func (i *Interpreter) OnTransition(fn func(Snapshot)) Listener {
	i.mu.Lock()
	defer i.mu.Unlock()
	key := i.listenKey
	i.listenKey++
	i.transitionListen[key] = fn
	return Listener{kind: "transition", key: key}
}

// OnChange registers fn as a context listener: it runs after the
// transition listeners on every transition, changed or not, with the
// resulting Snapshot.
func (i *Interpreter) OnChange(fn func(Snapshot)) Listener {
	i.mu.Lock()
	defer i.mu.Unlock()
	key := i.listenKey
	i.listenKey++
	i.changeListen[key] = fn
	return Listener{kind: "change", key: key}
}

// OnEvent registers fn to run for every event the interpreter processes,
// after that event's actions have run and its snapshot has been swapped
// in, before the transition listeners fire.
func (i *Interpreter) OnEvent(fn func(Event)) Listener {
	i.mu.Lock()
	defer i.mu.Unlock()
	key := i.listenKey
	i.listenKey++
	i.eventListen[key] = fn
	return Listener{kind: "event", key: key}
}

// OnSend registers fn to run whenever the interpreter dispatches an
// event to another actor — a child, a registry entry, or its parent —
// via sendTo. Self-raised events are not reported here; see OnEvent.
func (i *Interpreter) OnSend(fn func(Event)) Listener {
	i.mu.Lock()
	defer i.mu.Unlock()
	key := i.listenKey
	i.listenKey++
	i.sendListen[key] = fn
	return Listener{kind: "send", key: key}
}

// OnDone registers fn to run when the machine reaches a final
// configuration, alongside the done.invoke escalation to any parent.
func (i *Interpreter) OnDone(fn func(Snapshot)) Listener {
	i.mu.Lock()
	defer i.mu.Unlock()
	key := i.listenKey
	i.listenKey++
	i.doneListen[key] = fn
	return Listener{kind: "done", key: key}
}

// OnStop registers fn to run once Stop has torn down children and timers
// and unregistered the interpreter, before observers' Complete fires.
func (i *Interpreter) OnStop(fn func()) Listener {
	i.mu.Lock()
	defer i.mu.Unlock()
	key := i.listenKey
	i.listenKey++
	i.stopListen[key] = fn
	return Listener{kind: "stop", key: key}
}

// Off removes a listener previously returned by OnTransition, OnChange,
// OnEvent, OnSend, OnDone, or OnStop. Removing an already-removed or
// zero-value Listener is a no-op.
func (i *Interpreter) Off(l Listener) {
	i.mu.Lock()
	defer i.mu.Unlock()
	switch l.kind {
	case "transition":
		delete(i.transitionListen, l.key)
	case "change":
		delete(i.changeListen, l.key)
	case "event":
		delete(i.eventListen, l.key)
	case "send":
		delete(i.sendListen, l.key)
	case "done":
		delete(i.doneListen, l.key)
	case "stop":
		delete(i.stopListen, l.key)
	}
}

func (i *Interpreter) enqueue(ev Event) {
	i.queue.Schedule(func() { i.update(ev) })
}

// catchPanic runs fn and converts a panic into a returned error instead
// of letting it escape the call — the other half of handleActionError/
// escalatePlatformError's "rethrow to the caller" fallback: they panic
// so an unrecoverable error fails the microtask visibly rather than
// vanishing into a log line, and this is what turns that panic back
// into the ordinary Go error Start/TrySend/Batch already return.
// Only catches a panic unwinding through fn's own synchronous call —
// work a reentrant Send/TrySend/Batch call schedules for later (e.g.
// from inside a running action) runs on a different call's stack and
// surfaces there instead, same as any other queued microstep.
func catchPanic(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("hsi: panic: %v", r)
			}
		}
	}()
	fn()
	return nil
}

// Subscribe implements ActorRef: Next fires with the current snapshot
// immediately, then with every subsequent transition.
func (i *Interpreter) Subscribe(o Observer) Subscription {
	i.mu.Lock()
	key := i.nextKey
	i.nextKey++
	i.observers[key] = o
	snap := i.snap
	i.mu.Unlock()

	if o.Next != nil && snap != nil {
		o.Next(snap)
	}
	return NewSubscription(func() {
		i.mu.Lock()
		delete(i.observers, key)
		i.mu.Unlock()
	})
}

// MarshalJSON implements ActorRef for diagnostic/devtools payloads.
func (i *Interpreter) MarshalJSON() ([]byte, error) {
	snap := i.Snapshot()
	var value any
	if snap != nil {
		value = snap.Value()
	}
	return json.Marshal(map[string]any{
		"id":     i.id,
		"status": i.Status().String(),
		"value":  value,
	})
}

func (i *Interpreter) notify(snap Snapshot) {
	i.mu.RLock()
	obs := make([]Observer, 0, len(i.observers))
	for _, o := range i.observers {
		obs = append(obs, o)
	}
	i.mu.RUnlock()

	for _, o := range obs {
		if o.Next != nil {
			o.Next(snap)
		}
	}
}

func (i *Interpreter) notifyHooks(snap Snapshot) {
	for _, h := range i.hooks {
		h.OnTransition(i.id, snap)
	}
}

func (i *Interpreter) fireTransition(snap Snapshot) {
	i.mu.RLock()
	fns := make([]func(Snapshot), 0, len(i.transitionListen))
	for _, fn := range i.transitionListen {
		fns = append(fns, fn)
	}
	i.mu.RUnlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (i *Interpreter) fireChange(snap Snapshot) {
	i.mu.RLock()
	fns := make([]func(Snapshot), 0, len(i.changeListen))
	for _, fn := range i.changeListen {
		fns = append(fns, fn)
	}
	i.mu.RUnlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (i *Interpreter) fireEvent(ev Event) {
	i.mu.RLock()
	fns := make([]func(Event), 0, len(i.eventListen))
	for _, fn := range i.eventListen {
		fns = append(fns, fn)
	}
	i.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (i *Interpreter) fireSend(ev Event) {
	i.mu.RLock()
	fns := make([]func(Event), 0, len(i.sendListen))
	for _, fn := range i.sendListen {
		fns = append(fns, fn)
	}
	i.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (i *Interpreter) fireDone(snap Snapshot) {
	i.mu.RLock()
	fns := make([]func(Snapshot), 0, len(i.doneListen))
	for _, fn := range i.doneListen {
		fns = append(fns, fn)
	}
	i.mu.RUnlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (i *Interpreter) fireStop() {
	i.mu.RLock()
	fns := make([]func(), 0, len(i.stopListen))
	for _, fn := range i.stopListen {
		fns = append(fns, fn)
	}
	i.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

// forwardChildren returns the ActorRef of every currently spawned child
// marked for auto-forwarding, snapshotted under lock so callers can
// Send to them without holding i.mu.
func (i *Interpreter) forwardChildren() []ActorRef {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if len(i.forwardTo) == 0 {
		return nil
	}
	refs := make([]ActorRef, 0, len(i.forwardTo))
	for id := range i.forwardTo {
		if c, ok := i.children[id]; ok {
			refs = append(refs, c.ref)
		}
	}
	return refs
}

func (i *Interpreter) checkDone(snap Snapshot) {
	if !snap.Done() {
		return
	}
	i.fireDone(snap)
	if i.parent != nil {
		i.parent.Send(Event{Name: "done.invoke." + i.id, Data: snap.Value(), Origin: i.id})
	}
	i.Stop()
}
