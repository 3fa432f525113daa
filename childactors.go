package hsi

import (
	"encoding/json"
	"sync"
)

// actorBase holds the subscribe/unsubscribe bookkeeping shared by the
// promise, callback, and observable child actors below. It mirrors the
// machine-backed Interpreter's own observer fan-out so every spawned
// thing looks the same to a caller of Subscribe, whether or not it runs
// a machine underneath.
type actorBase struct {
	id string

	mu        sync.Mutex
	snap      actorSnapshot
	observers map[int]Observer
	nextKey   int
}

type actorStatus int

const (
	actorActive actorStatus = iota
	actorDone
	actorError
)

type actorSnapshot struct {
	status actorStatus
	output any
	err    error
}

func (s actorSnapshot) Value() any                    { return s.status }
func (s actorSnapshot) Context() any                  { return s.output }
func (s actorSnapshot) Event() Event                  { return Event{} }
func (s actorSnapshot) Configuration() []StateDescriptor { return nil }
func (s actorSnapshot) Actions() []Action             { return nil }
func (s actorSnapshot) Changed() bool                 { return true }
func (s actorSnapshot) History() Snapshot             { return nil }
func (s actorSnapshot) Done() bool                    { return s.status != actorActive }

func newActorBase(id string) *actorBase {
	return &actorBase{id: id, observers: make(map[int]Observer), snap: actorSnapshot{status: actorActive}}
}

func (b *actorBase) ID() string { return b.id }

func (b *actorBase) Subscribe(o Observer) Subscription {
	b.mu.Lock()
	key := b.nextKey
	b.nextKey++
	b.observers[key] = o
	snap := b.snap
	b.mu.Unlock()

	if o.Next != nil {
		o.Next(snap)
	}
	return NewSubscription(func() {
		b.mu.Lock()
		delete(b.observers, key)
		b.mu.Unlock()
	})
}

func (b *actorBase) MarshalJSON() ([]byte, error) {
	b.mu.Lock()
	snap := b.snap
	b.mu.Unlock()
	errStr := ""
	if snap.err != nil {
		errStr = snap.err.Error()
	}
	return json.Marshal(map[string]any{"id": b.id, "done": snap.Done(), "error": errStr})
}

func (b *actorBase) settle(snap actorSnapshot) {
	b.mu.Lock()
	if b.snap.Done() {
		b.mu.Unlock()
		return
	}
	b.snap = snap
	obs := make([]Observer, 0, len(b.observers))
	for _, o := range b.observers {
		obs = append(obs, o)
	}
	b.mu.Unlock()

	for _, o := range obs {
		if o.Next != nil {
			o.Next(snap)
		}
	}
	for _, o := range obs {
		switch {
		case snap.status == actorError && o.Error != nil:
			o.Error(snap.err)
		case snap.status == actorDone && o.Complete != nil:
			o.Complete()
		}
	}
}

func (b *actorBase) emit(snap actorSnapshot) {
	b.mu.Lock()
	b.snap = snap
	obs := make([]Observer, 0, len(b.observers))
	for _, o := range b.observers {
		obs = append(obs, o)
	}
	b.mu.Unlock()
	for _, o := range obs {
		if o.Next != nil {
			o.Next(snap)
		}
	}
}

// promiseChild runs a PromiseFunc once in its own goroutine and reports
// its outcome to the spawning interpreter as a done.invoke/error event.
type promiseChild struct{ *actorBase }

func newPromiseChild(parent *Interpreter, id string, fn PromiseFunc) *promiseChild {
	a := &promiseChild{actorBase: newActorBase(id)}
	go func() {
		value, err := fn()
		if err != nil {
			a.settle(actorSnapshot{status: actorError, err: err})
			parent.Send(Event{Name: "error." + id, Data: err, Origin: id})
			return
		}
		a.settle(actorSnapshot{status: actorDone, output: value})
		parent.Send(Event{Name: "done.invoke." + id, Data: value, Origin: id})
	}()
	return a
}

func (a *promiseChild) Send(any) {}

// callbackChild wraps a CallbackFunc, relaying events it pushes out to
// the spawning interpreter and dispatching parent-to-child sends to its
// registered receive handler.
type callbackChild struct {
	*actorBase
	mu      sync.Mutex
	handler func(event any)
	dispose func()
}

func newCallbackChild(parent *Interpreter, id string, fn CallbackFunc) *callbackChild {
	a := &callbackChild{actorBase: newActorBase(id)}
	send := func(event any) {
		e := ToSCXMLEvent(event)
		e.Origin = id
		parent.Send(e)
	}
	receive := func(handler func(event any)) {
		a.mu.Lock()
		a.handler = handler
		a.mu.Unlock()
	}
	a.dispose = fn(send, receive)
	return a
}

func (a *callbackChild) Send(event any) {
	a.mu.Lock()
	h := a.handler
	a.mu.Unlock()
	if h != nil {
		h(event)
	}
}

func (a *callbackChild) Stop() {
	a.mu.Lock()
	dispose := a.dispose
	a.dispose = nil
	a.mu.Unlock()
	if dispose != nil {
		dispose()
	}
	a.settle(actorSnapshot{status: actorDone})
}

// observableChild adapts an Observable's push stream to the spawning
// interpreter, forwarding every next value as a self-event.
type observableChild struct {
	*actorBase
	unsubscribe func()
}

func newObservableChild(parent *Interpreter, id string, obs Observable) *observableChild {
	a := &observableChild{actorBase: newActorBase(id)}
	a.unsubscribe = obs.Subscribe(
		func(value any) {
			a.emit(actorSnapshot{status: actorActive, output: value})
			e := ToSCXMLEvent(value)
			e.Origin = id
			parent.Send(e)
		},
		func(err error) {
			a.settle(actorSnapshot{status: actorError, err: err})
		},
		func() {
			a.settle(actorSnapshot{status: actorDone})
		},
	)
	return a
}

func (a *observableChild) Send(any) {}

func (a *observableChild) Stop() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}
