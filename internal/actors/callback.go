package actors

import (
	"sync"

	"github.com/comalice/hsi"
)

// CallbackActor wraps a CallbackFunc: a worker that registers a receive
// handler for parent-to-child events and may push events back to the
// parent through the send function it's handed at construction.
type CallbackActor struct {
	*base

	mu      sync.Mutex
	handler func(event any)
	dispose func()
}

// NewCallbackActor runs fn synchronously to wire up its send/receive
// registrars. onEvent delivers events the callback pushes out to the
// spawning interpreter, stamped with this actor's id as Origin.
func NewCallbackActor(id string, fn hsi.CallbackFunc, onEvent func(hsi.Event)) *CallbackActor {
	a := &CallbackActor{base: newBase(id)}

	send := func(event any) {
		if onEvent == nil {
			return
		}
		e := hsi.ToSCXMLEvent(event)
		e.Origin = id
		onEvent(e)
	}
	receive := func(handler func(event any)) {
		a.mu.Lock()
		a.handler = handler
		a.mu.Unlock()
	}
	a.dispose = fn(send, receive)
	return a
}

// Send delivers an event to the registered receive handler, if any.
func (a *CallbackActor) Send(event any) {
	a.mu.Lock()
	h := a.handler
	a.mu.Unlock()
	if h != nil {
		h(event)
	}
}

// Stop runs the disposer returned by the callback function, if any, and
// marks the actor done.
func (a *CallbackActor) Stop() {
	a.mu.Lock()
	dispose := a.dispose
	a.dispose = nil
	a.mu.Unlock()
	if dispose != nil {
		dispose()
	}
	a.settle(Snapshot{Status: StatusDone})
}
