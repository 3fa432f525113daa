package actors

import "github.com/comalice/hsi"

// ObservableActor adapts a push-stream producer (hsi.Observable) to the
// ActorRef contract: each next-value is forwarded to the spawning
// interpreter as an event, completion settles the actor done, and an
// error settles it failed.
type ObservableActor struct {
	*base
	unsubscribe func()
}

// NewObservableActor subscribes to obs immediately. onEvent delivers
// forwarded values to the spawning interpreter, stamped with this
// actor's id as Origin.
func NewObservableActor(id string, obs hsi.Observable, onEvent func(hsi.Event)) *ObservableActor {
	a := &ObservableActor{base: newBase(id)}
	a.unsubscribe = obs.Subscribe(
		func(value any) {
			a.emit(Snapshot{Status: StatusActive, Output: value})
			if onEvent != nil {
				e := hsi.ToSCXMLEvent(value)
				e.Origin = id
				onEvent(e)
			}
		},
		func(err error) {
			a.settle(Snapshot{Status: StatusError, Err: err})
		},
		func() {
			a.settle(Snapshot{Status: StatusDone, Output: a.snapshot().Output})
		},
	)
	return a
}

// Send is a no-op: observable producers are not addressable by events.
func (a *ObservableActor) Send(any) {}

// Stop unsubscribes from the underlying producer.
func (a *ObservableActor) Stop() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}
