package actors

import "github.com/comalice/hsi"

// PromiseActor runs a PromiseFunc exactly once in its own goroutine and
// settles with its result.
type PromiseActor struct {
	*base
}

// NewPromiseActor starts fn immediately and reports completion through
// the returned actor's snapshot. onSettled, if non-nil, is called with
// the resolved value or the error once the promise settles, so the
// spawning interpreter can raise a matching self-event.
func NewPromiseActor(id string, fn hsi.PromiseFunc, onSettled func(value any, err error)) *PromiseActor {
	a := &PromiseActor{base: newBase(id)}
	go func() {
		value, err := fn()
		if err != nil {
			a.settle(Snapshot{Status: StatusError, Err: err})
		} else {
			a.settle(Snapshot{Status: StatusDone, Output: value})
		}
		if onSettled != nil {
			onSettled(value, err)
		}
	}()
	return a
}

// Send is a no-op: a promise actor accepts no input once started.
func (a *PromiseActor) Send(any) {}
