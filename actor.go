package hsi

import "encoding/json"

// ActorRef is the uniform handle every spawnable entity exposes,
// regardless of whether it's a nested interpreter, a promise, a callback
// worker, or an observable stream.
type ActorRef interface {
	ID() string
	Send(event any)
	Subscribe(observer Observer) Subscription
	MarshalJSON() ([]byte, error)
}

// Stoppable is implemented by actor refs that can be torn down explicitly.
// Not every ActorRef variant needs one (a settled promise has nothing to
// stop), so it's a capability interface rather than part of ActorRef.
type Stoppable interface {
	Stop()
}

// Spawnable is the tagged union Spawn dispatches on. Rather than having
// Spawn sniff a value's runtime shape ("is this a thenable?"), callers
// declare what they're spawning by producing one of these via
// FromPromise, FromCallback, FromObservable, FromMachine, or FromActor.
type Spawnable interface {
	spawnKind() string
}

// PromiseFunc is run once; its return value is delivered to the parent as
// a self-event on success, or an error("<id>", err) event on failure.
type PromiseFunc func() (any, error)

type promiseSpawnable struct{ fn PromiseFunc }

func (promiseSpawnable) spawnKind() string { return "promise" }

// FromPromise wraps a one-shot async computation as a Spawnable.
func FromPromise(fn PromiseFunc) Spawnable { return promiseSpawnable{fn: fn} }

// SendFunc delivers an event to the spawning interpreter, as if sent by
// the spawned callback actor.
type SendFunc func(event any)

// ReceiveFunc registers a handler invoked for every event the parent
// sends to this callback actor.
type ReceiveFunc func(handler func(event any))

// CallbackFunc receives send/receive registrars and optionally returns a
// disposer run on stop.
type CallbackFunc func(send SendFunc, receive ReceiveFunc) (dispose func())

type callbackSpawnable struct{ fn CallbackFunc }

func (callbackSpawnable) spawnKind() string { return "callback" }

// FromCallback wraps a callback-style worker as a Spawnable.
func FromCallback(fn CallbackFunc) Spawnable { return callbackSpawnable{fn: fn} }

// Observable is a minimal push-stream contract: Subscribe registers the
// three standard handlers and returns an unsubscribe func.
type Observable interface {
	Subscribe(onNext func(value any), onError func(err error), onComplete func()) (unsubscribe func())
}

type observableSpawnable struct{ obs Observable }

func (observableSpawnable) spawnKind() string { return "observable" }

// FromObservable wraps a push-stream producer as a Spawnable; each
// next-value is forwarded to the parent as an event, completion stops the
// actor.
func FromObservable(obs Observable) Spawnable { return observableSpawnable{obs: obs} }

type machineSpawnable struct {
	m    Machine
	opts []Option
}

func (machineSpawnable) spawnKind() string { return "machine" }

// FromMachine wraps a nested machine definition; spawning it instantiates
// a child Interpreter (see spawnMachine).
func FromMachine(m Machine, opts ...Option) Spawnable { return machineSpawnable{m: m, opts: opts} }

type actorSpawnable struct{ ref ActorRef }

func (actorSpawnable) spawnKind() string { return "actor" }

// FromActor adopts a pre-built ActorRef verbatim.
func FromActor(ref ActorRef) Spawnable { return actorSpawnable{ref: ref} }

// Observer bundles the three callbacks a subscriber registers against a
// running interpreter's snapshot stream.
type Observer struct {
	Next     func(Snapshot)
	Error    func(error)
	Complete func()
}

// Subscription is returned by Subscribe; Unsubscribe is idempotent.
type Subscription struct {
	unsubscribe func()
}

// Unsubscribe removes the observer's bindings. Safe to call more than
// once.
func (s Subscription) Unsubscribe() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// NewSubscription builds a Subscription from an unsubscribe callback.
// Exported so actor-ref implementations outside this package (see
// internal/actors) can satisfy ActorRef.Subscribe without access to
// Subscription's internals.
func NewSubscription(unsubscribe func()) Subscription {
	return Subscription{unsubscribe: unsubscribe}
}

// nullActor is returned by Spawn when called outside any service scope:
// its Send is a no-op and Subscribe yields an empty subscription.
type nullActor struct{ id string }

func (n nullActor) ID() string { return n.id }

func (nullActor) Send(any) {}

func (nullActor) Subscribe(Observer) Subscription { return Subscription{} }

func (n nullActor) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"id": n.id, "kind": "null"})
}
