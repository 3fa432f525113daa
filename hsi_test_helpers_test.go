package hsi

import "sync"

// recordingActor is a minimal hsi.ActorRef that records every event sent
// to it, used to assert on parent-escalation behavior (done.invoke,
// platform errors) without spinning up a second real Interpreter.
type recordingActor struct {
	id string

	mu     sync.Mutex
	events []Event
}

func (r *recordingActor) ID() string { return r.id }

func (r *recordingActor) Send(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ToSCXMLEvent(event))
}

func (r *recordingActor) Subscribe(Observer) Subscription { return Subscription{} }

func (r *recordingActor) MarshalJSON() ([]byte, error) { return []byte(`{}`), nil }

func (r *recordingActor) received() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// fakeSnapshot is a minimal hsi.Snapshot used by the package's own tests
// so they don't have to depend on package machine (which imports hsi,
// and would make the dependency circular from inside this package).
type fakeSnapshot struct {
	value   any
	ctx     any
	ev      Event
	actions []Action
	changed bool
	done    bool
}

func (s fakeSnapshot) Value() any                      { return s.value }
func (s fakeSnapshot) Context() any                     { return s.ctx }
func (s fakeSnapshot) Event() Event                     { return s.ev }
func (s fakeSnapshot) Configuration() []StateDescriptor { return nil }
func (s fakeSnapshot) Actions() []Action                { return s.actions }
func (s fakeSnapshot) Changed() bool                    { return s.changed }
func (s fakeSnapshot) History() Snapshot                { return nil }
func (s fakeSnapshot) Done() bool                       { return s.done }

// fakeMachine lets tests script exactly what InitialState/Transition
// return without pulling in a real compiled Definition.
type fakeMachine struct {
	id         string
	initial    Snapshot
	transition func(state Snapshot, event Event, parent ActorRef) Snapshot
}

func (m *fakeMachine) ID() string { return m.id }

func (m *fakeMachine) InitialState(parent ActorRef) Snapshot {
	return m.initial
}

func (m *fakeMachine) Transition(state Snapshot, event Event, parent ActorRef) Snapshot {
	if m.transition == nil {
		return state
	}
	return m.transition(state, event, parent)
}

// fakeObservable is a test-controlled hsi.Observable: values are pushed
// explicitly via next/complete/fail rather than on a timer or channel.
type fakeObservable struct {
	onNext     func(value any)
	onError    func(err error)
	onComplete func()
}

func (f *fakeObservable) Subscribe(onNext func(value any), onError func(err error), onComplete func()) func() {
	f.onNext = onNext
	f.onError = onError
	f.onComplete = onComplete
	return func() {}
}

func (f *fakeObservable) next(v any) {
	if f.onNext != nil {
		f.onNext(v)
	}
}

func (f *fakeObservable) complete() {
	if f.onComplete != nil {
		f.onComplete()
	}
}
