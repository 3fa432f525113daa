package hsi

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/comalice/hsi/internal/clock"
)

func TestRunAction_ImplementationMapTakesPriorityOverExecField(t *testing.T) {
	m := &fakeMachine{id: "exec-1", initial: fakeSnapshot{value: "idle"}}
	var execRan, implRan bool
	interp := Interpret(m, WithActions(ActionImplementations{
		"greet": func(ctx any, ev Event, meta ActionMeta) error { implRan = true; return nil },
	}))
	_, err := interp.Start()
	require.NoError(t, err)

	a := Action{Type: "greet", Exec: func(ctx any, ev Event, meta ActionMeta) error {
		execRan = true
		return nil
	}}
	interp.runAction(a, interp.Snapshot(), Event{Name: "go"})

	require.True(t, execRan)
	require.False(t, implRan)
	interp.Stop()
}

func TestRunAction_ImplementationMapRunsWhenNoExecFieldSet(t *testing.T) {
	m := &fakeMachine{id: "exec-2", initial: fakeSnapshot{value: "idle"}}
	var gotEvent string
	interp := Interpret(m, WithActions(ActionImplementations{
		"greet": func(ctx any, ev Event, meta ActionMeta) error { gotEvent = ev.Name; return nil },
	}))
	_, err := interp.Start()
	require.NoError(t, err)

	interp.runAction(Action{Type: "greet"}, interp.Snapshot(), Event{Name: "hello"})

	require.Equal(t, "hello", gotEvent)
	interp.Stop()
}

func TestRunAction_PanicIsRecoveredAndEscalatedToParent(t *testing.T) {
	m := &fakeMachine{id: "panic-1", initial: fakeSnapshot{value: "idle"}}
	parent := &recordingActor{id: "parent-panic"}
	interp := Interpret(m, WithParent(parent))
	_, err := interp.Start()
	require.NoError(t, err)

	a := Action{Type: "boom", Exec: func(ctx any, ev Event, meta ActionMeta) error {
		panic("kaboom")
	}}
	interp.runAction(a, interp.Snapshot(), Event{})

	events := parent.received()
	require.Len(t, events, 1)
	require.Equal(t, PlatformErrorToken, events[0].Name)
	actionErr, ok := events[0].Data.(*ActionError)
	require.True(t, ok)
	require.Contains(t, actionErr.Error(), "kaboom")
	interp.Stop()
}

func TestRunAction_ReturnedErrorEscalatesToParentWhenNoListeners(t *testing.T) {
	m := &fakeMachine{id: "err-1", initial: fakeSnapshot{value: "idle"}}
	parent := &recordingActor{id: "parent-err"}
	interp := Interpret(m, WithParent(parent))
	_, err := interp.Start()
	require.NoError(t, err)

	wantErr := errors.New("boom")
	a := Action{Type: "boom", Exec: func(ctx any, ev Event, meta ActionMeta) error {
		return wantErr
	}}
	interp.runAction(a, interp.Snapshot(), Event{})

	events := parent.received()
	require.Len(t, events, 1)
	actionErr, ok := events[0].Data.(*ActionError)
	require.True(t, ok)
	require.ErrorIs(t, actionErr, wantErr)
	interp.Stop()
}

func TestRunAction_ErrorListenerIsPreferredOverParentEscalation(t *testing.T) {
	m := &fakeMachine{id: "err-2", initial: fakeSnapshot{value: "idle"}}
	parent := &recordingActor{id: "parent-err-2"}
	interp := Interpret(m, WithParent(parent))
	_, err := interp.Start()
	require.NoError(t, err)

	var caught error
	interp.OnError(func(e error) { caught = e })

	interp.runAction(Action{Type: "boom", Exec: func(ctx any, ev Event, meta ActionMeta) error {
		return errors.New("listener-caught")
	}}, interp.Snapshot(), Event{})

	require.Error(t, caught)
	require.Empty(t, parent.received())
	interp.Stop()
}

func TestExecSend_WithNoTargetSelfSendsOnNextMicrostep(t *testing.T) {
	m := &fakeMachine{
		id:      "selfsend-1",
		initial: fakeSnapshot{value: "idle", changed: true},
		transition: func(state Snapshot, event Event, parent ActorRef) Snapshot {
			if event.Name == "ping" {
				return fakeSnapshot{value: "ponged", changed: true}
			}
			return state
		},
	}
	interp := Interpret(m)
	_, err := interp.Start()
	require.NoError(t, err)

	interp.runAction(Action{Type: ActionSend, Params: map[string]any{"event": "ping"}}, interp.Snapshot(), Event{})

	require.Equal(t, "ponged", interp.Snapshot().Value())
	interp.Stop()
}

func TestExecSend_DelayedSendFiresOnlyAfterClockAdvances(t *testing.T) {
	var fired bool
	m := &fakeMachine{
		id:      "delay-1",
		initial: fakeSnapshot{value: "idle", changed: true},
		transition: func(state Snapshot, event Event, parent ActorRef) Snapshot {
			if event.Name == "tick" {
				fired = true
				return fakeSnapshot{value: "ticked", changed: true}
			}
			return state
		},
	}
	fc := clock.NewFake(time.Unix(0, 0))
	interp := Interpret(m, WithClock(fc))
	_, err := interp.Start()
	require.NoError(t, err)

	interp.runAction(Action{
		Type:   ActionSend,
		ID:     "timer-1",
		Params: map[string]any{"event": "tick", "delay": 50 * time.Millisecond},
	}, interp.Snapshot(), Event{})

	require.False(t, fired)
	require.Equal(t, "idle", interp.Snapshot().Value())

	fc.Advance(50 * time.Millisecond)

	require.True(t, fired)
	require.Equal(t, "ticked", interp.Snapshot().Value())
	interp.Stop()
}

func TestExecCancel_StopsAPendingDelayedSend(t *testing.T) {
	var fired bool
	m := &fakeMachine{
		id:      "cancel-1",
		initial: fakeSnapshot{value: "idle", changed: true},
		transition: func(state Snapshot, event Event, parent ActorRef) Snapshot {
			fired = true
			return state
		},
	}
	fc := clock.NewFake(time.Unix(0, 0))
	interp := Interpret(m, WithClock(fc))
	_, err := interp.Start()
	require.NoError(t, err)

	interp.runAction(Action{
		Type:   ActionSend,
		ID:     "timer-2",
		Params: map[string]any{"event": "tick", "delay": 50 * time.Millisecond},
	}, interp.Snapshot(), Event{})

	interp.runAction(Action{Type: ActionCancel, ID: "timer-2"}, interp.Snapshot(), Event{})

	fc.Advance(time.Second)
	require.False(t, fired)
	interp.Stop()
}

func TestRunAction_ReturnedErrorPanicsWhenNoListenerAndNoParent(t *testing.T) {
	m := &fakeMachine{id: "err-3", initial: fakeSnapshot{value: "idle"}}
	interp := Interpret(m)
	_, err := interp.Start()
	require.NoError(t, err)

	wantErr := errors.New("unobserved")
	a := Action{Type: "boom", Exec: func(ctx any, ev Event, meta ActionMeta) error {
		return wantErr
	}}

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		interp.runAction(a, interp.Snapshot(), Event{})
	}()

	require.NotNil(t, recovered, "handleActionError must rethrow rather than silently log when nothing else can observe the error")
	actionErr, ok := recovered.(*ActionError)
	require.True(t, ok)
	require.ErrorIs(t, actionErr, wantErr)
	require.Same(t, actionErr, interp.lastErr)
	interp.Stop()
}

func TestExecStart_MissingServiceEscalatesActionError(t *testing.T) {
	m := &fakeMachine{id: "svc-1", initial: fakeSnapshot{value: "idle"}}
	parent := &recordingActor{id: "parent-svc"}
	interp := Interpret(m, WithParent(parent))
	_, err := interp.Start()
	require.NoError(t, err)

	interp.runAction(Action{Type: ActionStart, ID: "worker", Params: map[string]any{"src": "missing"}}, interp.Snapshot(), Event{})

	events := parent.received()
	require.Len(t, events, 1)
	require.Equal(t, PlatformErrorToken, events[0].Name)
	interp.Stop()
}
