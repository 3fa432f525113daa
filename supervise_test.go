package hsi

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/comalice/hsi/internal/registry"
	"github.com/comalice/hsi/internal/svcscope"
)

var errBoom = errors.New("boom")

func TestSpawn_FromPromiseDeliversDoneInvokeEvent(t *testing.T) {
	resultCh := make(chan string, 1)
	m := &fakeMachine{
		id:      "promise-parent",
		initial: fakeSnapshot{value: "idle", changed: true},
		transition: func(state Snapshot, event Event, parent ActorRef) Snapshot {
			if event.Name == "done.invoke.worker" {
				resultCh <- event.Data.(string)
				return fakeSnapshot{value: "got-result", changed: true}
			}
			return state
		},
	}
	interp := Interpret(m)
	_, err := interp.Start()
	require.NoError(t, err)

	ref, err := interp.spawn("worker", FromPromise(func() (any, error) {
		return "result-42", nil
	}))
	require.NoError(t, err)
	require.Equal(t, "worker", ref.ID())

	select {
	case got := <-resultCh:
		require.Equal(t, "result-42", got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for promise to settle")
	}

	require.Eventually(t, func() bool {
		_, ok := registry.Lookup(childAddress(interp.id, "worker"))
		return !ok
	}, time.Second, time.Millisecond)

	interp.Stop()
}

func TestSpawn_FromPromiseFailureRaisesErrorEvent(t *testing.T) {
	errCh := make(chan error, 1)
	m := &fakeMachine{
		id:      "promise-fail-parent",
		initial: fakeSnapshot{value: "idle", changed: true},
		transition: func(state Snapshot, event Event, parent ActorRef) Snapshot {
			if event.Name == "error.worker" {
				errCh <- event.Data.(error)
			}
			return state
		},
	}
	interp := Interpret(m)
	_, err := interp.Start()
	require.NoError(t, err)

	_, err = interp.spawn("worker", FromPromise(func() (any, error) {
		return nil, errBoom
	}))
	require.NoError(t, err)

	select {
	case got := <-errCh:
		require.ErrorIs(t, got, errBoom)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for promise failure event")
	}

	interp.Stop()
}

func TestSpawn_FromCallbackRoutesEventsBothWays(t *testing.T) {
	var receivedByChild []string
	m := &fakeMachine{
		id:      "callback-parent",
		initial: fakeSnapshot{value: "idle", changed: true},
		transition: func(state Snapshot, event Event, parent ActorRef) Snapshot {
			if event.Name == "fromChild" {
				return fakeSnapshot{value: "heard-" + event.Data.(string), changed: true}
			}
			return state
		},
	}
	interp := Interpret(m)
	_, err := interp.Start()
	require.NoError(t, err)

	ref, err := interp.spawn("worker", FromCallback(func(send SendFunc, receive ReceiveFunc) func() {
		receive(func(event any) {
			ev := ToSCXMLEvent(event)
			receivedByChild = append(receivedByChild, ev.Name)
			send(map[string]any{"type": "fromChild", "data": ev.Name})
		})
		return nil
	}))
	require.NoError(t, err)

	ref.Send("ping")

	require.Equal(t, []string{"ping"}, receivedByChild)
	require.Equal(t, "heard-ping", interp.Snapshot().Value())

	interp.Stop()
}

func TestSpawn_FromObservableForwardsEachValueAsEvent(t *testing.T) {
	var gotValues []string
	m := &fakeMachine{
		id:      "observable-parent",
		initial: fakeSnapshot{value: "idle", changed: true},
		transition: func(state Snapshot, event Event, parent ActorRef) Snapshot {
			gotValues = append(gotValues, event.Name)
			return state
		},
	}
	interp := Interpret(m)
	_, err := interp.Start()
	require.NoError(t, err)

	obs := &fakeObservable{}
	_, err = interp.spawn("ticker", FromObservable(obs))
	require.NoError(t, err)

	obs.next(map[string]any{"type": "tick"})
	obs.next(map[string]any{"type": "tick"})
	obs.complete()

	require.Equal(t, []string{"tick", "tick"}, gotValues)

	_, ok := registry.Lookup(childAddress(interp.id, "ticker"))
	require.False(t, ok)

	interp.Stop()
}

func TestSpawn_FromMachineNestsAChildInterpreterAndCascadesStop(t *testing.T) {
	childM := &fakeMachine{id: "ignored", initial: fakeSnapshot{value: "child-idle", changed: true}}
	parentM := &fakeMachine{id: "nest-parent", initial: fakeSnapshot{value: "idle", changed: true}}
	interp := Interpret(parentM)
	_, err := interp.Start()
	require.NoError(t, err)

	ref, err := interp.spawn("nested", FromMachine(childM))
	require.NoError(t, err)
	require.Equal(t, "nested", ref.ID())

	child, ok := ref.(*Interpreter)
	require.True(t, ok)
	require.Equal(t, "child-idle", child.Snapshot().Value())
	require.Equal(t, StatusRunning, child.Status())

	interp.Stop()
	require.Equal(t, StatusStopped, child.Status())
}

func TestSpawn_FromActorAdoptsRefVerbatim(t *testing.T) {
	m := &fakeMachine{id: "actor-parent", initial: fakeSnapshot{value: "idle", changed: true}}
	interp := Interpret(m)
	_, err := interp.Start()
	require.NoError(t, err)

	adopted := &recordingActor{id: "adopted"}
	ref, err := interp.spawn("adopted", FromActor(adopted))
	require.NoError(t, err)
	require.Same(t, adopted, ref)

	interp.Stop()
}

func TestStopChild_TearsDownExplicitlyStoppedChild(t *testing.T) {
	m := &fakeMachine{id: "stopchild-parent", initial: fakeSnapshot{value: "idle", changed: true}}
	interp := Interpret(m)
	_, err := interp.Start()
	require.NoError(t, err)

	childM := &fakeMachine{id: "ignored", initial: fakeSnapshot{value: "child-idle", changed: true}}
	_, err = interp.spawn("worker", FromMachine(childM))
	require.NoError(t, err)

	interp.runAction(Action{Type: ActionStop, ID: "worker"}, interp.Snapshot(), Event{})

	_, ok := registry.Lookup(childAddress(interp.id, "worker"))
	require.False(t, ok)

	interp.Stop()
}

func TestSendTo_DeliversToChildByID(t *testing.T) {
	var childGot string
	m := &fakeMachine{id: "sendto-parent", initial: fakeSnapshot{value: "idle", changed: true}}
	interp := Interpret(m)
	_, err := interp.Start()
	require.NoError(t, err)

	_, err = interp.spawn("worker", FromCallback(func(send SendFunc, receive ReceiveFunc) func() {
		receive(func(event any) { childGot = ToSCXMLEvent(event).Name })
		return nil
	}))
	require.NoError(t, err)

	interp.sendTo("worker", Event{Name: "hello"})
	require.Equal(t, "hello", childGot)

	interp.Stop()
}

func TestSendTo_WithEmptyTargetSelfSends(t *testing.T) {
	m := &fakeMachine{
		id:      "sendto-self",
		initial: fakeSnapshot{value: "idle", changed: true},
		transition: func(state Snapshot, event Event, parent ActorRef) Snapshot {
			if event.Name == "self-ping" {
				return fakeSnapshot{value: "self-ponged", changed: true}
			}
			return state
		},
	}
	interp := Interpret(m)
	_, err := interp.Start()
	require.NoError(t, err)

	interp.sendTo("", Event{Name: "self-ping"})
	require.Equal(t, "self-ponged", interp.Snapshot().Value())

	interp.Stop()
}

func TestForward_ReturnsErrForwardToMissingForUnknownTarget(t *testing.T) {
	m := &fakeMachine{id: "forward-parent", initial: fakeSnapshot{value: "idle"}}
	interp := Interpret(m)
	_, err := interp.Start()
	require.NoError(t, err)

	err = interp.forward("nobody", Event{Name: "x"})
	require.ErrorIs(t, err, ErrForwardToMissing)

	interp.Stop()
}

func TestForward_ReturnsErrForwardToMissingForEmptyTarget(t *testing.T) {
	m := &fakeMachine{id: "forward-parent-2", initial: fakeSnapshot{value: "idle"}}
	interp := Interpret(m)
	_, err := interp.Start()
	require.NoError(t, err)

	err = interp.forward("", Event{Name: "x"})
	require.ErrorIs(t, err, ErrForwardToMissing)

	interp.Stop()
}

func TestSpawn_PackageLevelUsesSvcscopeCurrentInterpreter(t *testing.T) {
	m := &fakeMachine{id: "pkg-spawn-parent", initial: fakeSnapshot{value: "idle", changed: true}}
	interp := Interpret(m)
	_, err := interp.Start()
	require.NoError(t, err)

	svcscope.Push(interp)
	ref := Spawn("worker", FromActor(&recordingActor{id: "worker"}))
	svcscope.Pop()

	require.Equal(t, "worker", ref.ID())

	interp.Stop()
}

func TestSpawn_PackageLevelOutsideScopeReturnsNullActor(t *testing.T) {
	ref := Spawn("ghost", FromActor(&recordingActor{id: "ghost"}))
	require.Equal(t, "ghost", ref.ID())
	ref.Send("noop")
}

