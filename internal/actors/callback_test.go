package actors

import (
	"testing"

	"github.com/comalice/hsi"
)

func TestCallbackActor_SendInvokesRegisteredHandler(t *testing.T) {
	var received []any
	a := NewCallbackActor("c1", func(send hsi.SendFunc, receive hsi.ReceiveFunc) func() {
		receive(func(event any) {
			received = append(received, event)
		})
		return nil
	}, nil)

	a.Send("ping")
	a.Send("pong")

	if len(received) != 2 || received[0] != "ping" || received[1] != "pong" {
		t.Errorf("received = %v", received)
	}
}

func TestCallbackActor_ForwardsToParent(t *testing.T) {
	var forwarded hsi.Event
	a := NewCallbackActor("worker-1", func(send hsi.SendFunc, receive hsi.ReceiveFunc) func() {
		send("tick")
		return nil
	}, func(e hsi.Event) {
		forwarded = e
	})
	_ = a

	if forwarded.Name != "tick" {
		t.Errorf("forwarded.Name = %q, want tick", forwarded.Name)
	}
	if forwarded.Origin != "worker-1" {
		t.Errorf("forwarded.Origin = %q, want worker-1", forwarded.Origin)
	}
}

func TestCallbackActor_StopRunsDisposer(t *testing.T) {
	disposed := false
	a := NewCallbackActor("c2", func(send hsi.SendFunc, receive hsi.ReceiveFunc) func() {
		return func() { disposed = true }
	}, nil)

	a.Stop()

	if !disposed {
		t.Error("disposer was not called")
	}
	if a.snapshot().Status != StatusDone {
		t.Errorf("status = %v, want done", a.snapshot().Status)
	}
}
