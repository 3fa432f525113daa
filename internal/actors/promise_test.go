package actors

import (
	"errors"
	"testing"
	"time"

	"github.com/comalice/hsi"
)

func TestPromiseActor_Resolves(t *testing.T) {
	done := make(chan struct{})
	var gotValue any
	a := NewPromiseActor("p1", func() (any, error) {
		return 42, nil
	}, func(value any, err error) {
		gotValue = value
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("promise never settled")
	}
	if gotValue != 42 {
		t.Errorf("gotValue = %v, want 42", gotValue)
	}
	snap := a.snapshot()
	if snap.Status != StatusDone || snap.Output != 42 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestPromiseActor_Rejects(t *testing.T) {
	wantErr := errors.New("boom")
	done := make(chan struct{})
	var gotErr error
	a := NewPromiseActor("p2", func() (any, error) {
		return nil, wantErr
	}, func(_ any, err error) {
		gotErr = err
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("promise never settled")
	}
	if gotErr != wantErr {
		t.Errorf("gotErr = %v, want %v", gotErr, wantErr)
	}
	if a.snapshot().Status != StatusError {
		t.Errorf("status = %v, want error", a.snapshot().Status)
	}
}

func TestPromiseActor_SubscribeReceivesFinalSnapshot(t *testing.T) {
	settled := make(chan struct{})
	a := NewPromiseActor("p3", func() (any, error) {
		return "ok", nil
	}, func(any, error) {
		close(settled)
	})
	<-settled

	var got Snapshot
	next := make(chan struct{}, 1)
	sub := a.Subscribe(hsi.Observer{
		Next: func(s hsi.Snapshot) {
			got = s.(Snapshot)
			select {
			case next <- struct{}{}:
			default:
			}
		},
	})
	defer sub.Unsubscribe()

	select {
	case <-next:
	case <-time.After(time.Second):
		t.Fatal("subscribe did not deliver snapshot synchronously")
	}
	if got.Status != StatusDone || got.Output != "ok" {
		t.Errorf("got = %+v", got)
	}
}
