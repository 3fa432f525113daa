package actors

import (
	"encoding/json"
	"sync"

	"github.com/comalice/hsi"
)

// base holds the listener bookkeeping shared by every adapter in this
// package: subscribe/unsubscribe, last-known snapshot, and the
// broadcast-on-update fan-out.
type base struct {
	id string

	mu        sync.Mutex
	snap      Snapshot
	observers map[int]hsi.Observer
	nextKey   int
}

func newBase(id string) *base {
	return &base{
		id:        id,
		observers: make(map[int]hsi.Observer),
		snap:      Snapshot{Status: StatusActive},
	}
}

func (b *base) ID() string { return b.id }

func (b *base) Subscribe(o hsi.Observer) hsi.Subscription {
	b.mu.Lock()
	key := b.nextKey
	b.nextKey++
	b.observers[key] = o
	snap := b.snap
	b.mu.Unlock()

	if o.Next != nil {
		o.Next(snap)
	}
	return hsi.NewSubscription(func() {
		b.mu.Lock()
		delete(b.observers, key)
		b.mu.Unlock()
	})
}

func (b *base) MarshalJSON() ([]byte, error) {
	b.mu.Lock()
	snap := b.snap
	b.mu.Unlock()
	errStr := ""
	if snap.Err != nil {
		errStr = snap.Err.Error()
	}
	return json.Marshal(map[string]any{
		"id":     b.id,
		"status": snap.Status.String(),
		"error":  errStr,
	})
}

func (b *base) snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap
}

func (b *base) listeners() []hsi.Observer {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]hsi.Observer, 0, len(b.observers))
	for _, o := range b.observers {
		out = append(out, o)
	}
	return out
}

// settle records a terminal snapshot and notifies every observer's
// Next, then Complete or Error as appropriate. Safe to call at most
// once per actor; later calls are ignored once already done.
func (b *base) settle(snap Snapshot) {
	b.mu.Lock()
	if b.snap.Done() {
		b.mu.Unlock()
		return
	}
	b.snap = snap
	obs := make([]hsi.Observer, 0, len(b.observers))
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
		if snap.Status == StatusError && o.Error != nil {
			o.Error(snap.Err)
		} else if snap.Status == StatusDone && o.Complete != nil {
			o.Complete()
		}
	}
}

// emit updates the last-known snapshot without marking the actor done,
// and notifies Next only (used by long-lived observable/callback actors
// that report intermediate values).
func (b *base) emit(snap Snapshot) {
	b.mu.Lock()
	b.snap = snap
	obs := make([]hsi.Observer, 0, len(b.observers))
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
