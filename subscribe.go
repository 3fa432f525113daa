package hsi

// Subscribe registers observer against ref and returns the resulting
// Subscription, exactly like calling ref.Subscribe directly. It exists
// as a free function so calling code can treat "subscribe to a machine"
// and "subscribe to a promise/callback/observable child" the same way
// without caring which kind of ActorRef it holds.
func Subscribe(ref ActorRef, observer Observer) Subscription {
	return ref.Subscribe(observer)
}

// OnSnapshot is a convenience wrapper around Subscribe for the common
// case of only wanting the Next callback.
func OnSnapshot(ref ActorRef, fn func(Snapshot)) Subscription {
	return ref.Subscribe(Observer{Next: fn})
}

// OnDone subscribes only for the terminal Complete/Error callbacks,
// ignoring intermediate snapshots.
func OnDone(ref ActorRef, fn func(err error)) Subscription {
	return ref.Subscribe(Observer{
		Complete: func() { fn(nil) },
		Error:    fn,
	})
}
