package actors

import "time"

// TickerObservable emits a fixed payload on every tick of its interval.
// It implements hsi.Observable so it can be spawned directly via
// hsi.FromObservable, e.g. for heartbeat/timeout services.
type TickerObservable struct {
	eventType string
	data      any
	interval  time.Duration
}

// NewTickerObservable builds a ticker that emits {Type: eventType, Data:
// data} every interval until unsubscribed.
func NewTickerObservable(eventType string, data any, interval time.Duration) *TickerObservable {
	return &TickerObservable{eventType: eventType, data: data, interval: interval}
}

// Subscribe starts the ticker in its own goroutine and emits onNext with
// an eventFromMap-compatible payload on each tick.
func (t *TickerObservable) Subscribe(onNext func(value any), onError func(err error), onComplete func()) func() {
	ticker := time.NewTicker(t.interval)
	stop := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if onNext != nil {
					onNext(map[string]any{"type": t.eventType, "data": t.data})
				}
			case <-stop:
				if onComplete != nil {
					onComplete()
				}
				return
			}
		}
	}()

	var stopped bool
	return func() {
		if stopped {
			return
		}
		stopped = true
		close(stop)
	}
}

// ChannelObservable adapts a pre-existing channel of payloads into an
// hsi.Observable, for callers that already have an external event feed
// wired as a Go channel.
type ChannelObservable struct {
	ch <-chan any
}

// NewChannelObservable wraps ch. The channel should be closed by its
// producer to signal completion.
func NewChannelObservable(ch <-chan any) *ChannelObservable {
	return &ChannelObservable{ch: ch}
}

// Subscribe drains ch in its own goroutine until it closes or the
// returned unsubscribe func is called.
func (c *ChannelObservable) Subscribe(onNext func(value any), onError func(err error), onComplete func()) func() {
	stop := make(chan struct{})

	go func() {
		for {
			select {
			case v, ok := <-c.ch:
				if !ok {
					if onComplete != nil {
						onComplete()
					}
					return
				}
				if onNext != nil {
					onNext(v)
				}
			case <-stop:
				return
			}
		}
	}()

	var stopped bool
	return func() {
		if stopped {
			return
		}
		stopped = true
		close(stop)
	}
}
