// Package clock abstracts scheduled-callback creation so delayed sends
// can be driven by wall-clock time in production and by a fake,
// manually-advanced clock in tests.
package clock

import "time"

// Timer is the handle returned by Clock.AfterFunc; Stop cancels the
// pending callback if it hasn't fired yet.
type Timer interface {
	Stop() bool
}

// Clock creates timers. Real is backed by time.AfterFunc; Fake lets
// tests control firing deterministically.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

type realClock struct{}

// Real is the production Clock, backed directly by the runtime's timer
// wheel.
var Real Clock = realClock{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (realClock) Now() time.Time { return time.Now() }
