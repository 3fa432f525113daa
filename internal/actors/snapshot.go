// Package actors implements the non-machine ActorRef adapters: promise,
// callback, and observable actors. Machine-backed actors are nested
// Interpreters and need no adapter here.
package actors

import "github.com/comalice/hsi"

// Status is the lifecycle phase of a non-machine actor.
type Status int

const (
	StatusActive Status = iota
	StatusDone
	StatusError
)

// String implements fmt.Stringer for readable logs.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is the generic state record promise, callback, and observable
// actors report through ActorRef.Subscribe, so every actor — machine or
// not — can be observed through the same hsi.Snapshot contract.
type Snapshot struct {
	Status Status
	Output any
	Err    error
}

func (s Snapshot) Value() any                      { return s.Status }
func (s Snapshot) Context() any                    { return s.Output }
func (s Snapshot) Event() hsi.Event                { return hsi.Event{} }
func (s Snapshot) Configuration() []hsi.StateDescriptor { return nil }
func (s Snapshot) Actions() []hsi.Action           { return nil }
func (s Snapshot) Changed() bool                   { return true }
func (s Snapshot) History() hsi.Snapshot           { return nil }
func (s Snapshot) Done() bool                       { return s.Status != StatusActive }
