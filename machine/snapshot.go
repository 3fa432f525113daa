package machine

import "github.com/comalice/hsi"

// Snapshot is this package's implementation of hsi.Snapshot: the
// immutable record a Definition produces on InitialState/Transition.
// Value is the sorted set of currently active leaf paths; Context is the
// extended state after any assign actions from this step have applied.
type Snapshot struct {
	leaves    []string
	ctx       *Context
	event     hsi.Event
	config    []hsi.StateDescriptor
	actions   []hsi.Action
	changed   bool
	history   *Snapshot
	histTable historyTable
}

func (s Snapshot) Value() any                          { return append([]string(nil), s.leaves...) }
func (s Snapshot) Context() any                         { return s.ctx }
func (s Snapshot) Event() hsi.Event                     { return s.event }
func (s Snapshot) Configuration() []hsi.StateDescriptor { return s.config }
func (s Snapshot) Actions() []hsi.Action                { return s.actions }
func (s Snapshot) Changed() bool                        { return s.changed }

func (s Snapshot) History() hsi.Snapshot {
	if s.history == nil {
		return nil
	}
	return *s.history
}

// Done reports whether every active leaf is a final state.
func (s Snapshot) Done() bool {
	if len(s.config) == 0 {
		return false
	}
	for _, d := range s.config {
		if !d.IsFinal() {
			return false
		}
	}
	return true
}
