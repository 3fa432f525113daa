package production

import "github.com/comalice/hsi"

// contextSnapshotter is implemented by the extended-state types the
// machine collaborator hands back through Snapshot.Context(); Record
// uses it to flatten that opaque value into something serializable.
type contextSnapshotter interface {
	Snapshot() map[string]any
}

// Record is the serializable projection of an hsi.Snapshot a Persister
// writes and reads back, keyed by the owning interpreter's id.
type Record struct {
	InterpreterID string         `json:"interpreterID" yaml:"interpreterID"`
	Value         any            `json:"value" yaml:"value"`
	Context       map[string]any `json:"context,omitempty" yaml:"context,omitempty"`
	Done          bool           `json:"done" yaml:"done"`
}

// NewRecord flattens snap into a Record for interpreterID.
func NewRecord(interpreterID string, snap hsi.Snapshot) Record {
	r := Record{InterpreterID: interpreterID, Value: snap.Value(), Done: snap.Done()}
	if cs, ok := snap.Context().(contextSnapshotter); ok {
		r.Context = cs.Snapshot()
	}
	return r
}
