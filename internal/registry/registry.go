// Package registry is the process-local directory of running
// interpreters, keyed by session id, used by sendTo/forward to resolve
// an id that isn't a direct child.
package registry

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Addressable is the minimal shape a registry entry needs: something
// that can receive a normalized event.
type Addressable interface {
	ID() string
	Send(event any)
}

var (
	mu      sync.RWMutex
	entries = make(map[string]Addressable)
	counter uint64
)

// NewSessionID mints a session id: a monotonic counter plus a random
// suffix, so ids sort roughly by creation order but still resist
// guessing across process restarts. Kept distinct from the externally
// visible actor id, which callers may supply themselves via WithID.
func NewSessionID() string {
	n := atomic.AddUint64(&counter, 1)
	return strconv.FormatUint(n, 10) + "-" + uuid.NewString()
}

// Register adds or replaces the entry for id.
func Register(id string, a Addressable) {
	mu.Lock()
	entries[id] = a
	mu.Unlock()
}

// Unregister removes id, if present.
func Unregister(id string) {
	mu.Lock()
	delete(entries, id)
	mu.Unlock()
}

// Lookup returns the entry for id, if any is currently registered.
func Lookup(id string) (Addressable, bool) {
	mu.RLock()
	a, ok := entries[id]
	mu.RUnlock()
	return a, ok
}
