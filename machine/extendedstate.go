// Package machine provides foundational data structures for the statechart engine.
// All implementations use only the Go standard library for zero external dependencies.
// Context provides thread-safe key-value storage backed by sync.Map.
//
//go:generate go test ./... -race
package machine

import "sync"

// Context is a thread-safe key-value store using sync.Map for concurrent access.
// Lock-free reads/writes with good performance characteristics for contended access.
// Snapshot/Restore iterate the map for serialization.
type Context struct {
	data sync.Map
}

// NewContext creates a new Context with an empty map.
func NewContext() *Context {
	return &Context{}
}

// Get retrieves a value by key. Safe for concurrent reads.
func (c *Context) Get(key string) (any, bool) {
	return c.data.Load(key)
}

// Set stores a value by key. Exclusive write lock.
func (c *Context) Set(key string, val any) {
	c.data.Store(key, val)
}

// Delete removes a key-value pair. Exclusive write lock.
func (c *Context) Delete(key string) {
	c.data.Delete(key)
}

// Snapshot returns a serializable copy of the context data for persistence.
func (c *Context) Snapshot() map[string]any {
	snap := map[string]any{}
	c.data.Range(func(k, v any) bool {
		snap[k.(string)] = v
		return true
	})
	return snap
}

// Has reports whether key is present, without paying for the value copy
// a Get call returns alongside its ok flag — the common case in a guard
// expression that only needs to test presence.
func (c *Context) Has(key string) bool {
	_, ok := c.data.Load(key)
	return ok
}

// Keys returns every key currently stored, in no particular order.
// Intended for diagnostics and expression guards that need to enumerate
// the extended state rather than test one key at a time.
func (c *Context) Keys() []string {
	var keys []string
	c.data.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	return keys
}

// Restore replaces the context data from a snapshot map.
func (c *Context) Restore(snap map[string]any) {
	c.data.Range(func(k, v any) bool {
		c.data.Delete(k)
		return true
	})
	for k, v := range snap {
		c.data.Store(k, v)
	}
}
