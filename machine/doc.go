// Package machine provides the foundational, zero-dependency data structures
// for the statechart engine.
//
// Apart from the root hsi package, this package imports only the Go
// standard library. The `internal/*` packages are not all standard-library
// only: internal/registry uses github.com/google/uuid.
//
// Core invariants:
// - Immutability where possible (Event)
// - Thread-safe context (sync.Map)
// - Zero-allocation hot paths
//
// See ../../docs/ARCHITECTURE.md for complete design rationale.
package machine
