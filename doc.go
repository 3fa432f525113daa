// Package hsi implements the runtime interpreter for a hierarchical
// state-chart ("statechart") formalism and its embedded actor hierarchy.
//
// An Interpreter drives a static machine definition (the Machine
// collaborator) through event-driven transitions, executes the action
// lists the machine attaches to each snapshot, spawns and supervises
// child actors, and fans the resulting state stream out to subscribers.
//
// The machine itself — the (state, event) -> state compiler — is not part
// of this package; see package machine for a concrete implementation.
package hsi
