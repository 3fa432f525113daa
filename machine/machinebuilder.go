// Package machine includes builder helpers for MachineConfig.
package machine

// MachineBuilder builds hierarchical MachineConfig fluently. Every state
// it creates, at any nesting depth, lands in the flat states map by its
// short id — Compile and FindState both expect that flattening — while
// paths additionally remembers each short id's full dotted path so
// Transition targets can be written either way.
type MachineBuilder struct {
	config    *MachineConfig
	states    map[string]*StateConfig
	paths     map[string]string // short id -> full dotted path
	stack     []*StateConfig    // for nesting Up()
	pathStack []string          // dotted path of each stack entry, kept in lockstep
}

// NewMachineBuilder creates a new MachineBuilder.
func NewMachineBuilder(id, initial string) *MachineBuilder {
	return &MachineBuilder{
		config: &MachineConfig{ID: id, Initial: initial},
		states: make(map[string]*StateConfig),
		paths:  make(map[string]string),
	}
}

func (b *MachineBuilder) currentPath() string {
	if len(b.pathStack) == 0 {
		return ""
	}
	return b.pathStack[len(b.pathStack)-1]
}

func (b *MachineBuilder) record(id string) {
	b.paths[id] = joinPath(b.currentPath(), id)
}

// resolveTarget resolves target against the builder's recorded short-id
// paths: an already-dotted or unrecognized target passes through
// unchanged, so hand-written full paths keep working.
func (b *MachineBuilder) resolveTarget(target string) string {
	if p, ok := b.paths[target]; ok {
		return p
	}
	return target
}

// Compound starts a compound state (push to stack).
func (b *MachineBuilder) Compound(id string) *StateBuilder {
	s := NewStateConfig(id, Compound)
	b.states[id] = s
	b.record(id)
	b.stack = append(b.stack, s)
	b.pathStack = append(b.pathStack, b.paths[id])
	return &StateBuilder{state: s, mb: b}
}

// Parallel starts a parallel region.
func (b *MachineBuilder) Parallel(id string) *StateBuilder {
	s := NewStateConfig(id, Parallel)
	b.states[id] = s
	b.record(id)
	b.stack = append(b.stack, s)
	b.pathStack = append(b.pathStack, b.paths[id])
	return &StateBuilder{state: s, mb: b}
}

// Atomic starts an atomic state.
func (b *MachineBuilder) Atomic(id string) *StateBuilder {
	s := NewStateConfig(id, Atomic)
	b.states[id] = s
	b.record(id)
	if len(b.stack) > 0 {
		b.stack[len(b.stack)-1].AddChild(s)
	}
	return &StateBuilder{state: s, mb: b}
}

// History starts a history state (shallow/deep).
func (b *MachineBuilder) History(id string, shallow bool) *StateBuilder {
	typ := ShallowHistory
	if !shallow {
		typ = DeepHistory
	}
	s := NewStateConfig(id, typ)
	b.states[id] = s
	b.record(id)
	if len(b.stack) > 0 {
		b.stack[len(b.stack)-1].AddChild(s)
	}
	return &StateBuilder{state: s, mb: b}
}

// State sugar for Atomic.
func (b *MachineBuilder) State(id string) *StateBuilder {
	return b.Atomic(id)
}

// StateBuilder for fluent transitions/nesting.
type StateBuilder struct {
	state *StateConfig
	mb    *MachineBuilder
}

// Transition adds a transition. target may be a short id recorded
// earlier in the build (resolved to its full dotted path) or an
// already-qualified path; either way Target ends up fully resolved
// before it ever reaches MachineConfig.Validate/FindState.
func (sb *StateBuilder) Transition(event, target string, opts ...TransitionConfig) *StateBuilder {
	sb.state.Transition(event, sb.mb.resolveTarget(target), opts...)
	return sb
}

// Entry appends to the current state's entry action list.
func (sb *StateBuilder) Entry(refs ...ActionRef) *StateBuilder {
	for _, r := range refs {
		sb.state.AddEntry(r)
	}
	return sb
}

// Exit appends to the current state's exit action list.
func (sb *StateBuilder) Exit(refs ...ActionRef) *StateBuilder {
	for _, r := range refs {
		sb.state.AddExit(r)
	}
	return sb
}

// Compound nests a compound child and descends the builder's stack into
// it, so a subsequent Up() returns to sb rather than to the root.
func (sb *StateBuilder) Compound(id string) *StateBuilder {
	child := sb.state.State(id, Compound)
	sb.mb.states[child.ID] = child
	sb.mb.record(id)
	sb.mb.stack = append(sb.mb.stack, child)
	sb.mb.pathStack = append(sb.mb.pathStack, joinPath(sb.mb.currentPath(), id))
	return &StateBuilder{state: child, mb: sb.mb}
}

// Parallel nests a parallel child, same stack bookkeeping as Compound.
func (sb *StateBuilder) Parallel(id string) *StateBuilder {
	child := sb.state.State(id, Parallel)
	sb.mb.states[child.ID] = child
	sb.mb.record(id)
	sb.mb.stack = append(sb.mb.stack, child)
	sb.mb.pathStack = append(sb.mb.pathStack, joinPath(sb.mb.currentPath(), id))
	return &StateBuilder{state: child, mb: sb.mb}
}

// Atomic/State nests an atomic child; atomic states never push the
// stack since nothing can nest further beneath them.
func (sb *StateBuilder) Atomic(id string) *StateBuilder {
	child := sb.state.State(id)
	sb.mb.states[child.ID] = child
	sb.mb.paths[id] = joinPath(sb.mb.currentPath(), id)
	return &StateBuilder{state: child, mb: sb.mb}
}

// History nests a history child.
func (sb *StateBuilder) History(id string, shallow bool) *StateBuilder {
	typ := ShallowHistory
	if !shallow {
		typ = DeepHistory
	}
	child := sb.state.State(id, typ)
	sb.mb.states[child.ID] = child
	sb.mb.paths[id] = joinPath(sb.mb.currentPath(), id)
	return &StateBuilder{state: child, mb: sb.mb}
}

// Up pops the stack (state and path together) back to the parent.
func (sb *StateBuilder) Up() *StateBuilder {
	if len(sb.mb.stack) > 1 {
		sb.mb.stack = sb.mb.stack[:len(sb.mb.stack)-1]
		sb.mb.pathStack = sb.mb.pathStack[:len(sb.mb.pathStack)-1]
		parent := sb.mb.stack[len(sb.mb.stack)-1]
		return &StateBuilder{state: parent, mb: sb.mb}
	}
	return sb
}

// WithInitial sets initial for current (compound/parallel).
func (sb *StateBuilder) WithInitial(initial string) *StateBuilder {
	sb.state.WithInitial(initial)
	return sb
}

// Build finalizes config (flattens, validates).
func (b *MachineBuilder) Build() MachineConfig {
	if len(b.states) > 0 {
		b.config.States = b.states
	} else {
		b.config.States = make(map[string]*StateConfig)
	}
	if err := b.config.Validate(); err != nil {
		panic(err) // Or return error
	}
	return *b.config
}
