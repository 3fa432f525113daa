package machine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/comalice/hsi"
)

// Definition is the compiled, pure (state, event) -> state collaborator
// a Compile call produces from a MachineConfig. It implements
// hsi.Machine and hsi.RestorableMachine: InitialState and Transition
// never mutate the Definition itself, never schedule timers, and never
// spawn actors — any of that is left to the hsi.Action records they
// attach to the Snapshot they return.
type Definition struct {
	config        MachineConfig
	id            string
	stateCache    map[string]*StateConfig
	ancestorCache map[string][]string
	handledEvents map[string]bool
	guardEval     GuardEvaluator
	actions       map[string]func(*Context, Event)
}

// Option configures a Definition at Compile time.
type Option func(*Definition)

// WithGuardEvaluator overrides the default (func-only) guard evaluator,
// e.g. with ExpressionGuardEvaluator for string-expression guards.
func WithGuardEvaluator(g GuardEvaluator) Option {
	return func(d *Definition) { d.guardEval = g }
}

// WithAction registers a named action implementation resolvable from a
// StateConfig/TransitionConfig ActionRef given as a plain string id.
func WithAction(name string, fn func(ctx *Context, event Event)) Option {
	return func(d *Definition) {
		if d.actions == nil {
			d.actions = map[string]func(*Context, Event){}
		}
		d.actions[name] = fn
	}
}

// Compile validates config and precomputes the path caches Transition
// needs to run without re-walking the state tree on every event.
func Compile(config MachineConfig, opts ...Option) (*Definition, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("machine: invalid config: %w", err)
	}
	if config.Version == "" {
		config.Version = ComputeVersion(&config)
	}

	d := &Definition{
		config:        config,
		id:            config.ID,
		stateCache:    make(map[string]*StateConfig),
		ancestorCache: make(map[string][]string),
		handledEvents: make(map[string]bool),
		actions:       make(map[string]func(*Context, Event)),
	}
	for _, s := range config.States {
		precomputePaths(s, "", d.stateCache, d.ancestorCache)
	}
	for _, st := range d.stateCache {
		for evName := range st.On {
			d.handledEvents[evName] = true
		}
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.guardEval == nil {
		d.guardEval = &DefaultGuardEvaluator{}
	}
	return d, nil
}

// ID returns the machine's configured id.
func (d *Definition) ID() string { return d.id }

// Version returns the config's stamped version: the caller-supplied
// MachineConfig.Version if one was set, otherwise the content hash
// ComputeVersion derived for it at Compile time. Stable for the lifetime
// of the Definition regardless of how many times it's called.
func (d *Definition) Version() string { return d.config.Version }

func joinPath(prefix, seg string) string {
	if prefix == "" {
		return seg
	}
	return prefix + "." + seg
}

func (d *Definition) parentOf(path string) string {
	ancestors := d.ancestorCache[path]
	if len(ancestors) < 2 {
		return ""
	}
	return ancestors[len(ancestors)-2]
}

// resolveInitialLeaves expands path down to the leaf paths that should
// be active when path becomes active: itself if atomic/final, its
// initial child if compound, every child if parallel, or the recorded
// (or default) configuration if path names a history pseudo-state.
func (d *Definition) resolveInitialLeaves(hist historyTable, path string) []string {
	st, ok := d.stateCache[path]
	if !ok {
		return []string{path}
	}
	switch st.Type {
	case Compound:
		if st.Initial == "" {
			return []string{path}
		}
		return d.resolveInitialLeaves(hist, joinPath(path, st.Initial))
	case Parallel:
		var leaves []string
		for _, c := range st.Children {
			leaves = append(leaves, d.resolveInitialLeaves(hist, joinPath(path, c.ID))...)
		}
		return leaves
	case ShallowHistory, DeepHistory:
		deep := st.Type == DeepHistory
		if restored, ok := restoreHistory(hist, path, deep); ok {
			var leaves []string
			for _, r := range restored {
				leaves = append(leaves, d.resolveInitialLeaves(hist, r)...)
			}
			return leaves
		}
		if parent := d.parentOf(path); parent != "" {
			return d.resolveInitialLeaves(hist, parent)
		}
		return []string{path}
	default: // Atomic, Final
		return []string{path}
	}
}

func (d *Definition) buildConfiguration(leaves []string) []hsi.StateDescriptor {
	out := make([]hsi.StateDescriptor, 0, len(leaves))
	for _, l := range leaves {
		typ := "atomic"
		if st, ok := d.stateCache[l]; ok {
			typ = string(st.Type)
		}
		out = append(out, hsi.StateDescriptor{Path: l, Type: typ, Parent: d.parentOf(l)})
	}
	return out
}

// recordHistoryOnExit records, for every history pseudo-state child of
// an exited state, which of its region's states were active.
func (d *Definition) recordHistoryOnExit(hist historyTable, exitStates []string, leaf string) historyTable {
	leafSegs := strings.Split(leaf, ".")
	for _, path := range exitStates {
		st, ok := d.stateCache[path]
		if !ok {
			continue
		}
		pathSegs := strings.Split(path, ".")
		for _, child := range st.Children {
			if child.Type != ShallowHistory && child.Type != DeepHistory {
				continue
			}
			histID := joinPath(path, child.ID)
			if child.Type == DeepHistory {
				hist = recordHistory(hist, histID, []string{leaf}, true)
				continue
			}
			if len(leafSegs) > len(pathSegs) {
				immediateChild := strings.Join(leafSegs[:len(pathSegs)+1], ".")
				hist = recordHistory(hist, histID, []string{immediateChild}, false)
			}
		}
	}
	return hist
}

type transitionCandidate struct {
	leafIdx    int
	sourcePath string
	trans      TransitionConfig
}

// step evaluates ev against the active leaves once: it finds every
// candidate transition, picks a non-conflicting winner per active
// region (highest priority first), and applies every winner's
// exit/transition/entry actions. fired is false if ev matched nothing.
func (d *Definition) step(ctx *Context, leaves []string, hist historyTable, ev Event) ([]string, historyTable, []hsi.Action, bool) {
	var candidates []transitionCandidate
	for i, leaf := range leaves {
		for _, anc := range d.ancestorCache[leaf] {
			st, ok := d.stateCache[anc]
			if !ok {
				continue
			}
			list := st.On[ev.Type]
			if ev.Type != "*" {
				list = append(append([]TransitionConfig{}, list...), st.On["*"]...)
			}
			if len(list) == 0 {
				continue
			}
			for _, tr := range list {
				if d.guardEval.Eval(ctx, tr.Guard, ev) {
					candidates = append(candidates, transitionCandidate{leafIdx: i, sourcePath: anc, trans: tr})
				}
			}
		}
	}
	if len(candidates) == 0 {
		return leaves, hist, nil, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].trans.Priority > candidates[j].trans.Priority
	})

	consumed := map[int]bool{}
	var winners []transitionCandidate
	for _, c := range candidates {
		if consumed[c.leafIdx] {
			continue
		}
		consumed[c.leafIdx] = true
		winners = append(winners, c)
	}
	sort.SliceStable(winners, func(i, j int) bool { return winners[i].leafIdx < winners[j].leafIdx })

	var kept []string
	for i, l := range leaves {
		if !consumed[i] {
			kept = append(kept, l)
		}
	}

	var actions []hsi.Action
	var entered []string

	for _, w := range winners {
		leaf := leaves[w.leafIdx]
		target := w.trans.Target
		lcca := computeLCCA(w.sourcePath, target)

		exitStates := getExitStates(leaf, lcca)
		hist = d.recordHistoryOnExit(hist, exitStates, leaf)
		for i := len(exitStates) - 1; i >= 0; i-- {
			if st, ok := d.stateCache[exitStates[i]]; ok {
				actions = append(actions, d.runActions(ctx, ev, st.Exit)...)
			}
		}

		actions = append(actions, d.runActions(ctx, ev, w.trans.Actions)...)

		entryStates := getEntryStates(lcca, target)
		entered2 := map[string]bool{}
		for _, path := range entryStates {
			entered2[path] = true
			if st, ok := d.stateCache[path]; ok {
				actions = append(actions, d.runActions(ctx, ev, st.Entry)...)
			}
		}

		resolvedLeaves := d.resolveInitialLeaves(hist, target)
		for _, rl := range resolvedLeaves {
			for _, anc := range d.ancestorCache[rl] {
				if anc == target || !strings.HasPrefix(anc, target+".") {
					continue
				}
				if entered2[anc] {
					continue
				}
				entered2[anc] = true
				if st, ok := d.stateCache[anc]; ok {
					actions = append(actions, d.runActions(ctx, ev, st.Entry)...)
				}
			}
		}
		entered = append(entered, resolvedLeaves...)
	}

	return append(kept, entered...), hist, actions, true
}

// findNewlyDoneCompound reports the path of a compound ancestor whose
// single active child just became final and which has a transition
// registered for the corresponding done event, or "" if none.
func (d *Definition) findNewlyDoneCompound(leaves []string) string {
	checked := map[string]bool{}
	for _, leaf := range leaves {
		ancestors := d.ancestorCache[leaf]
		for i := len(ancestors) - 2; i >= 0; i-- {
			anc := ancestors[i]
			if checked[anc] {
				continue
			}
			checked[anc] = true
			st, ok := d.stateCache[anc]
			if !ok || st.Type != Compound {
				continue
			}
			child, ok := d.stateCache[ancestors[i+1]]
			if ok && child.IsFinal() && d.handledEvents["done.state."+anc] {
				return anc
			}
		}
	}
	return ""
}

// cascadeDone repeatedly raises "done.state.<path>" for any compound
// region that just completed, until no more do, implementing the
// final-state completion cascade within a single macrostep.
func (d *Definition) cascadeDone(ctx *Context, leaves []string, hist historyTable) ([]string, historyTable, []hsi.Action) {
	var actions []hsi.Action
	for i := 0; i < 64; i++ {
		anc := d.findNewlyDoneCompound(leaves)
		if anc == "" {
			break
		}
		newLeaves, newHist, stepActions, fired := d.step(ctx, leaves, hist, Event{Type: "done.state." + anc})
		if !fired {
			break
		}
		leaves, hist = newLeaves, newHist
		actions = append(actions, stepActions...)
	}
	return leaves, hist, actions
}

func cloneContext(c *Context) *Context {
	nc := NewContext()
	nc.Restore(c.Snapshot())
	return nc
}

// InitialState builds the machine's starting Snapshot: the initial
// configuration's leaves, with every ancestor's entry actions run once
// in outer-to-inner order.
func (d *Definition) InitialState(parent hsi.ActorRef) hsi.Snapshot {
	ctx := NewContext()
	hist := newHistoryTable()
	leaves := d.resolveInitialLeaves(hist, d.config.Initial)

	var actions []hsi.Action
	entered := map[string]bool{}
	for _, leaf := range leaves {
		for _, anc := range d.ancestorCache[leaf] {
			if entered[anc] {
				continue
			}
			entered[anc] = true
			if st, ok := d.stateCache[anc]; ok {
				actions = append(actions, d.runActions(ctx, Event{}, st.Entry)...)
			}
		}
	}

	leaves, hist, cascadeActions := d.cascadeDone(ctx, leaves, hist)
	actions = append(actions, cascadeActions...)

	sort.Strings(leaves)
	return Snapshot{
		leaves:    leaves,
		ctx:       ctx,
		config:    d.buildConfiguration(leaves),
		actions:   actions,
		changed:   true,
		histTable: hist,
	}
}

// Transition computes the next Snapshot for (state, event). It clones
// the extended state so the previous Snapshot's Context stays frozen,
// runs one step against event, then cascades any resulting done-state
// completions before returning.
func (d *Definition) Transition(state hsi.Snapshot, event hsi.Event, parent hsi.ActorRef) hsi.Snapshot {
	prev, ok := state.(Snapshot)
	if !ok {
		return state
	}

	ctx := cloneContext(prev.ctx)
	ev := Event{Type: event.Name, Data: event.Data}

	leaves, hist, actions, fired := d.step(ctx, prev.leaves, prev.histTable, ev)
	if !fired {
		return Snapshot{
			leaves:    prev.leaves,
			ctx:       ctx,
			event:     event,
			config:    prev.config,
			changed:   false,
			history:   &prev,
			histTable: prev.histTable,
		}
	}

	leaves, hist, cascadeActions := d.cascadeDone(ctx, leaves, hist)
	actions = append(actions, cascadeActions...)

	sort.Strings(leaves)
	return Snapshot{
		leaves:    leaves,
		ctx:       ctx,
		event:     event,
		config:    d.buildConfiguration(leaves),
		actions:   actions,
		changed:   true,
		history:   &prev,
		histTable: hist,
	}
}

// Restore resumes from a caller-supplied state value: either a single
// path string or a []string of leaf paths (for a parallel
// configuration), validated against the compiled state cache.
func (d *Definition) Restore(stateValue any, parent hsi.ActorRef) (hsi.Snapshot, error) {
	var leaves []string
	switch v := stateValue.(type) {
	case string:
		leaves = []string{v}
	case []string:
		leaves = append([]string(nil), v...)
	default:
		return nil, fmt.Errorf("machine: cannot restore state value of type %T", stateValue)
	}
	for _, l := range leaves {
		if _, ok := d.stateCache[l]; !ok {
			return nil, fmt.Errorf("machine: unknown state path %q", l)
		}
	}
	sort.Strings(leaves)
	return Snapshot{
		leaves:    leaves,
		ctx:       NewContext(),
		config:    d.buildConfiguration(leaves),
		changed:   true,
		histTable: newHistoryTable(),
	}, nil
}
