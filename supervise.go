package hsi

import (
	"fmt"

	"github.com/comalice/hsi/internal/registry"
	"github.com/comalice/hsi/internal/svcscope"
)

// Spawn is the free-function counterpart to (*Interpreter).spawn, for use
// from inside an action's Exec closure where only the event/context are
// passed explicitly. It resolves the calling interpreter from
// svcscope.Current, set for the duration of action dispatch; called
// outside that scope it returns a nullActor that silently drops
// everything sent to it.
func Spawn(id string, entity Spawnable) ActorRef {
	cur := svcscope.Current()
	parent, ok := cur.(*Interpreter)
	if !ok {
		return nullActor{id: id}
	}
	ref, err := parent.spawn(id, entity)
	if err != nil {
		return nullActor{id: id}
	}
	return ref
}

// spawn instantiates entity as a supervised child of i: it subscribes to
// the new actor so a Done/Error snapshot removes the child automatically,
// and registers it so sendTo/forward can address it by id from outside
// i's own action dispatch. Spawning under an id that already names a
// child unsubscribes from and stops that child before replacing it.
func (i *Interpreter) spawn(id string, entity Spawnable) (ActorRef, error) {
	var ref ActorRef

	switch s := entity.(type) {
	case promiseSpawnable:
		ref = newPromiseChild(i, id, s.fn)
	case callbackSpawnable:
		ref = newCallbackChild(i, id, s.fn)
	case observableSpawnable:
		ref = newObservableChild(i, id, s.obs)
	case machineSpawnable:
		ref = i.spawnMachine(id, s.m, s.opts)
	case actorSpawnable:
		ref = s.ref
	default:
		return nil, fmt.Errorf("%w: %T", ErrCannotSpawn, entity)
	}

	sub := ref.Subscribe(Observer{
		Complete: func() { i.removeChild(id) },
		Error:    func(error) { i.removeChild(id) },
	})

	i.mu.Lock()
	prev, replaced := i.children[id]
	i.children[id] = childEntry{ref: ref, sub: sub}
	i.mu.Unlock()

	if replaced {
		prev.sub.Unsubscribe()
		if s, ok := prev.ref.(Stoppable); ok {
			s.Stop()
		}
	}

	registry.Register(childAddress(i.id, id), ref)
	return ref, nil
}

// spawnMachine nests a fresh Interpreter as a child, wiring WithParent so
// its completion and escalated action errors flow back to i.
func (i *Interpreter) spawnMachine(id string, m Machine, opts []Option) ActorRef {
	childOpts := append([]Option{WithID(id), WithParent(i)}, opts...)
	child := Interpret(m, childOpts...)
	child.Start()
	return child
}

// removeChild unsubscribes and forgets id without stopping it again —
// used when the child has already settled on its own.
func (i *Interpreter) removeChild(id string) {
	i.mu.Lock()
	c, ok := i.children[id]
	delete(i.children, id)
	delete(i.forwardTo, id)
	i.mu.Unlock()
	if !ok {
		return
	}
	c.sub.Unsubscribe()
	registry.Unregister(childAddress(i.id, id))
}

// stopChild tears down a still-running child explicitly, as driven by a
// "stop" action.
func (i *Interpreter) stopChild(id string) {
	i.mu.Lock()
	c, ok := i.children[id]
	delete(i.children, id)
	delete(i.forwardTo, id)
	i.mu.Unlock()
	if !ok {
		return
	}
	c.sub.Unsubscribe()
	registry.Unregister(childAddress(i.id, id))
	if s, ok := c.ref.(Stoppable); ok {
		s.Stop()
	}
}

// sendTo stamps ev.Origin with i's id, resolves target against i's own
// children first, then the process-wide registry by bare id, and
// delivers ev. An empty target (or
// i's own id) is a self-send: it raises ev as the interpreter's own next
// microstep, matching a plain "send" action with no "to".
//
// A target that resolves to nothing is fatal — it panics with
// ErrSendToMissing, caught by runAction's recover and escalated through
// the normal action-error path — except for the one case the spec calls
// out as non-fatal: sending to "#parent"/"#_parent" when i has no
// parent, which is only logged.
func (i *Interpreter) sendTo(target string, ev Event) {
	ev.Origin = i.id
	if target == "" || target == i.id {
		i.enqueue(ev)
		return
	}
	if target == "#parent" || target == "#_parent" {
		if i.parent != nil {
			i.fireSend(ev)
			i.parent.Send(ev)
			return
		}
		i.logger.Warn("hsi: send to parent with no parent set", "interpreter", i.id, "event", ev.Name)
		return
	}

	i.mu.RLock()
	c, ok := i.children[target]
	i.mu.RUnlock()
	if ok {
		i.fireSend(ev)
		c.ref.Send(ev)
		return
	}

	if a, ok := registry.Lookup(target); ok {
		i.fireSend(ev)
		a.Send(ev)
		return
	}
	if a, ok := registry.Lookup(childAddress(i.id, target)); ok {
		i.fireSend(ev)
		a.Send(ev)
		return
	}

	panic(fmt.Errorf("%w: %q (interpreter %q, event %q)", ErrSendToMissing, target, i.id, ev.Name))
}

// forward re-dispatches ev to target exactly as sendTo does; kept as a
// distinct name for the action-list case where the intent is explicitly
// "relay this event I just received", not "raise a new one".
func (i *Interpreter) forward(target string, ev Event) error {
	if target == "" {
		return ErrForwardToMissing
	}
	i.mu.RLock()
	_, okChild := i.children[target]
	i.mu.RUnlock()
	_, okReg := registry.Lookup(target)
	if !okChild && !okReg {
		return ErrForwardToMissing
	}
	i.sendTo(target, ev)
	return nil
}

func childAddress(parentID, childID string) string {
	return parentID + "/" + childID
}
