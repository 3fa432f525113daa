// Package scheduler implements the single-threaded, run-to-completion
// microtask queue an interpreter drains one event at a time: while a
// task is processing, newly scheduled tasks queue up rather than
// recursing, and tasks scheduled before Initialize buffer until the
// interpreter starts.
package scheduler

import "sync"

// Queue is a FIFO task queue with an initialized/processing guard
// matching the interpreter's batching semantics: Schedule before
// Initialize defers the task; Schedule while a task is already running
// enqueues rather than running it inline, so one external Send always
// produces one ordered run of microsteps with no reentrancy.
type Queue struct {
	mu          sync.Mutex
	tasks       []func()
	deferred    []func()
	initialized bool
	processing  bool
}

// New returns an empty, uninitialized Queue.
func New() *Queue {
	return &Queue{}
}

// Initialize flips the queue into the started state and runs any tasks
// that were scheduled before this call, in the order they arrived.
func (q *Queue) Initialize() {
	q.mu.Lock()
	if q.initialized {
		q.mu.Unlock()
		return
	}
	q.initialized = true
	buffered := q.deferred
	q.deferred = nil
	q.mu.Unlock()

	for _, t := range buffered {
		q.Schedule(t)
	}
}

// Schedule enqueues t. If the queue isn't initialized yet, t is buffered
// until Initialize. If a task is already processing, t is appended to
// run after the current drain finishes. Otherwise t runs immediately,
// draining any tasks it schedules in turn before returning.
func (q *Queue) Schedule(t func()) {
	q.mu.Lock()
	if !q.initialized {
		q.deferred = append(q.deferred, t)
		q.mu.Unlock()
		return
	}
	if q.processing {
		q.tasks = append(q.tasks, t)
		q.mu.Unlock()
		return
	}
	q.processing = true
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()

	q.drain()
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.processing = false
			q.mu.Unlock()
			return
		}
		next := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		next()
	}
}

// Clear drops every pending task, buffered or queued, without running
// them. Used when an interpreter stops.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.tasks = nil
	q.deferred = nil
	q.mu.Unlock()
}

// Initialized reports whether Initialize has been called.
func (q *Queue) Initialized() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.initialized
}
