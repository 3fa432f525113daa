package scheduler

import "testing"

func TestQueue_DefersBeforeInitialize(t *testing.T) {
	q := New()
	ran := false
	q.Schedule(func() { ran = true })
	if ran {
		t.Fatal("task ran before Initialize")
	}
	q.Initialize()
	if !ran {
		t.Fatal("buffered task did not run after Initialize")
	}
}

func TestQueue_RunsImmediatelyOnceInitialized(t *testing.T) {
	q := New()
	q.Initialize()
	ran := false
	q.Schedule(func() { ran = true })
	if !ran {
		t.Fatal("task did not run synchronously")
	}
}

func TestQueue_ReentrantScheduleRunsInOrderNotRecursively(t *testing.T) {
	q := New()
	q.Initialize()
	var order []int

	q.Schedule(func() {
		order = append(order, 1)
		q.Schedule(func() { order = append(order, 2) })
		order = append(order, 3)
	})

	if len(order) != 3 || order[0] != 1 || order[1] != 3 || order[2] != 2 {
		t.Errorf("order = %v, want [1 3 2]", order)
	}
}

func TestQueue_ClearDropsPendingTasks(t *testing.T) {
	q := New()
	ran := false
	q.Schedule(func() { ran = true })
	q.Clear()
	q.Initialize()
	if ran {
		t.Error("cleared task should not run")
	}
}
