package orchestrator

import (
	"context"
	"testing"

	"github.com/ShayCichocki/conductor/pkg/models"
)

// startScheduler runs the scheduler loop for the duration of the test.
func startScheduler(t *testing.T, s *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func newTestScheduler(maxConcurrent int, capability *stubCapability) (*Scheduler, *TaskStore, *Bus) {
	store := NewTaskStore()
	bus := NewBus()
	exec := NewExecutor(testRegistry(), capability, nil, nil)
	s := NewScheduler(store, exec, bus, SchedulerConfig{
		MaxConcurrentTasks: maxConcurrent,
		Clock:              newFakeClock(),
	})
	return s, store, bus
}

func TestSchedulerDefaults(t *testing.T) {
	s, _, _ := newTestScheduler(0, newStubCapability())
	if s.MaxConcurrent() != DefaultMaxConcurrentTasks {
		t.Errorf("expected default bound %d, got %d", DefaultMaxConcurrentTasks, s.MaxConcurrent())
	}
}

func TestSchedulerEnforcesConcurrencyBound(t *testing.T) {
	capability := newStubCapability()
	gateA := capability.gate("prompt a")
	gateB := capability.gate("prompt b")
	gateC := capability.gate("prompt c")

	s, store, bus := newTestScheduler(2, capability)
	started := collectEvents(bus, EventTaskStarted)
	completed := collectEvents(bus, EventTaskCompleted)

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Enqueue(newTask(id)); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}
	startScheduler(t, s)
	s.Kick()

	first := nextEvent(t, started)
	second := nextEvent(t, started)
	if first.TaskID != "a" || second.TaskID != "b" {
		t.Errorf("expected FIFO start order [a b], got [%s %s]", first.TaskID, second.TaskID)
	}
	if store.RunningCount() != 2 {
		t.Errorf("expected 2 running at the bound, got %d", store.RunningCount())
	}
	noEvent(t, started)
	if got := store.Pending(); len(got) != 1 || got[0] != "c" {
		t.Errorf("expected c queued, got %v", got)
	}

	// Completing a frees a slot; the scheduler admits c without an
	// external kick.
	close(gateA)
	if evt := nextEvent(t, completed); evt.TaskID != "a" {
		t.Fatalf("expected a completed, got %s", evt.TaskID)
	}
	if evt := nextEvent(t, started); evt.TaskID != "c" {
		t.Fatalf("expected c admitted after a completed, got %s", evt.TaskID)
	}

	close(gateB)
	close(gateC)
	nextEvent(t, completed)
	nextEvent(t, completed)
}

func TestSchedulerFIFOWithSingleSlot(t *testing.T) {
	capability := newStubCapability()
	s, store, bus := newTestScheduler(1, capability)
	started := collectEvents(bus, EventTaskStarted)
	completed := collectEvents(bus, EventTaskCompleted)

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Enqueue(newTask(id)); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}
	startScheduler(t, s)
	s.Kick()

	for _, want := range []string{"a", "b", "c"} {
		if evt := nextEvent(t, started); evt.TaskID != want {
			t.Fatalf("expected %s to start, got %s", want, evt.TaskID)
		}
		if evt := nextEvent(t, completed); evt.TaskID != want {
			t.Fatalf("expected %s to complete, got %s", want, evt.TaskID)
		}
	}
}

func TestSchedulerHandlerErrorFailsTaskNotLoop(t *testing.T) {
	capability := newStubCapability()
	capability.fail("prompt b", "handler exploded")

	s, store, bus := newTestScheduler(1, capability)
	completed := collectEvents(bus, EventTaskCompleted)
	failed := collectEvents(bus, EventTaskFailed)

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Enqueue(newTask(id)); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}
	startScheduler(t, s)
	s.Kick()

	if evt := nextEvent(t, completed); evt.TaskID != "a" {
		t.Fatalf("expected a completed, got %s", evt.TaskID)
	}
	evt := nextEvent(t, failed)
	if evt.TaskID != "b" || evt.Error != "handler exploded" {
		t.Fatalf("expected b failed with handler error, got %+v", evt)
	}
	// The loop keeps scheduling after a failure.
	if evt := nextEvent(t, completed); evt.TaskID != "c" {
		t.Fatalf("expected c completed after b failed, got %s", evt.TaskID)
	}

	task, _ := store.Get("b")
	if task.Status != models.TaskStatusFailed || task.Error != "handler exploded" {
		t.Errorf("expected failed task record, got status=%s error=%q", task.Status, task.Error)
	}
}

func TestSchedulerHoldsBackBlockedTasks(t *testing.T) {
	capability := newStubCapability()
	gateA := capability.gate("prompt a")

	s, store, bus := newTestScheduler(4, capability)
	started := collectEvents(bus, EventTaskStarted)

	if err := store.Enqueue(newTask("a")); err != nil {
		t.Fatalf("enqueue a: %v", err)
	}
	if err := store.Enqueue(newTask("b", "a")); err != nil {
		t.Fatalf("enqueue b: %v", err)
	}
	startScheduler(t, s)
	s.Kick()

	if evt := nextEvent(t, started); evt.TaskID != "a" {
		t.Fatalf("expected a started, got %s", evt.TaskID)
	}
	// b stays queued while its dependency runs, even with free slots.
	noEvent(t, started)

	close(gateA)
	if evt := nextEvent(t, started); evt.TaskID != "b" {
		t.Fatalf("expected b started after a completed, got %s", evt.TaskID)
	}
}
