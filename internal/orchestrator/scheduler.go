package orchestrator

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxConcurrentTasks bounds simultaneous in-progress tasks.
const DefaultMaxConcurrentTasks = 3

// DefaultTickInterval is the fallback admission interval. Admission is
// normally driven by the trigger channel; the ticker is a safety net.
const DefaultTickInterval = 100 * time.Millisecond

// SchedulerConfig contains settings for the Scheduler.
type SchedulerConfig struct {
	// MaxConcurrentTasks is the admission bound. Defaults to 3.
	MaxConcurrentTasks int
	// TickInterval is the fallback polling interval. Defaults to 100ms.
	TickInterval time.Duration
	// Clock drives the fallback ticker. Defaults to the real clock.
	Clock Clock
}

// Scheduler is the admission-control loop. It wakes on enqueue and on
// task completion (plus a fallback ticker), admits executable tasks in
// FIFO order up to the concurrency bound, and dispatches each admitted
// task to the executor on its own goroutine. Handler errors are captured
// into the task record and never terminate the loop.
type Scheduler struct {
	// store holds the task records, queue, and running set.
	store *TaskStore
	// executor dispatches admitted tasks to capability handlers.
	executor *Executor
	// bus receives task lifecycle events.
	bus *Bus
	// maxConcurrent is the admission bound.
	maxConcurrent int
	// tick is the fallback polling interval.
	tick time.Duration
	// clock drives the fallback ticker.
	clock Clock
	// trigger wakes the loop; buffered so kicks never block.
	trigger chan struct{}
	// wg tracks in-flight task goroutines.
	wg sync.WaitGroup
}

// NewScheduler creates a Scheduler over the given store, executor, and bus.
func NewScheduler(store *TaskStore, executor *Executor, bus *Bus, cfg SchedulerConfig) *Scheduler {
	if cfg.MaxConcurrentTasks <= 0 {
		cfg.MaxConcurrentTasks = DefaultMaxConcurrentTasks
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = NewClock()
	}
	return &Scheduler{
		store:         store,
		executor:      executor,
		bus:           bus,
		maxConcurrent: cfg.MaxConcurrentTasks,
		tick:          cfg.TickInterval,
		clock:         cfg.Clock,
		trigger:       make(chan struct{}, 1),
	}
}

// Kick signals the scheduler to run an admission pass. Callers invoke it
// after enqueuing tasks; the scheduler invokes it after completions.
func (s *Scheduler) Kick() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run drives the admission loop until the context is cancelled, then
// waits for in-flight task goroutines to finish.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return
		case <-s.trigger:
			s.admitOnce(ctx)
		case <-ticker.C():
			s.admitOnce(ctx)
		}
	}
}

// MaxConcurrent returns the admission bound.
func (s *Scheduler) MaxConcurrent() int {
	return s.maxConcurrent
}

// admitOnce performs one admission pass: the store atomically moves
// executable queued tasks into the running set up to the bound, and each
// admitted task is dispatched asynchronously.
func (s *Scheduler) admitOnce(ctx context.Context) {
	admitted := s.store.Admit(s.maxConcurrent)
	for _, task := range admitted {
		s.bus.Publish(Event{
			Kind:      EventTaskStarted,
			TaskID:    task.ID,
			Message:   task.Prompt,
			Timestamp: s.clock.Now(),
		})

		s.wg.Add(1)
		go func(id string) {
			defer s.wg.Done()
			s.runTask(ctx, id)
		}(task.ID)
	}
}

// runTask executes one admitted task and records its outcome. The
// executor error, if any, is captured verbatim on the task.
func (s *Scheduler) runTask(ctx context.Context, id string) {
	task, ok := s.store.Get(id)
	if !ok {
		debugLog("[scheduler] admitted task %s missing from store", id)
		return
	}

	result, err := s.executor.Execute(ctx, task)
	if err != nil {
		if ferr := s.store.Fail(id, err.Error()); ferr != nil {
			debugLog("[scheduler] fail task %s: %v", id, ferr)
		}
		s.bus.Publish(Event{
			Kind:      EventTaskFailed,
			TaskID:    id,
			Error:     err.Error(),
			Timestamp: s.clock.Now(),
		})
	} else {
		if cerr := s.store.Complete(id, result); cerr != nil {
			debugLog("[scheduler] complete task %s: %v", id, cerr)
		}
		s.bus.Publish(Event{
			Kind:      EventTaskCompleted,
			TaskID:    id,
			Timestamp: s.clock.Now(),
		})
	}

	// A completion may have unblocked dependents.
	s.Kick()
}
