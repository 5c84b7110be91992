package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/conductor/pkg/models"
)

// stepRef locates one workflow step from a spawned task ID.
type stepRef struct {
	workflowID string
	stepID     string
}

// Engine holds workflow and step records and drives the workflow state
// machine. Steps are converted into tasks as their dependencies clear;
// task outcomes propagate back into step and workflow status.
//
// State machine. Workflow: pending -> in_progress -> {completed, failed}.
// Step: pending -> in_progress -> {completed, failed}. Terminal states
// never revert.
type Engine struct {
	// workflows maps workflow IDs to records.
	workflows map[string]*models.Workflow
	// byTask maps spawned task IDs back to their step.
	byTask map[string]stepRef
	// store is where spawned tasks are enqueued.
	store *TaskStore
	// registry resolves the agent for each spawned task.
	registry *AgentRegistry
	// bus carries step and workflow lifecycle events.
	bus *Bus
	// kick wakes the scheduler after enqueuing tasks.
	kick func()
	// now returns the current time; injectable for tests.
	now func() time.Time
	// pendingSpawns records whether the last spawn pass enqueued tasks.
	pendingSpawns bool
	// mu protects workflows, byTask, and pendingSpawns.
	mu sync.Mutex
}

// NewEngine creates an Engine and registers its task-event listeners on
// the bus. kick is invoked whenever the engine enqueues new tasks.
func NewEngine(store *TaskStore, registry *AgentRegistry, bus *Bus, kick func()) *Engine {
	e := &Engine{
		workflows: make(map[string]*models.Workflow),
		byTask:    make(map[string]stepRef),
		store:     store,
		registry:  registry,
		bus:       bus,
		kick:      kick,
		now:       time.Now,
	}
	bus.Subscribe(EventTaskStarted, e.onTaskStarted)
	bus.Subscribe(EventTaskCompleted, e.onTaskTerminal)
	bus.Subscribe(EventTaskFailed, e.onTaskTerminal)
	return e
}

// CreateWorkflow registers a workflow built from the given steps.
// Step dependencies must reference IDs of steps in the same workflow.
func (e *Engine) CreateWorkflow(name, description string, steps []*models.Step) (*models.Workflow, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("create workflow: no steps")
	}
	ids := make(map[string]bool, len(steps))
	for _, s := range steps {
		if s.ID == "" {
			s.ID = uuid.New().String()[:8]
		}
		if ids[s.ID] {
			return nil, fmt.Errorf("create workflow: duplicate step id %s", s.ID)
		}
		ids[s.ID] = true
	}
	for _, s := range steps {
		for _, dep := range s.DependsOn {
			if !ids[dep] {
				return nil, fmt.Errorf("create workflow: step %s depends on unknown step %s", s.ID, dep)
			}
		}
		s.Status = models.TaskStatusPending
	}

	created := e.now()
	wf := &models.Workflow{
		ID:          uuid.New().String()[:8],
		Name:        name,
		Description: description,
		Steps:       steps,
		Status:      models.WorkflowStatusPending,
		CreatedAt:   created,
		UpdatedAt:   created,
	}

	e.mu.Lock()
	e.workflows[wf.ID] = wf
	e.mu.Unlock()
	return wf, nil
}

// StartWorkflow marks a workflow in progress and spawns a task for every
// step whose dependency set is empty.
func (e *Engine) StartWorkflow(id string) error {
	e.mu.Lock()
	wf, ok := e.workflows[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("start: %w: %s", ErrUnknownWorkflow, id)
	}
	if wf.Status != models.WorkflowStatusPending {
		e.mu.Unlock()
		return fmt.Errorf("start workflow %s: status is %s", id, wf.Status)
	}

	wf.Status = models.WorkflowStatusInProgress
	wf.UpdatedAt = e.now()
	events := e.spawnReadyLocked(wf)
	events = append(events, e.settleLocked(wf)...)
	spawned := e.pendingSpawns
	e.pendingSpawns = false
	e.mu.Unlock()

	e.publishAll(events)
	if spawned {
		e.kick()
	}
	return nil
}

// WorkflowStatus returns a deep copy of the workflow, so repeated calls
// with no intervening mutation return equal snapshots.
func (e *Engine) WorkflowStatus(id string) (*models.Workflow, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	wf, ok := e.workflows[id]
	if !ok {
		return nil, false
	}
	return cloneWorkflow(wf), true
}

// CancelWorkflow marks a workflow failed. Best effort: tasks already
// dispatched to a handler are not interrupted; they run to completion and
// their results are recorded but no longer affect the workflow.
func (e *Engine) CancelWorkflow(id string) error {
	e.mu.Lock()
	wf, ok := e.workflows[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("cancel: %w: %s", ErrUnknownWorkflow, id)
	}
	if wf.Status.Terminal() {
		e.mu.Unlock()
		return fmt.Errorf("cancel workflow %s: %w", id, ErrWorkflowTerminal)
	}

	done := e.now()
	wf.Status = models.WorkflowStatusFailed
	wf.UpdatedAt = done
	wf.CompletedAt = &done
	e.mu.Unlock()

	e.publishAll([]Event{{
		Kind:       EventWorkflowFailed,
		WorkflowID: id,
		Message:    "cancelled",
		Timestamp:  done,
	}})
	return nil
}

// onTaskStarted mirrors a task's in-progress transition onto its step.
func (e *Engine) onTaskStarted(evt Event) {
	e.mu.Lock()
	ref, ok := e.byTask[evt.TaskID]
	if !ok {
		e.mu.Unlock()
		return
	}
	wf := e.workflows[ref.workflowID]
	step := wf.Step(ref.stepID)
	step.Status = models.TaskStatusInProgress
	wf.UpdatedAt = e.now()
	e.mu.Unlock()

	e.publishAll([]Event{{
		Kind:       EventWorkflowStepStarted,
		StepID:     step.ID,
		TaskID:     evt.TaskID,
		WorkflowID: ref.workflowID,
		Message:    step.Name,
		Timestamp:  e.now(),
	}})
}

// onTaskTerminal propagates a task's terminal state: the step adopts the
// task's status, result, and error, pending steps are re-scanned for
// spawning or fail-fast short-circuiting, and the workflow settles into
// a terminal state when warranted. Once the workflow is terminal the
// step still records the outcome, but no new tasks are ever spawned.
func (e *Engine) onTaskTerminal(evt Event) {
	e.mu.Lock()
	ref, ok := e.byTask[evt.TaskID]
	if !ok {
		e.mu.Unlock()
		return
	}
	delete(e.byTask, evt.TaskID)

	wf := e.workflows[ref.workflowID]
	step := wf.Step(ref.stepID)

	task, ok := e.store.Get(evt.TaskID)
	if !ok {
		e.mu.Unlock()
		return
	}
	step.Status = task.Status
	step.Result = task.Result
	step.Error = task.Error
	wf.UpdatedAt = e.now()

	events := []Event{{
		Kind:       EventWorkflowStepCompleted,
		StepID:     step.ID,
		TaskID:     evt.TaskID,
		WorkflowID: wf.ID,
		Message:    step.Name,
		Error:      step.Error,
		Timestamp:  e.now(),
	}}
	if !wf.Status.Terminal() {
		events = append(events, e.spawnReadyLocked(wf)...)
		events = append(events, e.settleLocked(wf)...)
	}
	spawned := e.pendingSpawns
	e.pendingSpawns = false
	e.mu.Unlock()

	e.publishAll(events)
	if spawned {
		e.kick()
	}
}

// spawnReadyLocked re-scans pending steps. Steps whose dependencies have
// all completed are spawned into tasks; steps with a failed dependency
// are marked failed without ever spawning (fail-fast). Failure marks can
// unlock further short-circuits, so the scan repeats until quiescent.
// Caller holds e.mu.
func (e *Engine) spawnReadyLocked(wf *models.Workflow) []Event {
	var events []Event
	for again := true; again; {
		again = false
		before := len(events)
		events = append(events, e.spawnPassLocked(wf)...)
		// A pass that produced failure events may have unblocked more
		// short-circuits.
		for _, evt := range events[before:] {
			if evt.Error != "" {
				again = true
			}
		}
	}
	return events
}

// spawnPassLocked performs one scan over pending steps. Caller holds e.mu.
func (e *Engine) spawnPassLocked(wf *models.Workflow) []Event {
	var events []Event
	for _, step := range wf.Steps {
		if step.Status != models.TaskStatusPending || step.TaskID != "" {
			continue
		}

		ready := true
		for _, depID := range step.DependsOn {
			dep := wf.Step(depID)
			switch {
			case dep.Status == models.TaskStatusFailed:
				done := e.now()
				step.Status = models.TaskStatusFailed
				step.Error = fmt.Errorf("%w: %s: %s", ErrDependencyFailed, depID, dep.Error).Error()
				wf.UpdatedAt = done
				events = append(events, Event{
					Kind:       EventWorkflowStepCompleted,
					StepID:     step.ID,
					WorkflowID: wf.ID,
					Message:    step.Name,
					Error:      step.Error,
					Timestamp:  done,
				})
				ready = false
			case dep.Status != models.TaskStatusCompleted:
				ready = false
			}
			if !ready {
				break
			}
		}
		if !ready || step.Status != models.TaskStatusPending {
			continue
		}

		task := &models.Task{
			ID:        uuid.New().String()[:8],
			AgentType: step.AgentType,
			Prompt:    step.Prompt,
			Context:   step.Context,
		}
		// An unregistered type leaves AgentID empty; dispatch fails the
		// task with the same lookup error.
		if agent, err := e.registry.Lookup(step.AgentType); err == nil {
			task.AgentID = agent.ID
		}
		if err := e.store.Enqueue(task); err != nil {
			done := e.now()
			step.Status = models.TaskStatusFailed
			step.Error = err.Error()
			wf.UpdatedAt = done
			events = append(events, Event{
				Kind:       EventWorkflowStepCompleted,
				StepID:     step.ID,
				WorkflowID: wf.ID,
				Message:    step.Name,
				Error:      step.Error,
				Timestamp:  done,
			})
			continue
		}

		step.TaskID = task.ID
		e.byTask[task.ID] = stepRef{workflowID: wf.ID, stepID: step.ID}
		e.pendingSpawns = true
	}
	return events
}

// settleLocked moves the workflow into a terminal state once warranted:
// failed as soon as any step failed, completed once every step completed.
// Terminal states are monotonic. Running sibling steps of a failed
// workflow are not cancelled. Caller holds e.mu.
func (e *Engine) settleLocked(wf *models.Workflow) []Event {
	if wf.Status.Terminal() {
		return nil
	}

	allCompleted := true
	for _, step := range wf.Steps {
		switch step.Status {
		case models.TaskStatusFailed:
			done := e.now()
			wf.Status = models.WorkflowStatusFailed
			wf.UpdatedAt = done
			wf.CompletedAt = &done
			return []Event{{
				Kind:       EventWorkflowFailed,
				WorkflowID: wf.ID,
				Error:      step.Error,
				Message:    step.Name,
				Timestamp:  done,
			}}
		case models.TaskStatusCompleted:
			// Keep scanning.
		default:
			allCompleted = false
		}
	}

	if !allCompleted || len(wf.Steps) == 0 {
		return nil
	}

	done := e.now()
	wf.Status = models.WorkflowStatusCompleted
	wf.UpdatedAt = done
	wf.CompletedAt = &done
	return []Event{{
		Kind:       EventWorkflowCompleted,
		WorkflowID: wf.ID,
		Timestamp:  done,
	}}
}

// publishAll publishes events outside the engine lock so listeners may
// call back into the engine.
func (e *Engine) publishAll(events []Event) {
	for _, evt := range events {
		e.bus.Publish(evt)
	}
}

// cloneWorkflow returns a deep copy of a workflow snapshot.
func cloneWorkflow(wf *models.Workflow) *models.Workflow {
	out := *wf
	if wf.CompletedAt != nil {
		ts := *wf.CompletedAt
		out.CompletedAt = &ts
	}
	out.Steps = make([]*models.Step, len(wf.Steps))
	for i, s := range wf.Steps {
		sc := *s
		sc.DependsOn = append([]string(nil), s.DependsOn...)
		if s.Context != nil {
			sc.Context = make(map[string]any, len(s.Context))
			for k, v := range s.Context {
				sc.Context[k] = v
			}
		}
		sc.Result = cloneResult(s.Result)
		out.Steps[i] = &sc
	}
	return &out
}
