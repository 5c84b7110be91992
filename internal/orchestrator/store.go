package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"github.com/ShayCichocki/conductor/pkg/models"
)

// TaskStore holds every task known to the orchestrator along with the
// FIFO pending queue and the set of running task IDs. All mutation goes
// through the store mutex so admission-control checks stay atomic with
// respect to concurrent completions.
type TaskStore struct {
	// tasks maps task IDs to task records.
	tasks map[string]*models.Task
	// queue holds pending task IDs in insertion (FIFO) order.
	queue []string
	// running holds the IDs of tasks currently in progress.
	running map[string]bool
	// now returns the current time; injectable for tests.
	now func() time.Time
	// mu protects all fields.
	mu sync.RWMutex
}

// NewTaskStore creates a new empty TaskStore.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks:   make(map[string]*models.Task),
		running: make(map[string]bool),
		now:     time.Now,
	}
}

// Enqueue adds a task to the store and the pending queue.
// Every ID in DependsOn must already exist in the store.
func (s *TaskStore) Enqueue(task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID == "" {
		return fmt.Errorf("enqueue: task has no ID")
	}
	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("enqueue: task %s already exists", task.ID)
	}
	for _, depID := range task.DependsOn {
		if _, exists := s.tasks[depID]; !exists {
			return fmt.Errorf("enqueue: task %s: %w: %s", task.ID, ErrUnknownDependency, depID)
		}
	}

	task.Status = models.TaskStatusPending
	task.CreatedAt = s.now()
	s.tasks[task.ID] = task
	s.queue = append(s.queue, task.ID)
	debugLog("[store] enqueued task %s (deps=%v), queue depth %d", task.ID, task.DependsOn, len(s.queue))
	return nil
}

// Admit moves executable tasks from the pending queue into the running
// set until the running set reaches maxRunning. A task is executable when
// every task it depends on has completed. Admission is FIFO among
// executable tasks. Admitted tasks are marked in progress with their
// start time set, and returned in admission order.
func (s *TaskStore) Admit(maxRunning int) []*models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var admitted []*models.Task
	var remaining []string

	for _, id := range s.queue {
		if len(s.running) >= maxRunning {
			remaining = append(remaining, id)
			continue
		}
		task := s.tasks[id]
		if !s.executableLocked(task) {
			remaining = append(remaining, id)
			continue
		}

		started := s.now()
		task.Status = models.TaskStatusInProgress
		task.StartedAt = &started
		s.running[id] = true
		admitted = append(admitted, task)
	}

	s.queue = remaining
	if len(admitted) > 0 {
		debugLog("[store] admitted %d tasks, running=%d, queued=%d", len(admitted), len(s.running), len(s.queue))
	}
	return admitted
}

// executableLocked reports whether every dependency of the task has
// completed. Caller must hold s.mu.
func (s *TaskStore) executableLocked(task *models.Task) bool {
	for _, depID := range task.DependsOn {
		dep, ok := s.tasks[depID]
		if !ok || dep.Status != models.TaskStatusCompleted {
			return false
		}
	}
	return true
}

// Complete marks a running task as completed with the given result.
func (s *TaskStore) Complete(id string, result *models.TaskResult) error {
	return s.finish(id, models.TaskStatusCompleted, result, "")
}

// Fail marks a running task as failed with the given error message.
func (s *TaskStore) Fail(id string, errMsg string) error {
	return s.finish(id, models.TaskStatusFailed, nil, errMsg)
}

func (s *TaskStore) finish(id string, status models.TaskStatus, result *models.TaskResult, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("finish: %w: %s", ErrUnknownTask, id)
	}

	done := s.now()
	task.Status = status
	task.Result = result
	task.Error = errMsg
	task.CompletedAt = &done
	delete(s.running, id)
	debugLog("[store] task %s finished with status %s, running=%d", id, status, len(s.running))
	return nil
}

// Get returns a copy of the task with the given ID.
func (s *TaskStore) Get(id string) (*models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	return cloneTask(task), true
}

// RunningCount returns the number of tasks currently in progress.
func (s *TaskStore) RunningCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.running)
}

// PendingCount returns the number of tasks waiting in the queue.
func (s *TaskStore) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.queue)
}

// Pending returns the IDs of queued tasks in FIFO order.
func (s *TaskStore) Pending() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.queue))
	copy(out, s.queue)
	return out
}

// cloneTask returns a deep copy of a task so callers cannot mutate
// store-held state.
func cloneTask(t *models.Task) *models.Task {
	out := *t
	out.DependsOn = append([]string(nil), t.DependsOn...)
	if t.Context != nil {
		out.Context = make(map[string]any, len(t.Context))
		for k, v := range t.Context {
			out.Context[k] = v
		}
	}
	out.Result = cloneResult(t.Result)
	if t.StartedAt != nil {
		ts := *t.StartedAt
		out.StartedAt = &ts
	}
	if t.CompletedAt != nil {
		ts := *t.CompletedAt
		out.CompletedAt = &ts
	}
	return &out
}

// cloneResult deep-copies a task result including its side-effect
// payloads.
func cloneResult(r *models.TaskResult) *models.TaskResult {
	if r == nil {
		return nil
	}
	out := *r
	if r.Repository != nil {
		repo := *r.Repository
		out.Repository = &repo
	}
	if r.Deployment != nil {
		dep := *r.Deployment
		out.Deployment = &dep
	}
	return &out
}
