package models

import "time"

// WorkflowStatus represents the current state of a workflow.
type WorkflowStatus string

const (
	// WorkflowStatusPending indicates the workflow has not started.
	WorkflowStatusPending WorkflowStatus = "pending"
	// WorkflowStatusInProgress indicates the workflow is executing.
	WorkflowStatusInProgress WorkflowStatus = "in_progress"
	// WorkflowStatusCompleted indicates every step completed successfully.
	WorkflowStatusCompleted WorkflowStatus = "completed"
	// WorkflowStatusFailed indicates at least one step failed.
	WorkflowStatusFailed WorkflowStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s WorkflowStatus) Valid() bool {
	switch s {
	case WorkflowStatusPending, WorkflowStatusInProgress, WorkflowStatusCompleted, WorkflowStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is completed or failed.
// Terminal workflow states never revert.
func (s WorkflowStatus) Terminal() bool {
	return s == WorkflowStatusCompleted || s == WorkflowStatusFailed
}

// Workflow is an ordered, dependency-linked collection of steps
// representing a decomposed request.
type Workflow struct {
	// ID is the unique identifier for this workflow.
	ID string `json:"id"`
	// Name is the short description of the workflow.
	Name string `json:"name"`
	// Description provides detailed information about the workflow.
	Description string `json:"description,omitempty"`
	// Steps is the ordered list of steps in this workflow.
	Steps []*Step `json:"steps"`
	// Status is the current state of the workflow.
	Status WorkflowStatus `json:"status"`
	// CreatedAt is when the workflow was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the workflow last changed.
	UpdatedAt time.Time `json:"updated_at"`
	// CompletedAt is when the workflow reached a terminal state, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Step returns the step with the given ID, or nil if not found.
func (w *Workflow) Step(id string) *Step {
	for _, s := range w.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Step is a workflow's declarative unit of work. A step spawns exactly
// one task once all of its dependencies have completed.
type Step struct {
	// ID is the unique identifier for this step.
	ID string `json:"id"`
	// Name is the short description of the step.
	Name string `json:"name"`
	// Description provides detailed information about the step.
	Description string `json:"description,omitempty"`
	// AgentType is the capability required to execute this step.
	AgentType AgentType `json:"agent_type"`
	// Prompt is the instruction for the spawned task.
	Prompt string `json:"prompt"`
	// Context carries arbitrary payload data for the spawned task.
	Context map[string]any `json:"context,omitempty"`
	// Status mirrors the spawned task's status once spawned.
	Status TaskStatus `json:"status"`
	// Result is copied from the spawned task on completion.
	Result *TaskResult `json:"result,omitempty"`
	// Error is copied from the spawned task on failure, or set when an
	// upstream dependency failed and this step was short-circuited.
	Error string `json:"error,omitempty"`
	// TaskID is the ID of the task spawned for this step, if any.
	TaskID string `json:"task_id,omitempty"`
	// DependsOn lists step IDs that must complete before this step spawns.
	DependsOn []string `json:"depends_on,omitempty"`
}
