package models

import "time"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress indicates the task is being worked on.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusCompleted indicates the task completed successfully.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task failed.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is completed or failed.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Task represents a unit of work dispatched to a capability handler.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// AgentID is the ID of the agent resolved for this task.
	AgentID string `json:"agent_id"`
	// AgentType is the capability required to execute this task.
	AgentType AgentType `json:"agent_type"`
	// Prompt is the instruction passed to the capability handler.
	Prompt string `json:"prompt"`
	// Context carries arbitrary payload data for the handler.
	Context map[string]any `json:"context,omitempty"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// Result holds the success payload once the task completes.
	Result *TaskResult `json:"result,omitempty"`
	// Error contains the error message if the task failed.
	Error string `json:"error,omitempty"`
	// DependsOn lists task IDs that must complete before this task runs.
	DependsOn []string `json:"depends_on,omitempty"`
	// CreatedAt is when the task was enqueued.
	CreatedAt time.Time `json:"created_at"`
	// StartedAt is when the task began executing, if it has.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// CompletedAt is when the task reached a terminal state, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TaskResult is the structured payload produced by a capability handler.
type TaskResult struct {
	// Content is the free-text output of the handler.
	Content string `json:"content"`
	// Plan is the proposed plan for handlers that produce side effects.
	Plan string `json:"plan,omitempty"`
	// Repository holds the outcome of a source-control side effect.
	Repository *RepositoryResult `json:"repository,omitempty"`
	// Deployment holds the outcome of a deployment side effect.
	Deployment *DeploymentResult `json:"deployment,omitempty"`
}

// RepositoryResult is the outcome of a source-control collaborator call.
type RepositoryResult struct {
	// URL is the location of the created repository.
	URL string `json:"url"`
}

// DeploymentResult is the outcome of a deployment collaborator call.
type DeploymentResult struct {
	// Success indicates whether the deployment succeeded.
	Success bool `json:"success"`
	// URL is the location of the deployed project.
	URL string `json:"url,omitempty"`
	// Error describes the deployment failure, if any.
	Error string `json:"error,omitempty"`
}
