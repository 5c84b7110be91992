// Package orchestrator coordinates agents, tasks, and workflows.
package orchestrator

import (
	"time"
)

// EventKind represents the kind of orchestrator event.
type EventKind string

const (
	// EventTaskStarted indicates a task has started execution.
	EventTaskStarted EventKind = "task_started"
	// EventTaskCompleted indicates a task completed successfully.
	EventTaskCompleted EventKind = "task_completed"
	// EventTaskFailed indicates a task failed.
	EventTaskFailed EventKind = "task_failed"
	// EventWorkflowStepStarted indicates a workflow step began executing.
	EventWorkflowStepStarted EventKind = "workflow_step_started"
	// EventWorkflowStepCompleted indicates a workflow step finished.
	EventWorkflowStepCompleted EventKind = "workflow_step_completed"
	// EventWorkflowCompleted indicates every step of a workflow completed.
	EventWorkflowCompleted EventKind = "workflow_completed"
	// EventWorkflowFailed indicates a workflow reached the failed state.
	EventWorkflowFailed EventKind = "workflow_failed"
)

// AllEventKinds lists every event kind the bus can carry.
var AllEventKinds = []EventKind{
	EventTaskStarted,
	EventTaskCompleted,
	EventTaskFailed,
	EventWorkflowStepStarted,
	EventWorkflowStepCompleted,
	EventWorkflowCompleted,
	EventWorkflowFailed,
}

// Event represents a lifecycle notification emitted by the orchestrator.
// These events drive workflow propagation and are consumed by host UIs.
type Event struct {
	// Kind is the kind of event.
	Kind EventKind
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// StepID is the ID of the related workflow step, if applicable.
	StepID string
	// WorkflowID is the ID of the related workflow, if applicable.
	WorkflowID string
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error string
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
