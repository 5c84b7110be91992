package orchestrator

import "errors"

// Sentinel errors returned by orchestrator operations. Callers match
// them with errors.Is; the wrapping message carries the offending ID.
var (
	// ErrAgentNotFound indicates no active agent is registered for the
	// requested agent type.
	ErrAgentNotFound = errors.New("agent not found")
	// ErrUnknownTask indicates a task ID that is not in the store.
	ErrUnknownTask = errors.New("unknown task")
	// ErrUnknownDependency indicates a dependency on a task ID that is
	// not in the store.
	ErrUnknownDependency = errors.New("unknown dependency")
	// ErrDependencyFailed indicates a step was short-circuited because
	// an upstream dependency failed.
	ErrDependencyFailed = errors.New("dependency failed")
	// ErrUnknownWorkflow indicates a workflow ID that is not registered.
	ErrUnknownWorkflow = errors.New("unknown workflow")
	// ErrWorkflowTerminal indicates an operation on a workflow that has
	// already reached a terminal state.
	ErrWorkflowTerminal = errors.New("workflow already terminal")
	// ErrDuplicateAgent indicates a second registration for an agent type.
	ErrDuplicateAgent = errors.New("agent type already registered")
)
