// Package provider defines the external collaborator boundaries the
// orchestrator depends on: capability invocation, request classification,
// source control, and deployment. The Anthropic-backed implementation
// lives in this package; hosts may supply their own.
package provider

import (
	"context"

	"github.com/ShayCichocki/conductor/pkg/models"
)

// Provider identifiers resolved from model names.
const (
	// ProviderAnthropic serves claude-* models.
	ProviderAnthropic = "anthropic"
	// ProviderOpenAI serves gpt-* and o-series models.
	ProviderOpenAI = "openai"
	// ProviderGoogle serves gemini-* models.
	ProviderGoogle = "google"
	// ProviderOllama serves locally hosted open-source models.
	ProviderOllama = "ollama"
)

// Request is a capability invocation built by a handler.
type Request struct {
	// Prompt is the user-facing instruction.
	Prompt string
	// System is the handler-specific system prompt.
	System string
	// Context carries the task's payload data.
	Context map[string]any
	// Model is the resolved model identifier.
	Model string
	// Provider is the resolved provider identifier.
	Provider string
}

// Response is the payload returned by a capability invocation.
type Response struct {
	// Content is the free-text model output.
	Content string
}

// CapabilityService invokes an external model provider on behalf of a
// capability handler. Any failure surfaces as an error to the caller.
type CapabilityService interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
}

// SourceControl creates repositories on a source-control host.
type SourceControl interface {
	CreateRepository(ctx context.Context, name string, private bool, description string) (url string, err error)
}

// Deployer deploys a project to a hosting target.
type Deployer interface {
	Deploy(ctx context.Context, projectID, entryPoint string, options map[string]any) (*models.DeploymentResult, error)
}

// IntentType classifies what a request is asking for.
type IntentType string

const (
	// IntentQuery is a question answerable with a single direct call.
	IntentQuery IntentType = "query"
	// IntentSimple is a small change handled by one subtask.
	IntentSimple IntentType = "simple"
	// IntentComplex requires decomposition into multiple subtasks.
	IntentComplex IntentType = "complex"
)

// Subtask is one unit of a classified request.
type Subtask struct {
	// Description is the natural-language description of the subtask.
	Description string `json:"description"`
	// AgentType is the capability required for this subtask.
	AgentType models.AgentType `json:"agent_type"`
}

// Classification is the result of classifying a free-form request.
type Classification struct {
	// Intent is the overall category of the request.
	Intent IntentType `json:"intent"`
	// Subtasks is the ordered decomposition of the request.
	Subtasks []Subtask `json:"subtasks,omitempty"`
}

// Classifier turns a free-form request into an intent and an ordered
// list of subtask descriptions with required agent types.
type Classifier interface {
	Classify(ctx context.Context, message string) (*Classification, error)
}
