package orchestrator

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/conductor/internal/provider"
	"github.com/ShayCichocki/conductor/pkg/models"
)

// Context keys handlers read from a task's payload.
const (
	// ContextKeyProjectID names the project a deployment targets.
	ContextKeyProjectID = "project_id"
	// ContextKeyEntryPoint names the entry point file for a deployment.
	ContextKeyEntryPoint = "entry_point"
	// ContextKeyRepoName names the repository to create.
	ContextKeyRepoName = "repo_name"
	// ContextKeyRepoPrivate marks a created repository private.
	ContextKeyRepoPrivate = "repo_private"
)

// systemPrompts holds the handler system prompt per agent type.
var systemPrompts = map[models.AgentType]string{
	models.AgentTypeCode:          "You are a senior software engineer. Write clear, working code for the request.",
	models.AgentTypeDeployment:    "You are a deployment engineer. Produce a concrete deployment plan for the request.",
	models.AgentTypeRepository:    "You are a source-control specialist. Plan the repository layout and initial structure.",
	models.AgentTypeTesting:       "You are a test engineer. Design and write tests for the request.",
	models.AgentTypeDebugging:     "You are a debugging specialist. Diagnose the fault and propose a fix.",
	models.AgentTypeDocumentation: "You are a technical writer. Produce clear documentation for the request.",
	models.AgentTypeArchitecture:  "You are a software architect. Design the system for the request.",
	models.AgentTypeSecurity:      "You are a security reviewer. Review the request for vulnerabilities and risks.",
	models.AgentTypePerformance:   "You are a performance engineer. Review the request for bottlenecks and optimizations.",
}

// Executor routes admitted tasks to the handler matching their agent
// type. Handlers build a provider request, call the external capability
// collaborator, and interpret the result. Handlers perform no retries.
type Executor struct {
	// registry resolves agents, models, and providers.
	registry *AgentRegistry
	// capability is the external model invocation collaborator.
	capability provider.CapabilityService
	// sourceControl is the source-control host collaborator.
	sourceControl provider.SourceControl
	// deployer is the deployment target collaborator.
	deployer provider.Deployer
}

// NewExecutor creates an Executor. capability is required; sourceControl
// and deployer may be nil, in which case the corresponding handlers
// return plan-only results.
func NewExecutor(registry *AgentRegistry, capability provider.CapabilityService, sourceControl provider.SourceControl, deployer provider.Deployer) *Executor {
	return &Executor{
		registry:      registry,
		capability:    capability,
		sourceControl: sourceControl,
		deployer:      deployer,
	}
}

// Execute resolves the task's agent and dispatches to the matching
// handler. Any error is converted by the scheduler into a failed task.
func (e *Executor) Execute(ctx context.Context, task *models.Task) (*models.TaskResult, error) {
	agent, err := e.registry.Lookup(task.AgentType)
	if err != nil {
		return nil, err
	}

	model := e.registry.SelectModel(agent)
	req := provider.Request{
		Prompt:   task.Prompt,
		System:   systemPrompts[task.AgentType],
		Context:  task.Context,
		Model:    model,
		Provider: e.registry.ResolveProvider(model),
	}

	switch task.AgentType {
	case models.AgentTypeDeployment:
		return e.handleDeployment(ctx, task, req)
	case models.AgentTypeRepository:
		return e.handleRepository(ctx, task, req)
	case models.AgentTypeCode,
		models.AgentTypeTesting,
		models.AgentTypeDebugging,
		models.AgentTypeDocumentation,
		models.AgentTypeArchitecture,
		models.AgentTypeSecurity,
		models.AgentTypePerformance:
		return e.handleText(ctx, req)
	default:
		return nil, fmt.Errorf("execute: unhandled agent type %q", task.AgentType)
	}
}

// handleText covers handlers whose entire result is the model output.
// The collaborator error is returned unwrapped so it reaches the task
// record verbatim.
func (e *Executor) handleText(ctx context.Context, req provider.Request) (*models.TaskResult, error) {
	resp, err := e.capability.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}
	return &models.TaskResult{Content: resp.Content}, nil
}

// handleDeployment produces a deployment plan and, when a project is
// named in the task context and a deployer is configured, performs the
// deployment and attaches its outcome.
func (e *Executor) handleDeployment(ctx context.Context, task *models.Task, req provider.Request) (*models.TaskResult, error) {
	resp, err := e.capability.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &models.TaskResult{Content: resp.Content, Plan: resp.Content}

	projectID, _ := task.Context[ContextKeyProjectID].(string)
	if projectID == "" || e.deployer == nil {
		return result, nil
	}

	entryPoint, _ := task.Context[ContextKeyEntryPoint].(string)
	deployment, err := e.deployer.Deploy(ctx, projectID, entryPoint, task.Context)
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", projectID, err)
	}
	result.Deployment = deployment
	return result, nil
}

// handleRepository produces a repository plan and, when a repository name
// is present in the task context and a source-control collaborator is
// configured, creates the repository and attaches its URL.
func (e *Executor) handleRepository(ctx context.Context, task *models.Task, req provider.Request) (*models.TaskResult, error) {
	resp, err := e.capability.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &models.TaskResult{Content: resp.Content, Plan: resp.Content}

	name, _ := task.Context[ContextKeyRepoName].(string)
	if name == "" || e.sourceControl == nil {
		return result, nil
	}

	private, _ := task.Context[ContextKeyRepoPrivate].(bool)
	url, err := e.sourceControl.CreateRepository(ctx, name, private, task.Prompt)
	if err != nil {
		return nil, fmt.Errorf("create repository %s: %w", name, err)
	}
	result.Repository = &models.RepositoryResult{URL: url}
	return result, nil
}
