package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ShayCichocki/conductor/internal/config"
	"github.com/ShayCichocki/conductor/internal/provider"
	"github.com/ShayCichocki/conductor/pkg/models"
)

// MessageResult is the outcome of processing a free-form request.
type MessageResult struct {
	// Response is the direct answer for query intents, or an
	// acknowledgement for workflow intents.
	Response string
	// Workflow is a snapshot of the spawned workflow, nil for queries.
	Workflow *models.Workflow
	// SpawnedTaskIDs lists the tasks spawned for initially-ready steps.
	SpawnedTaskIDs []string
}

// Orchestrator wires the registry, store, scheduler, executor, engine,
// bus, and decomposer into one unit. Construct one per process or test;
// there is no package-level shared state.
type Orchestrator struct {
	cfg        *config.Config
	bus        *Bus
	store      *TaskStore
	registry   *AgentRegistry
	executor   *Executor
	scheduler  *Scheduler
	engine     *Engine
	decomposer *Decomposer
	logger     *DebugLogger

	cancel  context.CancelFunc
	done    chan struct{}
	started bool
	mu      sync.Mutex
}

// New creates an Orchestrator from the given configuration and
// collaborators. capability and classifier are required; other
// collaborators are supplied via options.
func New(cfg *config.Config, capability provider.CapabilityService, classifier provider.Classifier, opts ...Option) *Orchestrator {
	if cfg == nil {
		cfg = config.Default()
	}

	o := &orchestratorOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if o.registry == nil {
		o.registry = NewAgentRegistry(RegistryConfig{
			DefaultModel:     cfg.Models.Default,
			DefaultProvider:  cfg.Models.DefaultProvider,
			PreferOpenSource: cfg.Models.PreferOpenSource,
		})
	}
	if o.bus == nil {
		o.bus = NewBus()
	}
	if o.logger == nil {
		o.logger = NopLogger()
	}
	setPackageLogger(o.logger)

	store := NewTaskStore()
	executor := NewExecutor(o.registry, capability, o.sourceControl, o.deployer)
	scheduler := NewScheduler(store, executor, o.bus, SchedulerConfig{
		MaxConcurrentTasks: cfg.Scheduler.MaxConcurrentTasks,
		TickInterval:       cfg.Scheduler.TickInterval,
		Clock:              o.clock,
	})
	engine := NewEngine(store, o.registry, o.bus, scheduler.Kick)

	return &Orchestrator{
		cfg:        cfg,
		bus:        o.bus,
		store:      store,
		registry:   o.registry,
		executor:   executor,
		scheduler:  scheduler,
		engine:     engine,
		decomposer: NewDecomposer(classifier),
		logger:     o.logger,
	}
}

// Start launches the scheduling loop. It returns immediately; call Close
// to stop the loop and wait for in-flight tasks.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		return
	}
	o.started = true

	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.done = make(chan struct{})
	go func() {
		defer close(o.done)
		o.scheduler.Run(runCtx)
	}()
}

// Close stops the scheduling loop and waits for in-flight task
// goroutines to finish.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.started {
		return
	}
	o.cancel()
	<-o.done
	o.started = false
}

// Subscribe registers a listener for the given event kind.
func (o *Orchestrator) Subscribe(kind EventKind, fn Listener) Subscription {
	return o.bus.Subscribe(kind, fn)
}

// Unsubscribe removes a previously registered listener.
func (o *Orchestrator) Unsubscribe(sub Subscription) {
	o.bus.Unsubscribe(sub)
}

// SubmitTask enqueues an ad-hoc task for the given agent type. The agent
// must be registered; dependencies must name existing tasks.
func (o *Orchestrator) SubmitTask(agentType models.AgentType, prompt string, taskContext map[string]any, dependsOn []string) (*models.Task, error) {
	agent, err := o.registry.Lookup(agentType)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:        uuid.New().String()[:8],
		AgentID:   agent.ID,
		AgentType: agentType,
		Prompt:    prompt,
		Context:   taskContext,
		DependsOn: dependsOn,
	}
	if err := o.store.Enqueue(task); err != nil {
		return nil, err
	}
	o.scheduler.Kick()

	submitted, _ := o.store.Get(task.ID)
	return submitted, nil
}

// Task returns a snapshot of the task with the given ID.
func (o *Orchestrator) Task(id string) (*models.Task, bool) {
	return o.store.Get(id)
}

// WorkflowStatus returns a snapshot of the workflow with the given ID.
func (o *Orchestrator) WorkflowStatus(id string) (*models.Workflow, bool) {
	return o.engine.WorkflowStatus(id)
}

// CancelWorkflow marks a workflow failed. Best effort: in-flight tasks
// are not interrupted.
func (o *Orchestrator) CancelWorkflow(id string) error {
	return o.engine.CancelWorkflow(id)
}

// ProcessMessage decomposes a free-form request. A query intent is
// answered with a single direct capability call and no workflow. Any
// other intent builds a workflow of linearly chained steps, starts it,
// and returns an acknowledgement with the workflow snapshot and the
// initially spawned task IDs.
func (o *Orchestrator) ProcessMessage(ctx context.Context, message, projectID string) (*MessageResult, error) {
	intent, steps := o.decomposer.Decompose(ctx, message)

	if intent == provider.IntentQuery {
		task := &models.Task{
			AgentType: models.AgentTypeCode,
			Prompt:    message,
			Context:   projectContext(projectID),
		}
		result, err := o.executor.Execute(ctx, task)
		if err != nil {
			return nil, fmt.Errorf("answer query: %w", err)
		}
		return &MessageResult{Response: result.Content}, nil
	}

	for _, step := range steps {
		if projectID != "" {
			if step.Context == nil {
				step.Context = make(map[string]any)
			}
			step.Context[ContextKeyProjectID] = projectID
		}
	}

	wf, err := o.engine.CreateWorkflow(truncate(message, 60), message, steps)
	if err != nil {
		return nil, fmt.Errorf("create workflow: %w", err)
	}
	if err := o.engine.StartWorkflow(wf.ID); err != nil {
		return nil, fmt.Errorf("start workflow: %w", err)
	}

	snapshot, _ := o.engine.WorkflowStatus(wf.ID)
	var spawned []string
	for _, step := range snapshot.Steps {
		if step.TaskID != "" {
			spawned = append(spawned, step.TaskID)
		}
	}

	return &MessageResult{
		Response:       fmt.Sprintf("Started workflow %s with %d steps", wf.ID, len(snapshot.Steps)),
		Workflow:       snapshot,
		SpawnedTaskIDs: spawned,
	}, nil
}

// WaitForWorkflow blocks until the workflow reaches a terminal state or
// the context is cancelled, and returns the final snapshot.
func (o *Orchestrator) WaitForWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	terminal := make(chan struct{}, 1)
	notify := func(evt Event) {
		if evt.WorkflowID == id {
			select {
			case terminal <- struct{}{}:
			default:
			}
		}
	}
	subCompleted := o.bus.Subscribe(EventWorkflowCompleted, notify)
	subFailed := o.bus.Subscribe(EventWorkflowFailed, notify)
	defer o.bus.Unsubscribe(subCompleted)
	defer o.bus.Unsubscribe(subFailed)

	// The workflow may already be terminal.
	wf, ok := o.engine.WorkflowStatus(id)
	if !ok {
		return nil, fmt.Errorf("wait: %w: %s", ErrUnknownWorkflow, id)
	}
	if wf.Status.Terminal() {
		return wf, nil
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-terminal:
		wf, _ := o.engine.WorkflowStatus(id)
		return wf, nil
	}
}

// projectContext builds the task context payload for a project-scoped
// request.
func projectContext(projectID string) map[string]any {
	if projectID == "" {
		return nil
	}
	return map[string]any{ContextKeyProjectID: projectID}
}
