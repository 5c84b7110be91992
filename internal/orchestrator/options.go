package orchestrator

import (
	"github.com/ShayCichocki/conductor/internal/provider"
)

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*orchestratorOptions)

// orchestratorOptions holds optional construction-time configuration.
type orchestratorOptions struct {
	registry      *AgentRegistry
	bus           *Bus
	clock         Clock
	logger        *DebugLogger
	sourceControl provider.SourceControl
	deployer      provider.Deployer
}

// WithRegistry sets a custom agent registry (mainly for testing).
func WithRegistry(r *AgentRegistry) Option {
	return func(o *orchestratorOptions) { o.registry = r }
}

// WithBus sets a custom event bus shared with the host.
func WithBus(b *Bus) Option {
	return func(o *orchestratorOptions) { o.bus = b }
}

// WithClock sets the clock driving the scheduler (mainly for testing).
func WithClock(c Clock) Option {
	return func(o *orchestratorOptions) { o.clock = c }
}

// WithLogger sets the debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(o *orchestratorOptions) { o.logger = l }
}

// WithSourceControl sets the source-control collaborator used by the
// repository handler.
func WithSourceControl(sc provider.SourceControl) Option {
	return func(o *orchestratorOptions) { o.sourceControl = sc }
}

// WithDeployer sets the deployment collaborator used by the deployment
// handler.
func WithDeployer(d provider.Deployer) Option {
	return func(o *orchestratorOptions) { o.deployer = d }
}
