// Package models defines the shared data types for the conductor system.
package models

// AgentType identifies the capability an agent provides.
type AgentType string

const (
	// AgentTypeCode handles code generation and modification tasks.
	AgentTypeCode AgentType = "code"
	// AgentTypeDeployment handles deployment planning and execution.
	AgentTypeDeployment AgentType = "deployment"
	// AgentTypeRepository handles source-control operations.
	AgentTypeRepository AgentType = "repository"
	// AgentTypeTesting handles test writing and execution planning.
	AgentTypeTesting AgentType = "testing"
	// AgentTypeDebugging handles fault diagnosis tasks.
	AgentTypeDebugging AgentType = "debugging"
	// AgentTypeDocumentation handles documentation tasks.
	AgentTypeDocumentation AgentType = "documentation"
	// AgentTypeArchitecture handles system design tasks.
	AgentTypeArchitecture AgentType = "architecture"
	// AgentTypeSecurity handles security review tasks.
	AgentTypeSecurity AgentType = "security"
	// AgentTypePerformance handles performance review tasks.
	AgentTypePerformance AgentType = "performance"
)

// AllAgentTypes lists every known agent type in a stable order.
var AllAgentTypes = []AgentType{
	AgentTypeCode,
	AgentTypeDeployment,
	AgentTypeRepository,
	AgentTypeTesting,
	AgentTypeDebugging,
	AgentTypeDocumentation,
	AgentTypeArchitecture,
	AgentTypeSecurity,
	AgentTypePerformance,
}

// Valid returns true if the agent type is a known value.
func (t AgentType) Valid() bool {
	for _, known := range AllAgentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Agent is a capability profile used to resolve how a task is executed.
// Agents are immutable after registration.
type Agent struct {
	// ID is the unique identifier for this agent.
	ID string `json:"id"`
	// Type is the capability this agent provides.
	Type AgentType `json:"type"`
	// PreferredModels lists model identifiers in preference order.
	PreferredModels []string `json:"preferred_models,omitempty"`
	// Active indicates whether the agent accepts new tasks.
	Active bool `json:"active"`
}
