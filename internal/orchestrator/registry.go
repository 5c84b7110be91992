package orchestrator

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ShayCichocki/conductor/internal/provider"
	"github.com/ShayCichocki/conductor/pkg/models"
)

// Model identifiers used in the default catalog.
const (
	// ModelSonnet is the balanced model for standard work.
	ModelSonnet = "claude-sonnet-4-20250514"
	// ModelHaiku is the lightweight, fast model for simple tasks.
	ModelHaiku = "claude-3-5-haiku-20241022"
	// ModelOpus is the most capable model for complex tasks.
	ModelOpus = "claude-opus-4-5-20251101"
	// ModelGPT4o is the OpenAI fallback for general tasks.
	ModelGPT4o = "gpt-4o"
	// ModelQwenCoder is the open-source coding model.
	ModelQwenCoder = "qwen2.5-coder"
	// ModelLlama is the open-source general model.
	ModelLlama = "llama3.3"
	// ModelDeepseek is the open-source reasoning model.
	ModelDeepseek = "deepseek-r1"
)

// openSourceFamilies lists model name prefixes belonging to known
// open-source model families.
var openSourceFamilies = []string{
	"llama",
	"codellama",
	"mistral",
	"mixtral",
	"qwen",
	"deepseek",
	"gemma",
}

// providerPrefixes maps model name prefixes to provider identifiers.
// Longer prefixes are checked before shorter ones.
var providerPrefixes = []struct {
	prefix   string
	provider string
}{
	{"claude", provider.ProviderAnthropic},
	{"gpt", provider.ProviderOpenAI},
	{"o1", provider.ProviderOpenAI},
	{"o3", provider.ProviderOpenAI},
	{"gemini", provider.ProviderGoogle},
	{"llama", provider.ProviderOllama},
	{"codellama", provider.ProviderOllama},
	{"mistral", provider.ProviderOllama},
	{"mixtral", provider.ProviderOllama},
	{"qwen", provider.ProviderOllama},
	{"deepseek", provider.ProviderOllama},
	{"gemma", provider.ProviderOllama},
}

// defaultCatalogModels holds the preferred-model lists for the default
// agent catalog, in preference order.
var defaultCatalogModels = map[models.AgentType][]string{
	models.AgentTypeCode:          {ModelSonnet, ModelGPT4o, ModelQwenCoder},
	models.AgentTypeDeployment:    {ModelSonnet, ModelHaiku},
	models.AgentTypeRepository:    {ModelHaiku, ModelSonnet},
	models.AgentTypeTesting:       {ModelSonnet, ModelQwenCoder},
	models.AgentTypeDebugging:     {ModelSonnet, ModelDeepseek},
	models.AgentTypeDocumentation: {ModelHaiku, ModelLlama},
	models.AgentTypeArchitecture:  {ModelOpus, ModelSonnet},
	models.AgentTypeSecurity:      {ModelOpus, ModelSonnet},
	models.AgentTypePerformance:   {ModelSonnet, ModelDeepseek},
}

// RegistryConfig contains settings for agent model and provider resolution.
type RegistryConfig struct {
	// DefaultModel is used when an agent lists no preferred models.
	DefaultModel string
	// DefaultProvider is used for models with no known prefix.
	DefaultProvider string
	// PreferOpenSource selects the first open-source preferred model
	// when an agent lists one.
	PreferOpenSource bool
}

// AgentRegistry is the static catalog of capability profiles. It resolves
// agent types to agents, agents to models, and models to providers.
// It has no side effects beyond registration.
type AgentRegistry struct {
	// agents maps agent types to their registered profile.
	agents map[models.AgentType]*models.Agent
	// cfg holds resolution settings.
	cfg RegistryConfig
	// mu protects agents.
	mu sync.RWMutex
}

// NewAgentRegistry creates a registry pre-seeded with the default catalog:
// one active agent per known agent type.
func NewAgentRegistry(cfg RegistryConfig) *AgentRegistry {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = ModelSonnet
	}
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = provider.ProviderAnthropic
	}

	r := &AgentRegistry{
		agents: make(map[models.AgentType]*models.Agent),
		cfg:    cfg,
	}
	for _, at := range models.AllAgentTypes {
		r.agents[at] = &models.Agent{
			ID:              uuid.New().String()[:8],
			Type:            at,
			PreferredModels: defaultCatalogModels[at],
			Active:          true,
		}
	}
	return r
}

// NewEmptyAgentRegistry creates a registry with no agents, for hosts that
// build their own catalog.
func NewEmptyAgentRegistry(cfg RegistryConfig) *AgentRegistry {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = ModelSonnet
	}
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = provider.ProviderAnthropic
	}
	return &AgentRegistry{
		agents: make(map[models.AgentType]*models.Agent),
		cfg:    cfg,
	}
}

// Register adds an agent profile to the catalog. Agents are immutable
// after registration; registering an already-present type is an error.
func (r *AgentRegistry) Register(a *models.Agent) error {
	if !a.Type.Valid() {
		return fmt.Errorf("register: invalid agent type %q", a.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[a.Type]; exists {
		return fmt.Errorf("register: %w: %s", ErrDuplicateAgent, a.Type)
	}
	r.agents[a.Type] = a
	return nil
}

// Lookup returns the active agent for the given type.
func (r *AgentRegistry) Lookup(agentType models.AgentType) (*models.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[agentType]
	if !ok || !a.Active {
		return nil, fmt.Errorf("lookup %q: %w", agentType, ErrAgentNotFound)
	}
	return a, nil
}

// All returns the registered agents in catalog type order.
func (r *AgentRegistry) All() []*models.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Agent, 0, len(r.agents))
	for _, at := range models.AllAgentTypes {
		if a, ok := r.agents[at]; ok {
			out = append(out, a)
		}
	}
	return out
}

// SelectModel chooses the model for an agent. With open-source preference
// enabled the first preferred model from a known open-source family wins;
// otherwise the first preferred model; otherwise the configured default.
func (r *AgentRegistry) SelectModel(a *models.Agent) string {
	if a == nil || len(a.PreferredModels) == 0 {
		return r.cfg.DefaultModel
	}

	if r.cfg.PreferOpenSource {
		for _, m := range a.PreferredModels {
			if isOpenSourceModel(m) {
				return m
			}
		}
	}
	return a.PreferredModels[0]
}

// ResolveProvider maps a model identifier to a provider via a prefix
// table. Unmapped names fall back to the configured default provider.
func (r *AgentRegistry) ResolveProvider(model string) string {
	name := strings.ToLower(model)
	best := ""
	prov := r.cfg.DefaultProvider
	for _, entry := range providerPrefixes {
		if strings.HasPrefix(name, entry.prefix) && len(entry.prefix) > len(best) {
			best = entry.prefix
			prov = entry.provider
		}
	}
	return prov
}

// isOpenSourceModel reports whether the model name belongs to a known
// open-source family.
func isOpenSourceModel(model string) bool {
	name := strings.ToLower(model)
	for _, family := range openSourceFamilies {
		if strings.HasPrefix(name, family) {
			return true
		}
	}
	return false
}
