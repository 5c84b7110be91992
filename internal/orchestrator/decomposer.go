package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/ShayCichocki/conductor/internal/provider"
	"github.com/ShayCichocki/conductor/pkg/models"
)

// Decomposer turns a free-form request into an intent and an ordered
// list of workflow steps via the classification collaborator.
type Decomposer struct {
	// classifier is the external classification collaborator.
	classifier provider.Classifier
}

// NewDecomposer creates a Decomposer over the given classifier.
func NewDecomposer(classifier provider.Classifier) *Decomposer {
	return &Decomposer{classifier: classifier}
}

// Decompose classifies the request and builds its steps. Each step
// depends on the immediately preceding step, producing a linear chain.
// Classification failure degrades to a single step covering the entire
// request under the code agent type; it never surfaces to the caller.
func (d *Decomposer) Decompose(ctx context.Context, message string) (provider.IntentType, []*models.Step) {
	classification, err := d.classifier.Classify(ctx, message)
	if err != nil {
		debugLog("[decomposer] classification failed, falling back to single step: %v", err)
		return provider.IntentSimple, fallbackSteps(message)
	}
	if classification.Intent == provider.IntentQuery {
		return provider.IntentQuery, nil
	}
	if len(classification.Subtasks) == 0 {
		return classification.Intent, fallbackSteps(message)
	}

	steps := make([]*models.Step, 0, len(classification.Subtasks))
	var prev *models.Step
	for _, sub := range classification.Subtasks {
		agentType := sub.AgentType
		if !agentType.Valid() {
			agentType = models.AgentTypeCode
		}
		step := &models.Step{
			ID:          uuid.New().String()[:8],
			Name:        truncate(sub.Description, 60),
			Description: sub.Description,
			AgentType:   agentType,
			Prompt:      sub.Description,
		}
		if prev != nil {
			step.DependsOn = []string{prev.ID}
		}
		steps = append(steps, step)
		prev = step
	}
	return classification.Intent, steps
}

// fallbackSteps builds the single-step degraded decomposition.
func fallbackSteps(message string) []*models.Step {
	return []*models.Step{{
		Name:        truncate(message, 60),
		Description: message,
		AgentType:   models.AgentTypeCode,
		Prompt:      message,
	}}
}

// truncate shortens s to at most n runes for display names.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
