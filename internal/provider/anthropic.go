package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// classificationPrompt asks for a JSON decomposition of a user request.
const classificationPrompt = `Classify this user request and break it into subtasks if needed.

User request:
%s

Return ONLY a JSON object with this exact structure (no other text):
{
  "intent": "query" | "simple" | "complex",
  "subtasks": [
    {"description": "What to do", "agent_type": "code"}
  ]
}

Rules:
- "query" means the request is a question answerable directly; use an empty subtasks array
- "simple" means one subtask is enough
- "complex" means the request needs multiple ordered subtasks
- agent_type must be one of: code, deployment, repository, testing, debugging, documentation, architecture, security, performance
- Order subtasks so each builds on the previous one`

// ClientConfig contains configuration for creating an AnthropicClient.
type ClientConfig struct {
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY.
	APIKey string
	// UseBedrock routes requests through AWS Bedrock.
	UseBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
	// MaxTokens caps the response size per call. Defaults to 4096.
	MaxTokens int
}

// AnthropicClient implements CapabilityService and Classifier against
// the Anthropic API, directly or through AWS Bedrock.
type AnthropicClient struct {
	inner     anthropic.Client
	maxTokens int64
	bedrock   bool
	tracker   *TokenTracker
}

// NewAnthropicClient creates a client for the Anthropic API.
func NewAnthropicClient(cfg ClientConfig) (*AnthropicClient, error) {
	var opts []option.RequestOption

	if cfg.UseBedrock {
		ctx := context.Background()

		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &AnthropicClient{
		inner:     anthropic.NewClient(opts...),
		maxTokens: maxTokens,
		bedrock:   cfg.UseBedrock,
		tracker:   NewTokenTracker(),
	}, nil
}

// Tracker returns the token tracker for this client.
func (c *AnthropicClient) Tracker() *TokenTracker {
	return c.tracker
}

// Invoke sends a capability request and returns the text response.
func (c *AnthropicClient) Invoke(ctx context.Context, req Request) (*Response, error) {
	model := anthropic.Model(req.Model)
	if c.bedrock {
		model = translateModelForBedrock(model)
	}

	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(req))),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := c.inner.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}
	return &Response{Content: text.String()}, nil
}

// Classify sends the classification prompt and parses the structured
// response.
func (c *AnthropicClient) Classify(ctx context.Context, message string) (*Classification, error) {
	resp, err := c.Invoke(ctx, Request{
		Prompt: fmt.Sprintf(classificationPrompt, message),
		Model:  string(anthropic.ModelClaude3_5Haiku20241022),
	})
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	return ParseClassification(resp.Content)
}

// ParseClassification extracts the JSON classification object from a
// model response that may include surrounding text.
func ParseClassification(response string) (*Classification, error) {
	jsonStart := strings.Index(response, "{")
	jsonEnd := strings.LastIndex(response, "}")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd <= jsonStart {
		return nil, fmt.Errorf("no valid JSON object found in response")
	}

	var c Classification
	if err := json.Unmarshal([]byte(response[jsonStart:jsonEnd+1]), &c); err != nil {
		return nil, fmt.Errorf("parse classification: %w", err)
	}

	switch c.Intent {
	case IntentQuery, IntentSimple, IntentComplex:
	default:
		return nil, fmt.Errorf("unknown intent %q", c.Intent)
	}
	for i, sub := range c.Subtasks {
		if strings.TrimSpace(sub.Description) == "" {
			return nil, fmt.Errorf("subtask %d has no description", i)
		}
	}
	return &c, nil
}

// buildPrompt appends the task context, if any, to the prompt so the
// model sees the full payload.
func buildPrompt(req Request) string {
	if len(req.Context) == 0 {
		return req.Prompt
	}
	ctxJSON, err := json.Marshal(req.Context)
	if err != nil {
		return req.Prompt
	}
	return fmt.Sprintf("%s\n\nContext:\n%s", req.Prompt, ctxJSON)
}

// translateModelForBedrock converts standard Anthropic model names to
// Bedrock cross-region inference profile format.
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaudeSonnet4_20250514:  "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaudeOpus4_5_20251101:  "us.anthropic.claude-opus-4-5-20251101-v1:0",
		anthropic.ModelClaude3_5Haiku20241022:  "us.anthropic.claude-3-5-haiku-20241022-v1:0",
		anthropic.ModelClaude3_7Sonnet20250219: "us.anthropic.claude-3-7-sonnet-20250219-v1:0",
	}

	if bedrockModel, ok := bedrockModels[model]; ok {
		return anthropic.Model(bedrockModel)
	}
	return model
}

// TokenTracker tracks token usage across API calls.
type TokenTracker struct {
	mu        sync.Mutex
	inputTok  int64
	outputTok int64
	calls     int
}

// NewTokenTracker creates a new token tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{}
}

// Add records token usage from an API call.
func (t *TokenTracker) Add(input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok += input
	t.outputTok += output
	t.calls++
}

// Total returns the total input and output tokens tracked.
func (t *TokenTracker) Total() (input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputTok, t.outputTok
}

// Calls returns the number of API calls made.
func (t *TokenTracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Compile-time interface checks.
var (
	_ CapabilityService = (*AnthropicClient)(nil)
	_ Classifier        = (*AnthropicClient)(nil)
)
