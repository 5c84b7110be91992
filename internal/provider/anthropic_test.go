package provider

import (
	"strings"
	"testing"

	"github.com/ShayCichocki/conductor/pkg/models"
)

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantErr  bool
	}{
		{
			name:     "bare json object",
			response: `{"intent": "query", "subtasks": []}`,
		},
		{
			name:     "json wrapped in prose",
			response: "Here is the classification:\n{\"intent\": \"simple\", \"subtasks\": [{\"description\": \"fix it\", \"agent_type\": \"code\"}]}\nHope that helps!",
		},
		{
			name:     "no json at all",
			response: "I cannot classify this request.",
			wantErr:  true,
		},
		{
			name:     "malformed json",
			response: `{"intent": "simple", "subtasks": [}`,
			wantErr:  true,
		},
		{
			name:     "unknown intent",
			response: `{"intent": "mystery", "subtasks": []}`,
			wantErr:  true,
		},
		{
			name:     "subtask without description",
			response: `{"intent": "complex", "subtasks": [{"description": "  ", "agent_type": "code"}]}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseClassification(tt.response)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", c)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c == nil {
				t.Fatal("expected classification")
			}
		})
	}
}

func TestParseClassificationFields(t *testing.T) {
	c, err := ParseClassification(`{
		"intent": "complex",
		"subtasks": [
			{"description": "design the schema", "agent_type": "architecture"},
			{"description": "write the code", "agent_type": "code"}
		]
	}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Intent != IntentComplex {
		t.Errorf("expected complex intent, got %s", c.Intent)
	}
	if len(c.Subtasks) != 2 {
		t.Fatalf("expected 2 subtasks, got %d", len(c.Subtasks))
	}
	if c.Subtasks[0].AgentType != models.AgentTypeArchitecture {
		t.Errorf("expected architecture agent, got %s", c.Subtasks[0].AgentType)
	}
	if c.Subtasks[1].Description != "write the code" {
		t.Errorf("unexpected description %q", c.Subtasks[1].Description)
	}
}

func TestBuildPrompt(t *testing.T) {
	plain := buildPrompt(Request{Prompt: "do the thing"})
	if plain != "do the thing" {
		t.Errorf("expected prompt unchanged without context, got %q", plain)
	}

	withCtx := buildPrompt(Request{
		Prompt:  "do the thing",
		Context: map[string]any{"project_id": "proj-1"},
	})
	if !strings.HasPrefix(withCtx, "do the thing") {
		t.Errorf("expected prompt to lead, got %q", withCtx)
	}
	if !strings.Contains(withCtx, "proj-1") {
		t.Errorf("expected context payload appended, got %q", withCtx)
	}
}

func TestTranslateModelForBedrock(t *testing.T) {
	if got := translateModelForBedrock("claude-sonnet-4-20250514"); !strings.HasPrefix(string(got), "us.anthropic.") {
		t.Errorf("expected bedrock inference profile, got %s", got)
	}
	// Unknown models pass through untouched.
	if got := translateModelForBedrock("custom-model"); got != "custom-model" {
		t.Errorf("expected passthrough, got %s", got)
	}
}

func TestTokenTracker(t *testing.T) {
	tracker := NewTokenTracker()
	tracker.Add(100, 50)
	tracker.Add(20, 10)

	in, out := tracker.Total()
	if in != 120 || out != 60 {
		t.Errorf("expected totals 120/60, got %d/%d", in, out)
	}
	if tracker.Calls() != 2 {
		t.Errorf("expected 2 calls, got %d", tracker.Calls())
	}
}

func TestNewAnthropicClientRequiresCredentials(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := NewAnthropicClient(ClientConfig{}); err == nil {
		t.Error("expected error without an API key")
	}

	if _, err := NewAnthropicClient(ClientConfig{APIKey: "sk-ant-test"}); err != nil {
		t.Errorf("expected client with explicit key, got %v", err)
	}
}
