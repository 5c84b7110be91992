package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ShayCichocki/conductor/internal/provider"
	"github.com/ShayCichocki/conductor/pkg/models"
)

// fakeClock returns a fixed time and hands out tickers that never fire,
// so scheduler loops in tests are driven purely by Kick.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) NewTicker(time.Duration) Ticker {
	return silentTicker{ch: make(chan time.Time)}
}

type silentTicker struct {
	ch chan time.Time
}

func (t silentTicker) C() <-chan time.Time { return t.ch }
func (t silentTicker) Stop()               {}

// stubCapability answers invocations from canned tables keyed by prompt.
// A gated prompt blocks inside Invoke until its gate channel is closed.
type stubCapability struct {
	mu       sync.Mutex
	replies  map[string]string
	failures map[string]string
	gates    map[string]chan struct{}
	calls    []provider.Request
}

func newStubCapability() *stubCapability {
	return &stubCapability{
		replies:  make(map[string]string),
		failures: make(map[string]string),
		gates:    make(map[string]chan struct{}),
	}
}

func (s *stubCapability) reply(prompt, content string) {
	s.mu.Lock()
	s.replies[prompt] = content
	s.mu.Unlock()
}

func (s *stubCapability) fail(prompt, msg string) {
	s.mu.Lock()
	s.failures[prompt] = msg
	s.mu.Unlock()
}

func (s *stubCapability) gate(prompt string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.gates[prompt] = ch
	return ch
}

func (s *stubCapability) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubCapability) Invoke(ctx context.Context, req provider.Request) (*provider.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	gate := s.gates[req.Prompt]
	failMsg, failed := s.failures[req.Prompt]
	content, ok := s.replies[req.Prompt]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failed {
		return nil, errors.New(failMsg)
	}
	if !ok {
		content = "ok: " + req.Prompt
	}
	return &provider.Response{Content: content}, nil
}

// stubClassifier returns a canned classification or error.
type stubClassifier struct {
	classification *provider.Classification
	err            error
}

func (s *stubClassifier) Classify(context.Context, string) (*provider.Classification, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.classification, nil
}

// stubSourceControl records created repository names.
type stubSourceControl struct {
	mu      sync.Mutex
	created []string
	err     error
}

func (s *stubSourceControl) CreateRepository(_ context.Context, name string, _ bool, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.created = append(s.created, name)
	return "https://git.example.com/" + name, nil
}

// stubDeployer records deployed project IDs.
type stubDeployer struct {
	mu       sync.Mutex
	deployed []string
	err      error
}

func (s *stubDeployer) Deploy(_ context.Context, projectID, _ string, _ map[string]any) (*models.DeploymentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.deployed = append(s.deployed, projectID)
	return &models.DeploymentResult{
		Success: true,
		URL:     "https://apps.example.com/" + projectID,
	}, nil
}

// collectEvents subscribes a buffered channel to the given kinds.
// Subscribe before triggering the behavior under test.
func collectEvents(bus *Bus, kinds ...EventKind) chan Event {
	ch := make(chan Event, 64)
	for _, kind := range kinds {
		bus.Subscribe(kind, func(evt Event) {
			ch <- evt
		})
	}
	return ch
}

// nextEvent waits for one event or fails the test.
func nextEvent(t *testing.T, ch chan Event) Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

// noEvent asserts that no event arrives within a short window.
func noEvent(t *testing.T, ch chan Event) {
	t.Helper()
	select {
	case evt := <-ch:
		t.Fatalf("unexpected event %s (task=%s step=%s)", evt.Kind, evt.TaskID, evt.StepID)
	case <-time.After(50 * time.Millisecond):
	}
}

// testRegistry builds a default catalog registry for tests.
func testRegistry() *AgentRegistry {
	return NewAgentRegistry(RegistryConfig{})
}
