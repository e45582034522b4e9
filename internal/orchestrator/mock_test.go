package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	provider "github.com/litmusautomation/litmus-mcp-server/internal/provider/models"
)

// MockToolService is a mock implementation of models.ToolService for testing.
type MockToolService struct {
	ListToolsFunc func(ctx context.Context) ([]models.ToolSpec, error)
	CallToolFunc  func(ctx context.Context, name string, args map[string]any) (models.ToolOutput, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockToolService) ListTools(ctx context.Context) ([]models.ToolSpec, error) {
	if m.ListToolsFunc != nil {
		return m.ListToolsFunc(ctx)
	}
	return nil, errors.New("ListToolsFunc not set")
}

func (m *MockToolService) CallTool(ctx context.Context, name string, args map[string]any) (models.ToolOutput, error) {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()
	if m.CallToolFunc != nil {
		return m.CallToolFunc(ctx, name, args)
	}
	return models.ToolOutput{}, errors.New("CallToolFunc not set")
}

func (m *MockToolService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// toolsNamed returns a tool service offering the named tools.
func toolsNamed(call func(ctx context.Context, name string, args map[string]any) (models.ToolOutput, error), names ...string) *MockToolService {
	specs := make([]models.ToolSpec, len(names))
	for i, n := range names {
		specs[i] = models.ToolSpec{Name: n, Description: n, InputSchema: map[string]any{"type": "object"}}
	}
	return &MockToolService{
		ListToolsFunc: func(ctx context.Context) ([]models.ToolSpec, error) { return specs, nil },
		CallToolFunc:  call,
	}
}

// MockProvider is a mock implementation of provider.Provider for testing.
type MockProvider struct {
	CompleteFunc func(ctx context.Context, req *provider.Request) (*provider.ModelTurn, error)
	StreamFunc   func(ctx context.Context, req *provider.Request) iter.Seq2[provider.StreamEvent, error]
}

func (m *MockProvider) Name() string  { return "mock" }
func (m *MockProvider) Model() string { return "mock-model" }

func (m *MockProvider) Complete(ctx context.Context, req *provider.Request) (*provider.ModelTurn, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return nil, errors.New("CompleteFunc not set")
}

func (m *MockProvider) Stream(ctx context.Context, req *provider.Request) iter.Seq2[provider.StreamEvent, error] {
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, req)
	}
	return func(yield func(provider.StreamEvent, error) bool) {
		yield(nil, errors.New("StreamFunc not set"))
	}
}

// scriptedProvider replays the same turns through Complete and Stream.
// Every request is checked for dangling tool calls and recorded.
type scriptedProvider struct {
	MockProvider

	turns    []*provider.ModelTurn
	chunk    int // stream text in chunks of this many bytes; 0 streams each part whole
	mu       sync.Mutex
	requests [][]models.Message
	next     int
	released atomic.Int32
	dangling error
}

func newScripted(turns ...*provider.ModelTurn) *scriptedProvider {
	s := &scriptedProvider{turns: turns}
	s.CompleteFunc = func(ctx context.Context, req *provider.Request) (*provider.ModelTurn, error) {
		turn, err := s.take(req)
		if err != nil {
			return nil, err
		}
		copied := *turn
		return &copied, nil
	}
	s.StreamFunc = func(ctx context.Context, req *provider.Request) iter.Seq2[provider.StreamEvent, error] {
		return func(yield func(provider.StreamEvent, error) bool) {
			defer s.released.Add(1)
			turn, err := s.take(req)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, ev := range turnEvents(turn, s.chunk) {
				if !yield(ev, nil) {
					return
				}
			}
		}
	}
	return s
}

func (s *scriptedProvider) take(req *provider.Request) (*provider.ModelTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, models.CloneMessages(req.Messages))
	if err := checkNoDangling(req.Messages); err != nil && s.dangling == nil {
		s.dangling = err
	}
	if s.next >= len(s.turns) {
		return nil, fmt.Errorf("unexpected provider call %d", s.next+1)
	}
	turn := s.turns[s.next]
	s.next++
	return turn, nil
}

func (s *scriptedProvider) Requests() [][]models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// turnEvents converts a turn into the events a streaming vendor would send.
func turnEvents(turn *provider.ModelTurn, chunk int) []provider.StreamEvent {
	var events []provider.StreamEvent
	for _, text := range turn.TextParts {
		if chunk <= 0 {
			events = append(events, provider.TextDelta{Text: text})
			continue
		}
		for len(text) > 0 {
			n := min(chunk, len(text))
			events = append(events, provider.TextDelta{Text: text[:n]})
			text = text[n:]
		}
	}
	for _, call := range turn.ToolCalls {
		events = append(events, provider.ToolCallRequested{Call: call})
	}
	return append(events, provider.TurnComplete{StopReason: turn.StopReason})
}

// checkNoDangling verifies every tool call has a result before the next assistant message.
func checkNoDangling(messages []models.Message) error {
	pending := map[string]bool{}
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleAssistant:
			if len(pending) > 0 {
				return fmt.Errorf("assistant message with %d unanswered tool calls", len(pending))
			}
			for _, call := range msg.ToolCalls() {
				pending[call.ID] = true
			}
		case models.RoleToolResult:
			for _, r := range msg.ToolResults() {
				if !pending[r.CallID] {
					return fmt.Errorf("result for unknown call %q", r.CallID)
				}
				delete(pending, r.CallID)
			}
		}
	}
	if len(pending) > 0 {
		return fmt.Errorf("%d unanswered tool calls", len(pending))
	}
	return nil
}

func textTurn(parts ...string) *provider.ModelTurn {
	return &provider.ModelTurn{TextParts: parts, StopReason: provider.StopReasonDone}
}

func toolTurn(text string, calls ...models.ToolCall) *provider.ModelTurn {
	turn := &provider.ModelTurn{ToolCalls: calls, StopReason: provider.StopReasonToolCall}
	if text != "" {
		turn.TextParts = []string{text}
	}
	return turn
}

func reqCall(id, name string, args map[string]any) models.ToolCall {
	if args == nil {
		args = map[string]any{}
	}
	return models.ToolCall{ID: id, Name: name, Args: args}
}
