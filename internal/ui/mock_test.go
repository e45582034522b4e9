package ui

import (
	"context"
	"iter"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	provider "github.com/litmusautomation/litmus-mcp-server/internal/provider/models"
)

type MockMarkdownRenderer struct {
	RenderFunc func(string, int) (string, error)
}

func (m *MockMarkdownRenderer) Render(content string, width int) (string, error) {
	if m.RenderFunc != nil {
		return m.RenderFunc(content, width)
	}
	return content, nil
}

func mockSpinnerFactory() spinner.Model {
	return spinner.New()
}

// MockConversation implements Conversation for testing.
type MockConversation struct {
	StreamFunc      func(ctx context.Context, query string) iter.Seq2[string, error]
	ClearFunc       func(ctx context.Context) error
	ModelsFunc      func(ctx context.Context) ([]string, error)
	SwitchModelFunc func(model string) error
	Name            string

	mu      sync.Mutex
	queries []string
}

func (m *MockConversation) Stream(ctx context.Context, query string) iter.Seq2[string, error] {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, query)
	}
	return chunks("ok")
}

func (m *MockConversation) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

func (m *MockConversation) Clear(ctx context.Context) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx)
	}
	return nil
}

func (m *MockConversation) Models(ctx context.Context) ([]string, error) {
	if m.ModelsFunc != nil {
		return m.ModelsFunc(ctx)
	}
	return nil, nil
}

func (m *MockConversation) SwitchModel(model string) error {
	if m.SwitchModelFunc != nil {
		if err := m.SwitchModelFunc(model); err != nil {
			return err
		}
	}
	m.Name = "mock/" + model
	return nil
}

func (m *MockConversation) ModelName() string { return m.Name }

// chunks yields each part, then ends.
func chunks(parts ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range parts {
			if !yield(p, nil) {
				return
			}
		}
	}
}

// chunksThenError yields parts, then a terminal error.
func chunksThenError(err error, parts ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range parts {
			if !yield(p, nil) {
				return
			}
		}
		yield("", err)
	}
}

// MockRunner implements Runner for testing.
type MockRunner struct {
	Chunks      []string
	Err         error
	LastHistory []models.Message
	LastQuery   string
}

func (m *MockRunner) RunQueryStreaming(ctx context.Context, query string, history []models.Message, p provider.Provider) iter.Seq2[string, error] {
	m.LastQuery, m.LastHistory = query, history
	if m.Err != nil {
		return chunksThenError(m.Err, m.Chunks...)
	}
	return chunks(m.Chunks...)
}

type stubProvider struct{ name, model string }

func (s *stubProvider) Name() string  { return s.name }
func (s *stubProvider) Model() string { return s.model }
func (s *stubProvider) Complete(ctx context.Context, req *provider.Request) (*provider.ModelTurn, error) {
	return &provider.ModelTurn{}, nil
}
func (s *stubProvider) Stream(ctx context.Context, req *provider.Request) iter.Seq2[provider.StreamEvent, error] {
	return func(yield func(provider.StreamEvent, error) bool) {}
}

// MockProviders implements Providers for testing.
type MockProviders struct {
	GetErr         error
	ListModelsFunc func(ctx context.Context, name string) ([]provider.ModelInfo, error)
	SetActiveErr   error
	Active         string
	Model          string
}

func (m *MockProviders) Get(ctx context.Context, name, model string) (provider.Provider, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return &stubProvider{name: m.Active, model: m.Model}, nil
}

func (m *MockProviders) ListModels(ctx context.Context, name string) ([]provider.ModelInfo, error) {
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx, name)
	}
	return nil, nil
}

func (m *MockProviders) SetActive(name, model string) error {
	if m.SetActiveErr != nil {
		return m.SetActiveErr
	}
	m.Active, m.Model = name, model
	return nil
}

func (m *MockProviders) ActiveName() string { return m.Active }
