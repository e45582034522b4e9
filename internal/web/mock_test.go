package web

import (
	"context"
	"iter"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	provider "github.com/litmusautomation/litmus-mcp-server/internal/provider/models"
	"github.com/litmusautomation/litmus-mcp-server/internal/toolservice"
)

// MockOrchestrator implements Orchestrator for testing.
type MockOrchestrator struct {
	RunQueryFunc func(ctx context.Context, query string, history []models.Message, p provider.Provider) (*models.ConversationTurn, error)
	StreamChunks []string
	StreamErr    error
	LastQuery    string
	LastHistory  []models.Message
	LastProvider provider.Provider
}

func (m *MockOrchestrator) RunQuery(ctx context.Context, query string, history []models.Message, p provider.Provider) (*models.ConversationTurn, error) {
	m.LastQuery, m.LastHistory, m.LastProvider = query, history, p
	if m.RunQueryFunc != nil {
		return m.RunQueryFunc(ctx, query, history, p)
	}
	return &models.ConversationTurn{FinalText: "ok", ProviderUsed: p.Name(), Model: p.Model()}, nil
}

func (m *MockOrchestrator) RunQueryStreaming(ctx context.Context, query string, history []models.Message, p provider.Provider) iter.Seq2[string, error] {
	m.LastQuery, m.LastHistory, m.LastProvider = query, history, p
	return func(yield func(string, error) bool) {
		for _, c := range m.StreamChunks {
			if !yield(c, nil) {
				return
			}
		}
		if m.StreamErr != nil {
			yield("", m.StreamErr)
		}
	}
}

type stubProvider struct {
	name, model string
}

func (s *stubProvider) Name() string  { return s.name }
func (s *stubProvider) Model() string { return s.model }

func (s *stubProvider) Complete(ctx context.Context, req *provider.Request) (*provider.ModelTurn, error) {
	return &provider.ModelTurn{StopReason: provider.StopReasonDone}, nil
}

func (s *stubProvider) Stream(ctx context.Context, req *provider.Request) iter.Seq2[provider.StreamEvent, error] {
	return func(yield func(provider.StreamEvent, error) bool) {}
}

// MockProviders implements Providers for testing.
type MockProviders struct {
	GetFunc        func(ctx context.Context, name, model string) (provider.Provider, error)
	ListModelsFunc func(ctx context.Context, name string) ([]provider.ModelInfo, error)
	SetActiveFunc  func(name, model string) error
	Active         string
	Model          string
	Configured     []string
}

func (m *MockProviders) Get(ctx context.Context, name, model string) (provider.Provider, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, name, model)
	}
	if name == "" {
		name = m.Active
	}
	if model == "" {
		model = m.Model
	}
	return &stubProvider{name: name, model: model}, nil
}

func (m *MockProviders) ListModels(ctx context.Context, name string) ([]provider.ModelInfo, error) {
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx, name)
	}
	return nil, nil
}

func (m *MockProviders) SetActive(name, model string) error {
	if m.SetActiveFunc != nil {
		if err := m.SetActiveFunc(name, model); err != nil {
			return err
		}
	}
	m.Active, m.Model = name, model
	return nil
}

func (m *MockProviders) ActiveName() string { return m.Active }

func (m *MockProviders) Names() []string { return m.Configured }

func (m *MockProviders) ResolveModel(name string) string {
	if name == m.Active {
		return m.Model
	}
	return ""
}

// MockToolServer implements ToolServer for testing.
type MockToolServer struct {
	ListToolsFunc     func(ctx context.Context) ([]models.ToolSpec, error)
	ListResourcesFunc func(ctx context.Context) ([]toolservice.Resource, error)
	ReconnectFunc     func(ctx context.Context) error
	IsConnected       bool
}

func (m *MockToolServer) ListTools(ctx context.Context) ([]models.ToolSpec, error) {
	if m.ListToolsFunc != nil {
		return m.ListToolsFunc(ctx)
	}
	return nil, nil
}

func (m *MockToolServer) ListResources(ctx context.Context) ([]toolservice.Resource, error) {
	if m.ListResourcesFunc != nil {
		return m.ListResourcesFunc(ctx)
	}
	return nil, nil
}

func (m *MockToolServer) Reconnect(ctx context.Context) error {
	if m.ReconnectFunc != nil {
		return m.ReconnectFunc(ctx)
	}
	return nil
}

func (m *MockToolServer) Connected() bool { return m.IsConnected }
