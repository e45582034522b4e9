// Package web serves the chat API over HTTP.
package web

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"time"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	provider "github.com/litmusautomation/litmus-mcp-server/internal/provider/models"
	"github.com/litmusautomation/litmus-mcp-server/internal/session"
	"github.com/litmusautomation/litmus-mcp-server/internal/toolservice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

const Version = "1.0"

// Orchestrator runs queries against a provider.
type Orchestrator interface {
	RunQuery(ctx context.Context, query string, history []models.Message, p provider.Provider) (*models.ConversationTurn, error)
	RunQueryStreaming(ctx context.Context, query string, history []models.Message, p provider.Provider) iter.Seq2[string, error]
}

// Providers resolves and switches model providers.
type Providers interface {
	Get(ctx context.Context, name, model string) (provider.Provider, error)
	ListModels(ctx context.Context, name string) ([]provider.ModelInfo, error)
	SetActive(name, model string) error
	ActiveName() string
	ResolveModel(name string) string
	Names() []string
}

// ToolServer is the tool-service surface the info and reconnect routes need.
type ToolServer interface {
	ListTools(ctx context.Context) ([]models.ToolSpec, error)
	ListResources(ctx context.Context) ([]toolservice.Resource, error)
	Reconnect(ctx context.Context) error
	Connected() bool
}

type Server struct {
	orch      Orchestrator
	providers Providers
	tools     ToolServer
	store     session.Store
	logger    zerolog.Logger
	gatherer  prometheus.Gatherer
	mux       *http.ServeMux
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

func NewServer(orch Orchestrator, providers Providers, tools ToolServer, store session.Store, opts ...Option) *Server {
	s := &Server{
		orch:      orch,
		providers: providers,
		tools:     tools,
		store:     store,
		logger:    zerolog.Nop(),
		gatherer:  prometheus.DefaultGatherer,
		mux:       http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /chat", s.handleChat)
	s.mux.HandleFunc("POST /api/query", s.handleQuery)
	s.mux.HandleFunc("POST /clear-history", s.handleClearHistory)
	s.mux.HandleFunc("GET /api/history", s.handleHistory)
	s.mux.HandleFunc("GET /api/models", s.handleModels)
	s.mux.HandleFunc("POST /api/model", s.handleSwitchModel)
	s.mux.HandleFunc("GET /mcp-info", s.handleMCPInfo)
	s.mux.HandleFunc("POST /api/reconnect", s.handleReconnect)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}

// Handler returns the full handler chain: CORS, request logging, routes.
func (s *Server) Handler() http.Handler {
	return cors.AllowAll().Handler(s.logRequests(s.mux))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("web server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
