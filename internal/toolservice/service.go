// Package toolservice implements the tool service over an MCP client
// session.
package toolservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/litmusautomation/litmus-mcp-server/internal/config"
	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

const (
	DefaultConnectAttempts = 20
	DefaultConnectInterval = time.Second
)

// Service is a models.ToolService backed by one MCP session. The session
// is dialed on first use and shared by concurrent calls.
type Service struct {
	client   *mcp.Client
	dial     Dialer
	attempts int
	interval time.Duration
	ttl      time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	mu      sync.RWMutex
	session *mcp.ClientSession
	release context.CancelFunc // ends the context the session was dialed with

	cacheMu  sync.Mutex
	cached   []models.ToolSpec
	cachedAt time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithConnectRetry sets how many connection attempts are made and how far apart.
func WithConnectRetry(attempts int, interval time.Duration) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.attempts = attempts
		}
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithListTTL caches ListTools results for ttl. Zero always asks the server.
func WithListTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service that connects with dial.
func New(dial Dialer, opts ...Option) *Service {
	s := &Service{
		client:   mcp.NewClient(&mcp.Implementation{Name: "litmus-chat", Version: "1.0.0"}, nil),
		dial:     dial,
		attempts: DefaultConnectAttempts,
		interval: DefaultConnectInterval,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromConfig builds the dialer for cfg and applies its retry and cache settings.
func FromConfig(cfg config.ToolServiceConfig, httpClient *http.Client, opts ...Option) (*Service, error) {
	dial, err := NewDialer(cfg, httpClient)
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithConnectRetry(cfg.ConnectAttempts, cfg.ConnectInterval),
		WithListTTL(cfg.ListTTL),
	}
	return New(dial, append(base, opts...)...), nil
}

// connected returns the current session, dialing it if needed.
func (s *Service) connected(ctx context.Context) (*mcp.ClientSession, error) {
	s.mu.RLock()
	session := s.session
	s.mu.RUnlock()
	if session != nil {
		return session, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		return s.session, nil
	}
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	return s.session, nil
}

// dialOnce makes one connection attempt. The session runs on a context
// detached from ctx so it outlives the query that dialed it; ctx only
// bounds the handshake.
func (s *Service) dialOnce(ctx context.Context) (*mcp.ClientSession, context.CancelFunc, error) {
	sessionCtx, release := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(ctx, release)

	transport, err := s.dial(sessionCtx)
	if err != nil {
		stop()
		release()
		return nil, nil, backoff.Permanent(err)
	}
	session, err := s.client.Connect(sessionCtx, transport, nil)
	if !stop() {
		// ctx ended during the handshake.
		if session != nil {
			_ = session.Close()
		}
		release()
		return nil, nil, backoff.Permanent(ctx.Err())
	}
	if err != nil {
		release()
		return nil, nil, err
	}
	return session, release, nil
}

// connect dials with a constant backoff and installs the new session.
// Callers hold s.mu.
func (s *Service) connect(ctx context.Context) error {
	var (
		session *mcp.ClientSession
		release context.CancelFunc
	)
	attempt := 0
	op := func() error {
		attempt++
		var err error
		session, release, err = s.dialOnce(ctx)
		if err != nil {
			s.logger.Debug().Err(err).Int("attempt", attempt).Msg("tool server connect failed")
			return err
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.interval), uint64(s.attempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.logger.Error().Err(err).Int("attempts", attempt).Msg("tool server unreachable")
		return fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}
	s.logger.Info().Int("attempts", attempt).Msg("connected to tool server")
	s.session, s.release = session, release
	return nil
}

// closeLocked ends the current session. Callers hold s.mu.
func (s *Service) closeLocked() error {
	if s.session == nil {
		return nil
	}
	err := s.session.Close()
	s.release()
	s.session, s.release = nil, nil
	return err
}

// drop discards session if it is still current, so the next call redials.
func (s *Service) drop(session *mcp.ClientSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == session {
		_ = s.closeLocked()
	}
}

// ListTools returns the tools offered by the server.
func (s *Service) ListTools(ctx context.Context) ([]models.ToolSpec, error) {
	if tools, ok := s.fromCache(); ok {
		return tools, nil
	}

	session, err := s.connected(ctx)
	if err != nil {
		return nil, err
	}

	var tools []models.ToolSpec
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			if ctx.Err() == nil {
				s.drop(session)
			}
			return nil, fmt.Errorf("%w: list tools: %v", models.ErrUnavailable, err)
		}
		tools = append(tools, toToolSpec(tool))
	}

	s.store(tools)
	return tools, nil
}

func (s *Service) fromCache() ([]models.ToolSpec, bool) {
	if s.ttl <= 0 {
		return nil, false
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cached == nil || s.now().Sub(s.cachedAt) >= s.ttl {
		return nil, false
	}
	return append([]models.ToolSpec(nil), s.cached...), true
}

func (s *Service) store(tools []models.ToolSpec) {
	if s.ttl <= 0 {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cached = append([]models.ToolSpec{}, tools...)
	s.cachedAt = s.now()
}

func (s *Service) invalidate() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cached = nil
}

// CallTool runs name on the server. Results flagged as errors by the
// server and protocol failures are reported as *models.ToolExecutionError.
func (s *Service) CallTool(ctx context.Context, name string, args map[string]any) (models.ToolOutput, error) {
	session, err := s.connected(ctx)
	if err != nil {
		return models.ToolOutput{}, err
	}

	if args == nil {
		args = map[string]any{}
	}
	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return models.ToolOutput{}, err
		}
		return models.ToolOutput{}, &models.ToolExecutionError{Tool: name, Message: err.Error()}
	}

	text := joinText(result.Content)
	if result.IsError {
		return models.ToolOutput{}, &models.ToolExecutionError{Tool: name, Message: text}
	}
	return models.ToolOutput{Text: text}, nil
}

// ListResources returns the resources offered by the server.
func (s *Service) ListResources(ctx context.Context) ([]Resource, error) {
	session, err := s.connected(ctx)
	if err != nil {
		return nil, err
	}

	var resources []Resource
	for r, err := range session.Resources(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("list resources: %w", err)
		}
		resources = append(resources, toResource(r))
	}
	return resources, nil
}

// Reconnect closes the current session, if any, and dials a new one.
func (s *Service) Reconnect(ctx context.Context) error {
	s.invalidate()

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.closeLocked()
	return s.connect(ctx)
}

// Connected reports whether a session is currently open.
func (s *Service) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil
}

// Close ends the session. The service dials again on next use.
func (s *Service) Close() error {
	s.invalidate()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}
