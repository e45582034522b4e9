package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	provider "github.com/litmusautomation/litmus-mcp-server/internal/provider/models"
	"github.com/litmusautomation/litmus-mcp-server/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultMaxTurns         = 10
	DefaultMaxParallelTools = 4
	DefaultSystemPrompt     = "Respond to the question to the best of your abilities. Use the appropriate tools to solve the problem, if any."
)

// Orchestrator runs the turn loop between a model provider and the tool service.
// It holds no per-query state and is safe for concurrent queries.
type Orchestrator struct {
	tools        models.ToolService
	policy       models.PolicyService
	systemPrompt string
	maxTurns     int
	maxParallel  int
	logger       zerolog.Logger
	metrics      *telemetry.Metrics
	tracer       trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxTurns bounds the number of provider calls per query.
func WithMaxTurns(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxTurns = n
		}
	}
}

// WithMaxParallelTools bounds concurrent tool calls within one turn.
func WithMaxParallelTools(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxParallel = n
		}
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(o *Orchestrator) { o.systemPrompt = prompt }
}

func WithPolicy(p models.PolicyService) Option {
	return func(o *Orchestrator) { o.policy = p }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// New creates a new Orchestrator instance
func New(tools models.ToolService, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		tools:        tools,
		systemPrompt: DefaultSystemPrompt,
		maxTurns:     DefaultMaxTurns,
		maxParallel:  DefaultMaxParallelTools,
		logger:       zerolog.Nop(),
		tracer:       telemetry.Tracer(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunQuery answers query in one blocking call, running tools as the model requests them.
// On a terminal error the returned turn still carries the text and tool
// invocations gathered before the failure.
func (o *Orchestrator) RunQuery(ctx context.Context, query string, history []models.Message, p provider.Provider) (*models.ConversationTurn, error) {
	start := time.Now()
	ctx, span := o.startQuerySpan(ctx, p, "complete")
	defer span.End()

	q := newQueryState(query, history, p)
	err := o.runComplete(ctx, q)
	q.seal()

	o.finishQuery(span, p, "complete", start, err)
	return q.turn, err
}

func (o *Orchestrator) runComplete(ctx context.Context, q *queryState) error {
	if err := q.loadTools(ctx, o.tools); err != nil {
		return err
	}

	for turn := 1; ; turn++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		mt, err := o.complete(ctx, q, turn)
		if err != nil {
			return err
		}
		for _, text := range mt.TextParts {
			q.text.WriteString(text)
		}

		if !mt.WantsTools() {
			q.appendFinal(mt.Text())
			return nil
		}
		if turn >= o.maxTurns {
			return &TurnLimitError{Limit: o.maxTurns}
		}

		mt.ToolCalls = ensureCallIDs(mt.ToolCalls, turn)
		q.append(mt.AssistantMessage())
		o.executeTools(ctx, q, mt.ToolCalls)
	}
}

func (o *Orchestrator) complete(ctx context.Context, q *queryState, turn int) (*provider.ModelTurn, error) {
	ctx, span := o.tracer.Start(ctx, "provider.turn", trace.WithAttributes(
		attribute.String("provider", q.provider.Name()),
		attribute.Int("turn", turn),
	))
	defer span.End()

	o.metrics.IncProviderTurn(q.provider.Name())
	o.logger.Debug().
		Str("provider", q.provider.Name()).
		Int("turn", turn).
		Int("messages", len(q.messages)).
		Msg("provider turn")

	mt, err := q.provider.Complete(ctx, q.request(o.systemPrompt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("provider.Complete: %w", err)
	}
	span.SetAttributes(attribute.Int("tool_calls", len(mt.ToolCalls)))
	return mt, nil
}

func (o *Orchestrator) startQuerySpan(ctx context.Context, p provider.Provider, mode string) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, "orchestrator.query", trace.WithAttributes(
		attribute.String("provider", p.Name()),
		attribute.String("model", p.Model()),
		attribute.String("mode", mode),
	))
}

func (o *Orchestrator) finishQuery(span trace.Span, p provider.Provider, mode string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, errYieldStopped):
		outcome = "abandoned"
	case errors.Is(err, ErrTurnLimitExceeded):
		outcome = "turn_limit"
	default:
		outcome = "error"
	}

	if err != nil && outcome != "abandoned" {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.Error().Err(err).Str("provider", p.Name()).Str("mode", mode).Msg("query failed")
	}
	o.metrics.ObserveQuery(p.Name(), mode, outcome, time.Since(start))
}

// ensureCallIDs fills in missing call IDs so every result can be paired with its call.
func ensureCallIDs(calls []models.ToolCall, turn int) []models.ToolCall {
	out := make([]models.ToolCall, len(calls))
	for i, call := range calls {
		if call.ID == "" {
			call.ID = fmt.Sprintf("call_%d_%d", turn, i+1)
		}
		out[i] = call
	}
	return out
}
