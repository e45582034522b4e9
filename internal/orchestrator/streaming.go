package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync/atomic"
	"time"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	provider "github.com/litmusautomation/litmus-mcp-server/internal/provider/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	toolMarkerPrefix = "\n[Tool: "
	toolMarkerSuffix = "]\n"
)

// ToolMarker returns the chunk announcing a tool invocation inside a stream.
func ToolMarker(name string) string {
	return toolMarkerPrefix + name + toolMarkerSuffix
}

// IsToolMarker reports whether chunk is a tool marker rather than model text.
func IsToolMarker(chunk string) bool {
	return strings.HasPrefix(chunk, toolMarkerPrefix) && strings.HasSuffix(chunk, toolMarkerSuffix)
}

// ToolMarkerName returns the tool announced by a marker chunk.
func ToolMarkerName(chunk string) (string, bool) {
	if !IsToolMarker(chunk) {
		return "", false
	}
	return chunk[len(toolMarkerPrefix) : len(chunk)-len(toolMarkerSuffix)], true
}

// RunQueryStreaming answers query as a sequence of text chunks: model text as it
// arrives, plus one ToolMarker per tool call before the tools run.
//
// A terminal failure is delivered as a single ("", err) element and ends the
// sequence; chunks already yielded stay delivered. Breaking out of the range
// releases the provider stream and cancels in-flight tool calls. The sequence
// can be consumed once; a second range yields ErrStreamConsumed.
func (o *Orchestrator) RunQueryStreaming(ctx context.Context, query string, history []models.Message, p provider.Provider) iter.Seq2[string, error] {
	var used atomic.Bool

	return func(yield func(string, error) bool) {
		if !used.CompareAndSwap(false, true) {
			yield("", ErrStreamConsumed)
			return
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		start := time.Now()
		ctx, span := o.startQuerySpan(ctx, p, "stream")
		defer span.End()

		q := newQueryState(query, history, p)
		err := o.runStream(ctx, q, yield)
		o.finishQuery(span, p, "stream", start, err)

		if err != nil && !errors.Is(err, errYieldStopped) {
			yield("", err)
		}
	}
}

func (o *Orchestrator) runStream(ctx context.Context, q *queryState, yield func(string, error) bool) error {
	if err := q.loadTools(ctx, o.tools); err != nil {
		return err
	}

	for turn := 1; ; turn++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		text, calls, err := o.streamTurn(ctx, q, turn, yield)
		if err != nil {
			return err
		}

		if len(calls) == 0 {
			q.appendFinal(text)
			return nil
		}
		if turn >= o.maxTurns {
			return &TurnLimitError{Limit: o.maxTurns}
		}

		calls = ensureCallIDs(calls, turn)
		mt := provider.ModelTurn{TextParts: []string{text}, ToolCalls: calls}
		q.append(mt.AssistantMessage())

		for _, call := range calls {
			if !yield(ToolMarker(call.Name), nil) {
				return errYieldStopped
			}
		}
		o.executeTools(ctx, q, calls)
	}
}

// streamTurn drains one provider stream, forwarding text deltas as they arrive
// and collecting tool calls until the turn completes.
func (o *Orchestrator) streamTurn(ctx context.Context, q *queryState, turn int, yield func(string, error) bool) (string, []models.ToolCall, error) {
	ctx, span := o.tracer.Start(ctx, "provider.turn", trace.WithAttributes(
		attribute.String("provider", q.provider.Name()),
		attribute.Int("turn", turn),
		attribute.Bool("stream", true),
	))
	defer span.End()

	o.metrics.IncProviderTurn(q.provider.Name())
	o.logger.Debug().
		Str("provider", q.provider.Name()).
		Int("turn", turn).
		Int("messages", len(q.messages)).
		Msg("provider stream turn")

	var text strings.Builder
	var calls []models.ToolCall

	for event, err := range q.provider.Stream(ctx, q.request(o.systemPrompt)) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return text.String(), nil, fmt.Errorf("provider.Stream: %w", err)
		}

		switch ev := event.(type) {
		case provider.TextDelta:
			if ev.Text == "" {
				continue
			}
			text.WriteString(ev.Text)
			q.text.WriteString(ev.Text)
			if !yield(ev.Text, nil) {
				return text.String(), nil, errYieldStopped
			}
		case provider.ToolCallRequested:
			calls = append(calls, ev.Call)
		case provider.TurnComplete:
			span.SetAttributes(attribute.Int("tool_calls", len(calls)))
			return text.String(), calls, nil
		}
	}

	// A stream that ends without TurnComplete is treated as complete.
	span.SetAttributes(attribute.Int("tool_calls", len(calls)))
	return text.String(), calls, nil
}
