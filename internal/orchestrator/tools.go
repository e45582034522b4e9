package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// executeTools runs every call of one turn concurrently and appends a single
// tool-result message holding one result per call, in request order.
// Failures become result text; nothing here aborts the query.
func (o *Orchestrator) executeTools(ctx context.Context, q *queryState, calls []models.ToolCall) {
	invocations := make([]models.ToolInvocation, len(calls))

	var g errgroup.Group
	g.SetLimit(o.maxParallel)
	for i, call := range calls {
		g.Go(func() error {
			invocations[i] = o.executeToolCall(ctx, q, call)
			return nil
		})
	}
	_ = g.Wait()

	parts := make([]models.Part, len(invocations))
	for i, inv := range invocations {
		parts[i] = models.ToolResultPart{
			CallID:  inv.CallID,
			Name:    inv.Name,
			Text:    inv.ResultText,
			IsError: inv.Failed,
		}
	}
	q.append(models.Message{Role: models.RoleToolResult, Parts: parts})
	q.record(invocations)
}

// executeToolCall executes a single tool call and returns the result
func (o *Orchestrator) executeToolCall(ctx context.Context, q *queryState, call models.ToolCall) models.ToolInvocation {
	ctx, span := o.tracer.Start(ctx, "tool.call", trace.WithAttributes(
		attribute.String("tool", call.Name),
		attribute.String("call_id", call.ID),
	))
	defer span.End()

	start := time.Now()
	inv := models.ToolInvocation{CallID: call.ID, Name: call.Name, Args: call.Args}

	text, err := o.callTool(ctx, q, call)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		inv.Failed = true
		inv.ResultText = "error: " + err.Error()

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.Warn().Err(err).Str("tool", call.Name).Str("call_id", call.ID).Msg("tool call failed")
	} else {
		inv.ResultText = text
		o.logger.Debug().Str("tool", call.Name).Str("call_id", call.ID).Int("bytes", len(text)).Msg("tool call done")
	}

	o.metrics.ObserveToolCall(call.Name, outcome, time.Since(start))
	return inv
}

func (o *Orchestrator) callTool(ctx context.Context, q *queryState, call models.ToolCall) (string, error) {
	if call.RawArgs != "" {
		return "", fmt.Errorf("invalid arguments for tool %q: expected a JSON object, got %s", call.Name, call.RawArgs)
	}
	if !q.isKnown(call.Name) {
		return "", fmt.Errorf("tool %q does not exist; available tools: %s", call.Name, q.toolNames())
	}
	if o.policy != nil {
		if err := o.policy.CheckTool(ctx, call.Name, call.Args); err != nil {
			return "", err
		}
	}

	args := call.Args
	if args == nil {
		args = map[string]any{}
	}
	out, err := o.tools.CallTool(ctx, call.Name, args)
	if err != nil {
		return "", err
	}
	return out.Text, nil
}
