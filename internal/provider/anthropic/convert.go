package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	provider "github.com/litmusautomation/litmus-mcp-server/internal/provider/models"
)

// toMessageParams converts the conversation to Messages API params. Tool
// results go back as a user message of tool_result blocks keyed by tool_use_id.
func toMessageParams(messages []models.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Parts))
		for _, part := range msg.Parts {
			switch p := part.(type) {
			case models.TextPart:
				if p.Text != "" {
					blocks = append(blocks, anthropic.NewTextBlock(p.Text))
				}
			case models.ToolCallPart:
				input := p.Call.Args
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(p.Call.ID, input, p.Call.Name))
			case models.ToolResultPart:
				blocks = append(blocks, anthropic.NewToolResultBlock(p.CallID, p.Text, p.IsError))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		if msg.Role == models.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

// toTools converts tool specs. The input schema's properties and required
// list are forwarded; its type is always object.
func toTools(specs []models.ToolSpec) []anthropic.ToolUnionParam {
	if len(specs) == 0 {
		return nil
	}
	tools := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		schema := anthropic.ToolInputSchemaParam{}
		if props, ok := spec.InputSchema["properties"]; ok {
			schema.Properties = props
		}
		schema.Required = stringList(spec.InputSchema["required"])

		tool := &anthropic.ToolParam{
			Name:        spec.Name,
			InputSchema: schema,
		}
		if spec.Description != "" {
			tool.Description = anthropic.String(spec.Description)
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: tool})
	}
	return tools
}

func stringList(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}

// fromMessage converts a complete response. Tool calls count only when the
// stop reason is tool_use.
func fromMessage(msg *anthropic.Message) *provider.ModelTurn {
	turn := &provider.ModelTurn{
		StopReason: provider.StopReasonDone,
		Usage: provider.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}
	var calls []models.ToolCall
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if block.Text != "" {
				turn.TextParts = append(turn.TextParts, block.Text)
			}
		case "tool_use":
			calls = append(calls, provider.DecodeToolCall(block.ID, block.Name, block.Input))
		}
	}
	if msg.StopReason == anthropic.StopReasonToolUse && len(calls) > 0 {
		turn.ToolCalls = calls
		turn.StopReason = provider.StopReasonToolCall
	}
	return turn
}

// mapError maps SDK errors to provider errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return provider.NetworkError(Name, err)
	}

	pe := provider.FromStatus(Name, apiErr.StatusCode, http.StatusText(apiErr.StatusCode), err)
	switch {
	case apiErr.StatusCode == http.StatusBadRequest && strings.Contains(apiErr.RawJSON(), "prompt is too long"):
		pe.Code, pe.Message = provider.ErrorCodeContextLength, "prompt is too long"
	case apiErr.StatusCode == 529:
		pe.Message = "overloaded"
	}
	if pe.Retryable && apiErr.Response != nil {
		pe.RetryAfter = retryAfter(apiErr.Response.Header)
	}
	return pe
}

func retryAfter(h http.Header) *time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return nil
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	d := time.Duration(secs) * time.Second
	return &d
}
