package openai

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	provider "github.com/litmusautomation/litmus-mcp-server/internal/provider/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
)

// toInputItems converts the conversation to Responses API input items. The
// system prompt leads the list as a developer message; assistant tool calls
// are echoed as function_call items and results answer them by call_id.
func toInputItems(system string, messages []models.Message) []responses.ResponseInputItemUnionParam {
	items := make([]responses.ResponseInputItemUnionParam, 0, len(messages)+1)
	if system != "" {
		items = append(items, responses.ResponseInputItemParamOfMessage(system, "developer"))
	}

	for _, msg := range messages {
		for _, part := range msg.Parts {
			switch p := part.(type) {
			case models.TextPart:
				if p.Text == "" {
					continue
				}
				if msg.Role == models.RoleAssistant {
					items = append(items, responses.ResponseInputItemParamOfMessage(p.Text, "assistant"))
				} else {
					items = append(items, responses.ResponseInputItemParamOfMessage(p.Text, "user"))
				}
			case models.ToolCallPart:
				items = append(items, responses.ResponseInputItemUnionParam{
					OfFunctionCall: &responses.ResponseFunctionToolCallParam{
						CallID:    p.Call.ID,
						Name:      p.Call.Name,
						Arguments: provider.EncodeArgs(p.Call.Args),
					},
				})
			case models.ToolResultPart:
				items = append(items, responses.ResponseInputItemParamOfFunctionCallOutput(p.CallID, p.Text))
			}
		}
	}
	return items
}

// toTools converts tool specs to function tools. Strict mode is off because
// MCP schemas rarely satisfy its constraints.
func toTools(specs []models.ToolSpec) []responses.ToolUnionParam {
	if len(specs) == 0 {
		return nil
	}
	tools := make([]responses.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		schema := spec.InputSchema
		if schema == nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		fn := &responses.FunctionToolParam{
			Name:       spec.Name,
			Parameters: schema,
			Strict:     openai.Bool(false),
		}
		if spec.Description != "" {
			fn.Description = openai.String(spec.Description)
		}
		tools = append(tools, responses.ToolUnionParam{OfFunction: fn})
	}
	return tools
}

// fromResponse converts a completed response. The turn wants tools when the
// output holds function_call items.
func fromResponse(resp *responses.Response) *provider.ModelTurn {
	turn := &provider.ModelTurn{
		StopReason: provider.StopReasonDone,
		Usage: provider.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}
	for _, item := range resp.Output {
		switch item.Type {
		case "message":
			for _, content := range item.AsMessage().Content {
				if content.Type == "output_text" && content.Text != "" {
					turn.TextParts = append(turn.TextParts, content.Text)
				}
			}
		case "function_call":
			turn.ToolCalls = append(turn.ToolCalls, fromFunctionCall(item.AsFunctionCall()))
		}
	}
	if len(turn.ToolCalls) > 0 {
		turn.StopReason = provider.StopReasonToolCall
	}
	return turn
}

func fromFunctionCall(fc responses.ResponseFunctionToolCall) models.ToolCall {
	return provider.DecodeToolCall(fc.CallID, fc.Name, []byte(fc.Arguments))
}

// mapError maps SDK errors to provider errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return provider.NetworkError(Name, err)
	}

	pe := provider.FromStatus(Name, apiErr.StatusCode, apiErr.Message, err)
	switch apiErr.Code {
	case "insufficient_quota":
		pe.Code, pe.Message, pe.Retryable = provider.ErrorCodeQuota, "quota exceeded", false
	case "context_length_exceeded":
		pe.Code, pe.Message = provider.ErrorCodeContextLength, "context length exceeded"
	case "model_not_found":
		pe.Code, pe.Message = provider.ErrorCodeInvalidModel, apiErr.Message
	}
	if pe.Retryable && apiErr.Response != nil {
		if secs, err := strconv.Atoi(apiErr.Response.Header.Get("Retry-After")); err == nil {
			d := time.Duration(secs) * time.Second
			pe.RetryAfter = &d
		}
	}
	return pe
}

// failedResponse converts a response.failed event into a provider error.
func failedResponse(resp responses.Response) error {
	msg := resp.Error.Message
	if msg == "" {
		msg = "response failed"
	}
	code := http.StatusInternalServerError
	if resp.Error.Code == "rate_limit_exceeded" {
		code = http.StatusTooManyRequests
	}
	return provider.FromStatus(Name, code, msg, errors.New(msg))
}
