// Package openai adapts the OpenAI Responses API to the provider interface.
package openai

import (
	"context"
	"iter"
	"slices"
	"strings"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	provider "github.com/litmusautomation/litmus-mcp-server/internal/provider/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

const (
	Name         = "openai"
	DefaultModel = "gpt-4o"
)

// chatPrefixes selects chat-capable models from the full model list.
var chatPrefixes = []string{"gpt-", "o1-", "o3-", "o4-"}

// Options are the tunables accepted under [provider.openai.options].
type Options struct {
	MaxTokens   int      `mapstructure:"max_tokens"`
	Temperature *float64 `mapstructure:"temperature"`
	BaseURL     string   `mapstructure:"base_url"`
}

// OpenAIProvider implements the Provider interface over the Responses API.
type OpenAIProvider struct {
	client OpenAIClient
	model  string
	opts   Options
}

// NewOpenAIProvider creates a provider for model, falling back to DefaultModel.
func NewOpenAIProvider(client OpenAIClient, model string, opts Options) *OpenAIProvider {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIProvider{client: client, model: model, opts: opts}
}

func (p *OpenAIProvider) Name() string  { return Name }
func (p *OpenAIProvider) Model() string { return p.model }

func (p *OpenAIProvider) params(req *provider.Request) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(p.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: toInputItems(req.System, req.Messages),
		},
		Tools: toTools(req.Tools),
	}
	if p.opts.Temperature != nil {
		params.Temperature = openai.Float(*p.opts.Temperature)
	}
	if p.opts.MaxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(p.opts.MaxTokens))
	}
	return params
}

// Complete performs one Responses API round trip.
func (p *OpenAIProvider) Complete(ctx context.Context, req *provider.Request) (*provider.ModelTurn, error) {
	resp, err := p.client.NewResponse(ctx, p.params(req))
	if err != nil {
		return nil, mapError(err)
	}
	return fromResponse(resp), nil
}

// Stream opens a streamed response. Output text deltas are forwarded as they
// arrive and function calls once their output item is done.
func (p *OpenAIProvider) Stream(ctx context.Context, req *provider.Request) iter.Seq2[provider.StreamEvent, error] {
	return func(yield func(provider.StreamEvent, error) bool) {
		stream := p.client.NewResponseStream(ctx, p.params(req))
		defer stream.Close()

		var calls []models.ToolCall
		var usage provider.Usage

	read:
		for stream.Next() {
			event := stream.Current()
			switch event.Type {
			case "response.output_text.delta":
				if event.Delta != "" && !yield(provider.TextDelta{Text: event.Delta}, nil) {
					return
				}
			case "response.output_item.done":
				if event.Item.Type == "function_call" {
					calls = append(calls, fromFunctionCall(event.Item.AsFunctionCall()))
				}
			case "response.completed", "response.incomplete":
				usage = provider.Usage{
					InputTokens:  int(event.Response.Usage.InputTokens),
					OutputTokens: int(event.Response.Usage.OutputTokens),
				}
				break read
			case "response.failed":
				yield(nil, failedResponse(event.Response))
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield(nil, mapError(err))
			return
		}

		reason := provider.StopReasonDone
		if len(calls) > 0 {
			reason = provider.StopReasonToolCall
		}
		for _, call := range calls {
			if !yield(provider.ToolCallRequested{Call: call}, nil) {
				return
			}
		}
		yield(provider.TurnComplete{StopReason: reason, Usage: usage}, nil)
	}
}

// ListModels returns chat-capable models, sorted descending so newer
// versions come first.
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	ids, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	var chat []string
	for _, id := range ids {
		if isChatModel(id) {
			chat = append(chat, id)
		}
	}
	slices.Sort(chat)
	slices.Reverse(chat)

	out := make([]provider.ModelInfo, 0, len(chat))
	for _, id := range chat {
		out = append(out, provider.ModelInfo{ID: id, DisplayName: id})
	}
	return out, nil
}

func isChatModel(id string) bool {
	for _, excluded := range []string{"audio", "realtime", "transcribe", "tts", "image", "search"} {
		if strings.Contains(id, excluded) {
			return false
		}
	}
	for _, prefix := range chatPrefixes {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}
