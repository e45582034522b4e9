// Package anthropic adapts the Anthropic Messages API to the provider interface.
package anthropic

import (
	"context"
	"iter"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	provider "github.com/litmusautomation/litmus-mcp-server/internal/provider/models"
)

const (
	Name             = "anthropic"
	DefaultModel     = "claude-3-7-sonnet-20250219"
	DefaultMaxTokens = 4096
)

// Options are the tunables accepted under [provider.anthropic.options].
type Options struct {
	MaxTokens   int      `mapstructure:"max_tokens"`
	Temperature *float64 `mapstructure:"temperature"`
}

// AnthropicProvider implements the Provider interface for Claude models.
type AnthropicProvider struct {
	client AnthropicClient
	model  string
	opts   Options
}

// NewAnthropicProvider creates a provider for model, falling back to DefaultModel.
func NewAnthropicProvider(client AnthropicClient, model string, opts Options) *AnthropicProvider {
	if model == "" {
		model = DefaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &AnthropicProvider{client: client, model: model, opts: opts}
}

func (p *AnthropicProvider) Name() string  { return Name }
func (p *AnthropicProvider) Model() string { return p.model }

func (p *AnthropicProvider) params(req *provider.Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.opts.MaxTokens),
		Messages:  toMessageParams(req.Messages),
		Tools:     toTools(req.Tools),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if p.opts.Temperature != nil {
		params.Temperature = anthropic.Float(*p.opts.Temperature)
	}
	return params
}

// Complete performs one Messages API round trip.
func (p *AnthropicProvider) Complete(ctx context.Context, req *provider.Request) (*provider.ModelTurn, error) {
	msg, err := p.client.NewMessage(ctx, p.params(req))
	if err != nil {
		return nil, mapError(err)
	}
	return fromMessage(msg), nil
}

type pendingToolUse struct {
	id, name string
	input    strings.Builder
}

// Stream opens a streamed message. Text deltas are forwarded as they arrive.
// Tool-use blocks are assembled from their partial JSON and emitted once the
// message ends with stop_reason tool_use.
func (p *AnthropicProvider) Stream(ctx context.Context, req *provider.Request) iter.Seq2[provider.StreamEvent, error] {
	return func(yield func(provider.StreamEvent, error) bool) {
		stream := p.client.NewMessageStream(ctx, p.params(req))
		defer stream.Close()

		var (
			pending = map[int64]*pendingToolUse{}
			calls   []models.ToolCall
			stop    anthropic.StopReason
			usage   provider.Usage
		)

	read:
		for stream.Next() {
			switch ev := stream.Current().AsAny().(type) {
			case anthropic.MessageStartEvent:
				usage.InputTokens = int(ev.Message.Usage.InputTokens)
			case anthropic.ContentBlockStartEvent:
				if ev.ContentBlock.Type == "tool_use" {
					pending[ev.Index] = &pendingToolUse{id: ev.ContentBlock.ID, name: ev.ContentBlock.Name}
				}
			case anthropic.ContentBlockDeltaEvent:
				switch ev.Delta.Type {
				case "text_delta":
					if ev.Delta.Text != "" && !yield(provider.TextDelta{Text: ev.Delta.Text}, nil) {
						return
					}
				case "input_json_delta":
					if tu := pending[ev.Index]; tu != nil {
						tu.input.WriteString(ev.Delta.PartialJSON)
					}
				}
			case anthropic.ContentBlockStopEvent:
				if tu := pending[ev.Index]; tu != nil {
					calls = append(calls, provider.DecodeToolCall(tu.id, tu.name, []byte(tu.input.String())))
					delete(pending, ev.Index)
				}
			case anthropic.MessageDeltaEvent:
				stop = ev.Delta.StopReason
				usage.OutputTokens = int(ev.Usage.OutputTokens)
			case anthropic.MessageStopEvent:
				break read
			}
		}
		if err := stream.Err(); err != nil {
			yield(nil, mapError(err))
			return
		}

		reason := provider.StopReasonDone
		if stop == anthropic.StopReasonToolUse && len(calls) > 0 {
			reason = provider.StopReasonToolCall
			for _, call := range calls {
				if !yield(provider.ToolCallRequested{Call: call}, nil) {
					return
				}
			}
		}
		yield(provider.TurnComplete{StopReason: reason, Usage: usage}, nil)
	}
}

// ListModels returns the models available to the API key.
func (p *AnthropicProvider) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	infos, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]provider.ModelInfo, 0, len(infos))
	for _, m := range infos {
		out = append(out, provider.ModelInfo{ID: m.ID, DisplayName: m.DisplayName})
	}
	return out, nil
}
