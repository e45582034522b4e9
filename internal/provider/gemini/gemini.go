package gemini

import (
	"context"
	"iter"
	"slices"
	"strconv"
	"strings"

	provider "github.com/litmusautomation/litmus-mcp-server/internal/provider/models"
)

const (
	// Name is the provider name used in configuration and telemetry.
	Name = "gemini"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.5-flash"
)

// Options are the tunables accepted under [provider.gemini.options].
type Options struct {
	MaxTokens   int      `mapstructure:"max_tokens"`
	Temperature *float64 `mapstructure:"temperature"`
}

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	client    GeminiClient
	modelName string
	opts      Options
}

// NewGeminiProvider creates a GeminiProvider for modelName. An empty model
// selects DefaultModel; a "models/" prefix is accepted and stripped.
func NewGeminiProvider(client GeminiClient, modelName string, opts Options) *GeminiProvider {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &GeminiProvider{
		client:    client,
		modelName: strings.TrimPrefix(modelName, "models/"),
		opts:      opts,
	}
}

func (p *GeminiProvider) Name() string  { return Name }
func (p *GeminiProvider) Model() string { return p.modelName }

// Complete sends one request to the Gemini API and returns the converted turn.
func (p *GeminiProvider) Complete(ctx context.Context, req *provider.Request) (*provider.ModelTurn, error) {
	resp, err := p.client.GenerateContent(ctx, p.modelName, toGeminiContents(req.Messages), toGeminiConfig(req, p.opts))
	if err != nil {
		return nil, mapGeminiError(err)
	}
	return fromGeminiResponse(resp)
}

// Stream opens a streamed generation. Text parts are forwarded as deltas and
// function calls as they appear in chunks; TurnComplete follows the last chunk.
func (p *GeminiProvider) Stream(ctx context.Context, req *provider.Request) iter.Seq2[provider.StreamEvent, error] {
	return func(yield func(provider.StreamEvent, error) bool) {
		contents := toGeminiContents(req.Messages)
		config := toGeminiConfig(req, p.opts)

		var usage provider.Usage
		calls := 0
		for resp, err := range p.client.GenerateContentStream(ctx, p.modelName, contents, config) {
			if err != nil {
				yield(nil, mapGeminiError(err))
				return
			}

			var chunk provider.ModelTurn
			if err := appendChunk(&chunk, resp); err != nil {
				yield(nil, err)
				return
			}
			if chunk.Usage != (provider.Usage{}) {
				usage = chunk.Usage
			}
			for _, text := range chunk.TextParts {
				if !yield(provider.TextDelta{Text: text}, nil) {
					return
				}
			}
			for _, call := range chunk.ToolCalls {
				calls++
				if !yield(provider.ToolCallRequested{Call: call}, nil) {
					return
				}
			}
		}

		stop := provider.StopReasonDone
		if calls > 0 {
			stop = provider.StopReasonToolCall
		}
		yield(provider.TurnComplete{StopReason: stop, Usage: usage}, nil)
	}
}

// ListModels returns the available text models, newest first.
func (p *GeminiProvider) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	infos, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, mapGeminiError(err)
	}

	sorted := sortModelsByVersion(infos)
	out := make([]provider.ModelInfo, 0, len(sorted))
	for _, m := range sorted {
		out = append(out, provider.ModelInfo{
			ID:          strings.TrimPrefix(m.Name, "models/"),
			DisplayName: m.DisplayName,
		})
	}
	return out, nil
}

// extractVersion parses the numeric version out of a name like
// "models/gemini-2.5-flash".
func extractVersion(name string) (float64, bool) {
	_, rest, found := strings.Cut(name, "gemini-")
	if !found {
		return 0, false
	}
	ver, _, _ := strings.Cut(rest, "-")
	v, err := strconv.ParseFloat(ver, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// sortModelsByVersion orders models "-latest" aliases first, then by version
// descending, with pro ahead of flash at equal versions.
func sortModelsByVersion(models []ModelInfo) []ModelInfo {
	sorted := slices.Clone(models)
	slices.SortStableFunc(sorted, func(a, b ModelInfo) int {
		aLatest, bLatest := strings.HasSuffix(a.Name, "-latest"), strings.HasSuffix(b.Name, "-latest")
		if aLatest != bLatest {
			if aLatest {
				return -1
			}
			return 1
		}

		av, _ := extractVersion(a.Name)
		bv, _ := extractVersion(b.Name)
		if av != bv {
			if av > bv {
				return -1
			}
			return 1
		}

		return tierRank(a.Name) - tierRank(b.Name)
	})
	return sorted
}

func tierRank(name string) int {
	switch {
	case strings.Contains(name, "-pro"):
		return 0
	case strings.Contains(name, "-flash"):
		return 1
	default:
		return 2
	}
}
