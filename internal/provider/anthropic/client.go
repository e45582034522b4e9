package anthropic

import (
	"context"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// MessageStream is the subset of the SDK's SSE stream the adapter reads.
type MessageStream interface {
	Next() bool
	Current() anthropic.MessageStreamEventUnion
	Err() error
	Close() error
}

// AnthropicClient defines the interface for interacting with the Messages API.
type AnthropicClient interface {
	NewMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)
	NewMessageStream(ctx context.Context, params anthropic.MessageNewParams) MessageStream
	ListModels(ctx context.Context) ([]anthropic.ModelInfo, error)
}

// RealAnthropicClient wraps the official SDK client to satisfy AnthropicClient.
type RealAnthropicClient struct {
	client anthropic.Client
}

// NewRealAnthropicClient creates an SDK client. A nil httpClient uses the SDK default.
func NewRealAnthropicClient(apiKey string, httpClient *http.Client) *RealAnthropicClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &RealAnthropicClient{client: anthropic.NewClient(opts...)}
}

func (c *RealAnthropicClient) NewMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	return c.client.Messages.New(ctx, params)
}

func (c *RealAnthropicClient) NewMessageStream(ctx context.Context, params anthropic.MessageNewParams) MessageStream {
	return c.client.Messages.NewStreaming(ctx, params)
}

func (c *RealAnthropicClient) ListModels(ctx context.Context) ([]anthropic.ModelInfo, error) {
	var models []anthropic.ModelInfo
	pager := c.client.Models.ListAutoPaging(ctx, anthropic.ModelListParams{})
	for pager.Next() {
		models = append(models, pager.Current())
	}
	if err := pager.Err(); err != nil {
		return nil, err
	}
	return models, nil
}
