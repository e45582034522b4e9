package openai

import (
	"context"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

// EventStream is the subset of the SDK's SSE stream the adapter reads.
type EventStream interface {
	Next() bool
	Current() responses.ResponseStreamEventUnion
	Err() error
	Close() error
}

// OpenAIClient defines the interface for interacting with the Responses API.
type OpenAIClient interface {
	NewResponse(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error)
	NewResponseStream(ctx context.Context, params responses.ResponseNewParams) EventStream
	ListModels(ctx context.Context) ([]string, error)
}

// RealOpenAIClient wraps the official SDK client to satisfy OpenAIClient.
type RealOpenAIClient struct {
	client *openai.Client
}

// NewRealOpenAIClient creates an SDK client. Empty baseURL uses the public API;
// a nil httpClient uses the SDK default.
func NewRealOpenAIClient(apiKey, baseURL string, httpClient *http.Client) *RealOpenAIClient {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	client := openai.NewClient(opts...)
	return &RealOpenAIClient{client: &client}
}

func (c *RealOpenAIClient) NewResponse(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	return c.client.Responses.New(ctx, params)
}

func (c *RealOpenAIClient) NewResponseStream(ctx context.Context, params responses.ResponseNewParams) EventStream {
	return c.client.Responses.NewStreaming(ctx, params)
}

func (c *RealOpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	var ids []string
	pager := c.client.Models.ListAutoPaging(ctx)
	for pager.Next() {
		ids = append(ids, pager.Current().ID)
	}
	if err := pager.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
