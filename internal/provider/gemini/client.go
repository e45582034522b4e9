package gemini

import (
	"context"
	"iter"
	"net/http"
	"slices"
	"strings"

	"google.golang.org/genai"
)

// ModelInfo is a model entry as listed by the API ("models/gemini-2.5-flash").
type ModelInfo struct {
	Name        string
	DisplayName string
}

// GeminiClient is the slice of the genai SDK the provider uses.
type GeminiClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

	// Breaking out of the range closes the underlying connection.
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]

	// ListModels returns the text-generation models only.
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// RealGeminiClient adapts *genai.Client to GeminiClient.
type RealGeminiClient struct {
	client *genai.Client
}

func NewRealGeminiClient(client *genai.Client) *RealGeminiClient {
	return &RealGeminiClient{client: client}
}

// Dial creates an SDK client for the Gemini API backend. A nil httpClient uses
// the SDK default.
func Dial(ctx context.Context, apiKey string, httpClient *http.Client) (*RealGeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, err
	}
	return NewRealGeminiClient(client), nil
}

func (c *RealGeminiClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, model, contents, config)
}

func (c *RealGeminiClient) GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	return c.client.Models.GenerateContentStream(ctx, model, contents, config)
}

func (c *RealGeminiClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var out []ModelInfo
	for m, err := range c.client.Models.All(ctx) {
		if err != nil {
			return nil, err
		}
		if isTextModel(m.Name) {
			out = append(out, ModelInfo{Name: m.Name, DisplayName: m.DisplayName})
		}
	}
	return out, nil
}

// nonTextModels marks gemini-* variants that cannot hold a chat.
var nonTextModels = []string{"embedding", "image", "audio", "live", "robotic", "tts"}

func isTextModel(name string) bool {
	if !strings.HasPrefix(name, "models/gemini-") {
		return false
	}
	return !slices.ContainsFunc(nonTextModels, func(s string) bool {
		return strings.Contains(name, s)
	})
}
