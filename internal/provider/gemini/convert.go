package gemini

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	provider "github.com/litmusautomation/litmus-mcp-server/internal/provider/models"
	"google.golang.org/genai"
)

// toGeminiContents converts the conversation to Gemini Content format.
// Tool results travel as user content with FunctionResponse parts.
func toGeminiContents(messages []models.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		if content := messageToGeminiContent(msg); content != nil {
			contents = append(contents, content)
		}
	}
	return contents
}

// messageToGeminiContent converts a single message to Gemini Content format.
func messageToGeminiContent(msg models.Message) *genai.Content {
	role := "user"
	if msg.Role == models.RoleAssistant {
		role = "model"
	}

	parts := make([]*genai.Part, 0, len(msg.Parts))
	for _, part := range msg.Parts {
		switch p := part.(type) {
		case models.TextPart:
			if p.Text != "" {
				parts = append(parts, genai.NewPartFromText(p.Text))
			}
		case models.ToolCallPart:
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   p.Call.ID,
					Name: p.Call.Name,
					Args: p.Call.Args,
				},
				ThoughtSignature: p.Call.Signature,
			})
		case models.ToolResultPart:
			key := "output"
			if p.IsError {
				key = "error"
			}
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       p.CallID,
					Name:     p.Name,
					Response: map[string]any{key: p.Text},
				},
			})
		}
	}

	// Skip empty messages
	if len(parts) == 0 {
		return nil
	}

	return &genai.Content{Role: role, Parts: parts}
}

// toGeminiConfig builds the request config: system instruction, tools, options.
func toGeminiConfig(req *provider.Request, opts Options) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SafetySettings: defaultSafetySettings(),
	}

	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.System)},
		}
	}
	if len(req.Tools) > 0 {
		config.Tools = toGeminiTools(req.Tools)
	}
	if opts.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*opts.Temperature))
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}

	return config
}

// defaultSafetySettings returns safety settings with BLOCK_NONE for all categories.
func defaultSafetySettings() []*genai.SafetySetting {
	return []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategoryDangerousContent,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategorySexuallyExplicit,
			Threshold: genai.HarmBlockThresholdOff,
		},
	}
}

// toGeminiTools converts tool specs to Gemini function declarations.
func toGeminiTools(tools []models.ToolSpec) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	functionDeclarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		fd := &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
		}
		if tool.InputSchema != nil {
			fd.Parameters = toGeminiSchema(tool.InputSchema)
		}
		functionDeclarations = append(functionDeclarations, fd)
	}

	return []*genai.Tool{
		{FunctionDeclarations: functionDeclarations},
	}
}

// toGeminiSchema converts a JSON Schema object to a Gemini Schema, recursing
// into properties and array items.
func toGeminiSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}

	out := &genai.Schema{
		Type: toGeminiType(schema["type"]),
	}
	if desc, ok := schema["description"].(string); ok {
		out.Description = desc
	}
	if format, ok := schema["format"].(string); ok {
		out.Format = format
	}
	if enum := stringList(schema["enum"]); len(enum) > 0 {
		out.Enum = enum
	}

	if props, ok := schema["properties"].(map[string]any); ok && len(props) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if prop, ok := raw.(map[string]any); ok {
				out.Properties[name] = toGeminiSchema(prop)
			}
		}
	}
	if required := stringList(schema["required"]); len(required) > 0 {
		out.Required = required
	}
	if items, ok := schema["items"].(map[string]any); ok {
		out.Items = toGeminiSchema(items)
	}

	return out
}

// toGeminiType converts a JSON Schema type to Gemini Type. Union types such as
// ["string", "null"] use their first non-null member.
func toGeminiType(raw any) genai.Type {
	var typeStr string
	switch t := raw.(type) {
	case string:
		typeStr = t
	case []any:
		for _, member := range t {
			if s, ok := member.(string); ok && s != "null" {
				typeStr = s
				break
			}
		}
	case nil:
		return genai.TypeObject
	}

	switch typeStr {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
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

// fromGeminiResponse converts a Gemini response to a model turn.
func fromGeminiResponse(resp *genai.GenerateContentResponse) (*provider.ModelTurn, error) {
	turn := &provider.ModelTurn{StopReason: provider.StopReasonDone}
	if err := appendChunk(turn, resp); err != nil {
		return nil, err
	}
	if len(turn.ToolCalls) > 0 {
		turn.StopReason = provider.StopReasonToolCall
	}
	return turn, nil
}

// appendChunk folds one response (or one streamed chunk) into turn.
func appendChunk(turn *provider.ModelTurn, resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return nil
	}
	if resp.UsageMetadata != nil {
		turn.Usage = provider.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return &provider.ProviderError{
				Provider: Name,
				Code:     provider.ErrorCodeContentBlocked,
				Message:  fmt.Sprintf("prompt blocked: %s", resp.PromptFeedback.BlockReason),
			}
		}
		return nil
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety || candidate.FinishReason == genai.FinishReasonProhibitedContent {
		return &provider.ProviderError{
			Provider: Name,
			Code:     provider.ErrorCodeContentBlocked,
			Message:  "content blocked by safety filters",
		}
	}
	if candidate.Content == nil {
		return nil
	}

	for _, part := range candidate.Content.Parts {
		switch {
		case part.Thought:
			continue
		case part.FunctionCall != nil:
			turn.ToolCalls = append(turn.ToolCalls, fromFunctionCall(part))
		case part.Text != "":
			turn.TextParts = append(turn.TextParts, part.Text)
		}
	}
	return nil
}

// fromFunctionCall converts a function call part. Gemini often omits call
// IDs, so one is synthesized to pair the call with its result. The part's
// thought signature rides along for the echo.
func fromFunctionCall(part *genai.Part) models.ToolCall {
	fc := part.FunctionCall
	id := fc.ID
	if id == "" {
		id = "call_" + uuid.NewString()
	}
	args := fc.Args
	if args == nil {
		args = map[string]any{}
	}
	return models.ToolCall{ID: id, Name: fc.Name, Args: args, Signature: part.ThoughtSignature}
}

// mapGeminiError maps Gemini API errors to provider errors.
func mapGeminiError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *genai.APIError
	if !errors.As(err, &apiErr) {
		var value genai.APIError
		if !errors.As(err, &value) {
			return provider.NetworkError(Name, err)
		}
		apiErr = &value
	}

	pe := provider.FromStatus(Name, apiErr.Code, apiErr.Message, err)
	switch {
	case apiErr.Code == 429 && strings.Contains(strings.ToLower(apiErr.Message), "quota"):
		pe.Code, pe.Message = provider.ErrorCodeQuota, "quota exceeded"
		pe.RetryAfter = parseRetryAfter(apiErr)
	case apiErr.Code == 429:
		pe.RetryAfter = parseRetryAfter(apiErr)
	case apiErr.Code == 400 && strings.Contains(apiErr.Message, "API key"):
		pe.Code, pe.Message = provider.ErrorCodeAuth, "authentication failed"
	}
	return pe
}

var retryKeys = []string{"retryDelay", "retry_after", "retryAfter", "Retry-After"}

// parseRetryAfter looks for a retry delay in the error details, including
// the google.rpc.RetryInfo shape and values nested under "metadata".
func parseRetryAfter(apiErr *genai.APIError) *time.Duration {
	if apiErr == nil {
		return nil
	}
	for _, detail := range apiErr.Details {
		if d := retryFromMap(detail); d != nil {
			return d
		}
		if meta, ok := detail["metadata"].(map[string]any); ok {
			if d := retryFromMap(meta); d != nil {
				return d
			}
		}
	}
	return nil
}

func retryFromMap(m map[string]any) *time.Duration {
	for _, key := range retryKeys {
		if v, ok := m[key]; ok {
			if d := parseRetryValue(v); d != nil {
				return d
			}
		}
	}
	return nil
}

// parseRetryValue accepts seconds as a number or numeric string, a duration
// string such as "2.5s", or a {seconds, nanos} map.
func parseRetryValue(v any) *time.Duration {
	var d time.Duration
	switch val := v.(type) {
	case int:
		d = time.Duration(val) * time.Second
	case int64:
		d = time.Duration(val) * time.Second
	case float64:
		d = time.Duration(val * float64(time.Second))
	case string:
		if val == "" {
			return nil
		}
		if secs, err := strconv.ParseFloat(val, 64); err == nil {
			d = time.Duration(secs * float64(time.Second))
			break
		}
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return nil
		}
		d = parsed
	case map[string]any:
		secs, hasSecs := val["seconds"]
		nanos, hasNanos := val["nanos"]
		if !hasSecs && !hasNanos {
			return nil
		}
		if hasSecs {
			s := parseRetryValue(secs)
			if s == nil {
				return nil
			}
			d = *s
		}
		if hasNanos {
			switch n := nanos.(type) {
			case int:
				d += time.Duration(n)
			case int64:
				d += time.Duration(n)
			case float64:
				d += time.Duration(n)
			}
		}
	default:
		return nil
	}
	return &d
}
