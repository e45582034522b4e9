package gemini

import (
	"errors"
	"testing"
	"time"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	provider "github.com/litmusautomation/litmus-mcp-server/internal/provider/models"
	"google.golang.org/genai"
)

func TestToGeminiContents(t *testing.T) {
	messages := []models.Message{
		models.NewUserMessage("What's the temperature?"),
		{Role: models.RoleAssistant, Parts: []models.Part{
			models.TextPart{Text: "Checking."},
			models.ToolCallPart{Call: models.ToolCall{ID: "call_1", Name: "get_temp", Args: map[string]any{"unit": "F"}}},
		}},
		{Role: models.RoleToolResult, Parts: []models.Part{
			models.ToolResultPart{CallID: "call_1", Name: "get_temp", Text: "72"},
			models.ToolResultPart{CallID: "call_2", Name: "get_humidity", Text: "error: timeout", IsError: true},
		}},
		{Role: models.RoleAssistant, Parts: []models.Part{models.TextPart{Text: ""}}},
	}

	contents := toGeminiContents(messages)

	if len(contents) != 3 {
		t.Fatalf("expected 3 contents (empty message skipped), got %d", len(contents))
	}
	if contents[0].Role != "user" || contents[0].Parts[0].Text != "What's the temperature?" {
		t.Errorf("unexpected user content: %+v", contents[0])
	}

	model := contents[1]
	if model.Role != "model" {
		t.Errorf("expected model role, got %q", model.Role)
	}
	if len(model.Parts) != 2 || model.Parts[1].FunctionCall == nil {
		t.Fatalf("expected text then function call, got %+v", model.Parts)
	}
	fc := model.Parts[1].FunctionCall
	if fc.ID != "call_1" || fc.Name != "get_temp" || fc.Args["unit"] != "F" {
		t.Errorf("unexpected function call: %+v", fc)
	}

	results := contents[2]
	if results.Role != "user" {
		t.Errorf("function responses must be sent as user content, got %q", results.Role)
	}
	if len(results.Parts) != 2 {
		t.Fatalf("expected 2 function responses in one content, got %d", len(results.Parts))
	}
	ok := results.Parts[0].FunctionResponse
	if ok.ID != "call_1" || ok.Name != "get_temp" || ok.Response["output"] != "72" {
		t.Errorf("unexpected function response: %+v", ok)
	}
	failed := results.Parts[1].FunctionResponse
	if failed.Response["error"] != "error: timeout" {
		t.Errorf("expected error key for failed result, got %+v", failed.Response)
	}
}

func TestToGeminiConfig(t *testing.T) {
	temp := 0.2
	req := &provider.Request{
		System: "You are an industrial assistant.",
		Tools: []models.ToolSpec{
			{Name: "list_devices", Description: "List devices", InputSchema: map[string]any{"type": "object"}},
		},
	}

	config := toGeminiConfig(req, Options{MaxTokens: 1024, Temperature: &temp})

	if config.SystemInstruction == nil || config.SystemInstruction.Parts[0].Text != req.System {
		t.Errorf("system prompt must be a top-level SystemInstruction, got %+v", config.SystemInstruction)
	}
	if len(config.Tools) != 1 || len(config.Tools[0].FunctionDeclarations) != 1 {
		t.Fatalf("expected one function declaration, got %+v", config.Tools)
	}
	if config.Tools[0].FunctionDeclarations[0].Name != "list_devices" {
		t.Errorf("unexpected declaration: %+v", config.Tools[0].FunctionDeclarations[0])
	}
	if config.MaxOutputTokens != 1024 {
		t.Errorf("expected max output tokens 1024, got %d", config.MaxOutputTokens)
	}
	if config.Temperature == nil || *config.Temperature != float32(0.2) {
		t.Errorf("expected temperature 0.2, got %v", config.Temperature)
	}
	if len(config.SafetySettings) != 4 {
		t.Errorf("expected default safety settings, got %d", len(config.SafetySettings))
	}
}

func TestToGeminiConfig_NoSystemNoTools(t *testing.T) {
	config := toGeminiConfig(&provider.Request{}, Options{})

	if config.SystemInstruction != nil {
		t.Error("expected no system instruction")
	}
	if config.Tools != nil {
		t.Error("expected no tools")
	}
	if config.Temperature != nil {
		t.Error("expected SDK default temperature")
	}
}

func TestThoughtSignature_SurvivesEcho(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{FunctionCall: &genai.FunctionCall{ID: "call_1", Name: "read_tag"}, ThoughtSignature: []byte("sig-a")},
				{FunctionCall: &genai.FunctionCall{ID: "call_2", Name: "list_devices"}},
			}},
		}},
	}

	turn, err := fromGeminiResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(turn.ToolCalls[0].Signature) != "sig-a" {
		t.Errorf("expected signature to be kept, got %q", turn.ToolCalls[0].Signature)
	}

	echo := models.Message{Role: models.RoleAssistant}
	for _, call := range turn.ToolCalls {
		echo.Parts = append(echo.Parts, models.ToolCallPart{Call: call})
	}
	content := messageToGeminiContent(echo)

	if len(content.Parts) != 2 {
		t.Fatalf("expected 2 function call parts, got %d", len(content.Parts))
	}
	if string(content.Parts[0].ThoughtSignature) != "sig-a" {
		t.Errorf("expected signature on echoed call, got %q", content.Parts[0].ThoughtSignature)
	}
	if content.Parts[1].ThoughtSignature != nil {
		t.Errorf("expected no signature on second call, got %q", content.Parts[1].ThoughtSignature)
	}
}

func TestFromGeminiResponse(t *testing.T) {
	t.Run("text response", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "thinking...", Thought: true},
					{Text: "72F"},
				}},
				FinishReason: genai.FinishReasonStop,
			}},
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 10, CandidatesTokenCount: 3},
		}

		turn, err := fromGeminiResponse(resp)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if turn.Text() != "72F" {
			t.Errorf("expected thought parts dropped, got %q", turn.Text())
		}
		if turn.StopReason != provider.StopReasonDone {
			t.Errorf("expected done, got %v", turn.StopReason)
		}
		if turn.Usage.InputTokens != 10 || turn.Usage.OutputTokens != 3 {
			t.Errorf("unexpected usage: %+v", turn.Usage)
		}
	})

	t.Run("function calls get synthesized ids", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{FunctionCall: &genai.FunctionCall{Name: "get_temp"}},
					{FunctionCall: &genai.FunctionCall{ID: "given", Name: "get_humidity", Args: map[string]any{"zone": "a"}}},
				}},
			}},
		}

		turn, err := fromGeminiResponse(resp)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !turn.WantsTools() {
			t.Fatal("expected tool call stop reason")
		}
		if len(turn.ToolCalls) != 2 {
			t.Fatalf("expected 2 calls, got %d", len(turn.ToolCalls))
		}
		first := turn.ToolCalls[0]
		if len(first.ID) <= len("call_") || first.ID[:5] != "call_" {
			t.Errorf("expected synthesized call id, got %q", first.ID)
		}
		if first.Args == nil {
			t.Error("expected empty args map, got nil")
		}
		if turn.ToolCalls[1].ID != "given" {
			t.Errorf("expected vendor id to be kept, got %q", turn.ToolCalls[1].ID)
		}
	})

	t.Run("safety block", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
		}

		_, err := fromGeminiResponse(resp)
		if !errors.Is(err, provider.ErrContentBlocked) {
			t.Errorf("expected ErrContentBlocked, got %v", err)
		}
	})

	t.Run("blocked prompt", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
		}

		_, err := fromGeminiResponse(resp)
		if !errors.Is(err, provider.ErrContentBlocked) {
			t.Errorf("expected ErrContentBlocked, got %v", err)
		}
	})

	t.Run("empty response", func(t *testing.T) {
		turn, err := fromGeminiResponse(&genai.GenerateContentResponse{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if turn.Text() != "" || turn.WantsTools() {
			t.Errorf("expected empty done turn, got %+v", turn)
		}
	})
}

func TestMapGeminiError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		sentinel  error
		retryable bool
	}{
		{"rate limit", &genai.APIError{Code: 429, Message: "slow down"}, provider.ErrRateLimit, true},
		{"quota", genai.APIError{Code: 429, Message: "Quota exceeded for project"}, provider.ErrQuotaExceeded, true},
		{"unauthorized", &genai.APIError{Code: 401}, provider.ErrAuthentication, false},
		{"forbidden", &genai.APIError{Code: 403}, provider.ErrPermissionDenied, false},
		{"invalid api key", &genai.APIError{Code: 400, Message: "API key not valid"}, provider.ErrAuthentication, false},
		{"bad request", &genai.APIError{Code: 400, Message: "bad schema"}, provider.ErrInvalidRequest, false},
		{"unknown model", &genai.APIError{Code: 404, Message: "model not found"}, provider.ErrInvalidModel, false},
		{"unavailable", &genai.APIError{Code: 503}, provider.ErrServiceUnavailable, true},
		{"transport", errors.New("connection reset"), provider.ErrNetwork, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapGeminiError(tt.err)

			if !errors.Is(err, tt.sentinel) {
				t.Errorf("expected %v, got %v", tt.sentinel, err)
			}
			if provider.IsRetryable(err) != tt.retryable {
				t.Errorf("expected retryable=%v for %v", tt.retryable, err)
			}
			var pe *provider.ProviderError
			if errors.As(err, &pe) && pe.Provider != Name {
				t.Errorf("expected provider %q, got %q", Name, pe.Provider)
			}
		})
	}
}

func TestMapGeminiError_RetryAfter(t *testing.T) {
	err := mapGeminiError(&genai.APIError{
		Code:    429,
		Details: []map[string]any{{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "12s"}},
	})

	retryAfter := provider.GetRetryAfter(err)
	if retryAfter == nil || *retryAfter != 12*time.Second {
		t.Errorf("expected 12s retry delay, got %v", retryAfter)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name     string
		apiErr   *genai.APIError
		expected *time.Duration
	}{
		{
			name:     "nil error",
			apiErr:   nil,
			expected: nil,
		},
		{
			name:     "empty details",
			apiErr:   &genai.APIError{Code: 429, Details: []map[string]any{}},
			expected: nil,
		},
		{
			name:     "retryDelay as int",
			apiErr:   &genai.APIError{Code: 429, Details: []map[string]any{{"retryDelay": 120}}},
			expected: durationPtr(120 * time.Second),
		},
		{
			name:     "retryDelay as float64 (JSON number)",
			apiErr:   &genai.APIError{Code: 429, Details: []map[string]any{{"retryDelay": 30.0}}},
			expected: durationPtr(30 * time.Second),
		},
		{
			name:     "retry_after field (snake_case)",
			apiErr:   &genai.APIError{Code: 429, Details: []map[string]any{{"retry_after": 90}}},
			expected: durationPtr(90 * time.Second),
		},
		{
			name:     "Retry-After field (HTTP header style)",
			apiErr:   &genai.APIError{Code: 429, Details: []map[string]any{{"Retry-After": 180}}},
			expected: durationPtr(180 * time.Second),
		},
		{
			name: "Google duration format in details",
			apiErr: &genai.APIError{Code: 429, Details: []map[string]any{
				{"retryDelay": map[string]any{"seconds": 150}},
			}},
			expected: durationPtr(150 * time.Second),
		},
		{
			name: "nested in metadata",
			apiErr: &genai.APIError{Code: 429, Details: []map[string]any{
				{"metadata": map[string]any{"retryDelay": 100}},
			}},
			expected: durationPtr(100 * time.Second),
		},
		{
			name: "multiple details, retry in second one",
			apiErr: &genai.APIError{Code: 429, Details: []map[string]any{
				{"someOtherField": "value"},
				{"retryDelay": 50},
			}},
			expected: durationPtr(50 * time.Second),
		},
		{
			name: "no retry field present",
			apiErr: &genai.APIError{Code: 429, Details: []map[string]any{
				{"someField": "value"},
				{"anotherField": 123},
			}},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDuration(t, tt.expected, parseRetryAfter(tt.apiErr))
		})
	}
}

func TestParseRetryValue(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected *time.Duration
	}{
		{name: "int value", value: 60, expected: durationPtr(60 * time.Second)},
		{name: "int64 value", value: int64(120), expected: durationPtr(120 * time.Second)},
		{name: "float64 value", value: 45.0, expected: durationPtr(45 * time.Second)},
		{name: "string number", value: "30", expected: durationPtr(30 * time.Second)},
		{name: "string float", value: "2.5", expected: durationPtr(2500 * time.Millisecond)},
		{name: "duration string", value: "1.5s", expected: durationPtr(1500 * time.Millisecond)},
		{
			name:     "Google duration format - seconds and nanos",
			value:    map[string]any{"seconds": 5, "nanos": 500000000},
			expected: durationPtr(5*time.Second + 500*time.Millisecond),
		},
		{
			name:     "Google duration format - nanos only",
			value:    map[string]any{"nanos": 250000000},
			expected: durationPtr(250 * time.Millisecond),
		},
		{
			name:     "Google duration format - string seconds",
			value:    map[string]any{"seconds": "60"},
			expected: durationPtr(60 * time.Second),
		},
		{name: "empty string", value: "", expected: nil},
		{name: "invalid string", value: "not-a-number", expected: nil},
		{name: "unsupported type", value: true, expected: nil},
		{name: "nil value", value: nil, expected: nil},
		{name: "empty duration map", value: map[string]any{"other": "field"}, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDuration(t, tt.expected, parseRetryValue(tt.value))
		})
	}
}

func assertDuration(t *testing.T, expected, result *time.Duration) {
	t.Helper()
	if expected == nil {
		if result != nil {
			t.Errorf("expected nil, got %v", *result)
		}
		return
	}
	if result == nil {
		t.Errorf("expected %v, got nil", *expected)
		return
	}
	if *result != *expected {
		t.Errorf("expected %v, got %v", *expected, *result)
	}
}

// Helper function to create duration pointer
func durationPtr(d time.Duration) *time.Duration {
	return &d
}

// =============================================================================
// SCHEMA CONVERSION TESTS
// =============================================================================
// MCP servers publish plain JSON Schema maps; these verify the conversion
// handles nesting, arrays, enums and union types.

func TestToGeminiSchema_DeeplyNested(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"outer": map[string]any{
				"type":        "object",
				"description": "Outer object",
				"properties": map[string]any{
					"middle": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"inner": map[string]any{"type": "string", "description": "Inner string value"},
						},
						"required": []any{"inner"},
					},
				},
			},
		},
		"required": []any{"outer"},
	}

	result := toGeminiSchema(schema)

	if result == nil {
		t.Fatal("Result is nil")
	}
	if result.Type != genai.TypeObject {
		t.Errorf("Root type: expected object, got %v", result.Type)
	}
	if len(result.Required) != 1 || result.Required[0] != "outer" {
		t.Errorf("Root required: expected [outer], got %v", result.Required)
	}
	outer := result.Properties["outer"]
	if outer == nil || outer.Description != "Outer object" {
		t.Fatalf("unexpected outer property: %+v", outer)
	}
	middle := outer.Properties["middle"]
	if middle == nil || len(middle.Required) != 1 || middle.Required[0] != "inner" {
		t.Fatalf("unexpected middle property: %+v", middle)
	}
	inner := middle.Properties["inner"]
	if inner == nil || inner.Type != genai.TypeString || inner.Description != "Inner string value" {
		t.Errorf("unexpected inner property: %+v", inner)
	}
}

func TestToGeminiSchema_ArrayOfObjects(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tags": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":  map[string]any{"type": "string"},
						"value": map[string]any{"type": "number"},
					},
					"required": []string{"name"},
				},
			},
		},
	}

	result := toGeminiSchema(schema)

	tags := result.Properties["tags"]
	if tags == nil || tags.Type != genai.TypeArray || tags.Items == nil {
		t.Fatalf("unexpected tags property: %+v", tags)
	}
	if tags.Items.Type != genai.TypeObject {
		t.Errorf("expected object items, got %v", tags.Items.Type)
	}
	if tags.Items.Properties["value"].Type != genai.TypeNumber {
		t.Errorf("expected number value, got %v", tags.Items.Properties["value"].Type)
	}
	if len(tags.Items.Required) != 1 || tags.Items.Required[0] != "name" {
		t.Errorf("expected [name] required, got %v", tags.Items.Required)
	}
}

func TestToGeminiSchema_AllTypes(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"str_field":      map[string]any{"type": "string"},
			"num_field":      map[string]any{"type": "number"},
			"int_field":      map[string]any{"type": "integer"},
			"bool_field":     map[string]any{"type": "boolean"},
			"arr_field":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"obj_field":      map[string]any{"type": "object"},
			"nullable_field": map[string]any{"type": []any{"null", "integer"}},
			"unknown_field":  map[string]any{"type": "unknown_type"},
		},
	}

	result := toGeminiSchema(schema)

	expectations := map[string]genai.Type{
		"str_field":      genai.TypeString,
		"num_field":      genai.TypeNumber,
		"int_field":      genai.TypeInteger,
		"bool_field":     genai.TypeBoolean,
		"arr_field":      genai.TypeArray,
		"obj_field":      genai.TypeObject,
		"nullable_field": genai.TypeInteger,
		"unknown_field":  genai.TypeString,
	}

	for name, expectedType := range expectations {
		prop := result.Properties[name]
		if prop == nil {
			t.Errorf("Missing property: %s", name)
			continue
		}
		if prop.Type != expectedType {
			t.Errorf("%s: expected %v, got %v", name, expectedType, prop.Type)
		}
	}
}

func TestToGeminiSchema_WithEnums(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"state": map[string]any{
				"type": "string",
				"enum": []any{"running", "stopped", "paused"},
			},
		},
	}

	status := toGeminiSchema(schema).Properties["state"]

	if status == nil {
		t.Fatal("Missing 'state' property")
	}
	expectedEnums := []string{"running", "stopped", "paused"}
	if len(status.Enum) != len(expectedEnums) {
		t.Fatalf("Expected %d enum values, got %d", len(expectedEnums), len(status.Enum))
	}
	for i, expected := range expectedEnums {
		if status.Enum[i] != expected {
			t.Errorf("Enum[%d]: expected %q, got %q", i, expected, status.Enum[i])
		}
	}
}

func TestToGeminiSchema_NilInput(t *testing.T) {
	if result := toGeminiSchema(nil); result != nil {
		t.Error("Expected nil result for nil input")
	}
}
